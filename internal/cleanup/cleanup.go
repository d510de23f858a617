// Package cleanup removes device store files left behind by sessions that
// are no longer registered.
package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SessionLister reports which session ids are currently live.
type SessionLister interface {
	ActiveIDs() []string
}

// Janitor periodically sweeps the data directory.
type Janitor struct {
	dataDir  string
	interval time.Duration
	sessions SessionLister
	log      zerolog.Logger
}

// NewJanitor creates a janitor sweeping dataDir every interval.
func NewJanitor(dataDir string, interval time.Duration, sessions SessionLister, log zerolog.Logger) *Janitor {
	return &Janitor{
		dataDir:  dataDir,
		interval: interval,
		sessions: sessions,
		log:      log.With().Str("component", "cleanup").Logger(),
	}
}

// Start runs an immediate sweep and then sweeps on the configured interval
// until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.Sweep()

	ticker := time.NewTicker(j.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.log.Info().Msg("Executando job de limpeza de sessões")
				j.Sweep()
			}
		}
	}()
}

// Sweep deletes session files whose id has no live registration. Sqlite
// sidecar files (-shm, -wal) go with their database.
func (j *Janitor) Sweep() {
	active := make(map[string]bool)
	for _, id := range j.sessions.ActiveIDs() {
		active[id] = true
	}

	files, err := os.ReadDir(j.dataDir)
	if err != nil {
		j.log.Error().Err(err).Str("dir", j.dataDir).Msg("Erro ao ler a pasta de sessões")
		return
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		id, ok := sessionIDFromFile(file.Name())
		if !ok || active[id] {
			continue
		}

		path := filepath.Join(j.dataDir, file.Name())
		if err := os.Remove(path); err != nil {
			j.log.Error().Err(err).Str("session_id", id).Msg("Erro ao remover a sessão")
		} else {
			j.log.Info().Str("session_id", id).Str("file", file.Name()).Msg("Sessão removida com sucesso")
		}
	}
}

// sessionIDFromFile maps a data directory file back to its session id.
func sessionIDFromFile(name string) (string, bool) {
	for _, suffix := range []string{".db-shm", ".db-wal", ".db"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix), true
		}
	}
	return "", false
}
