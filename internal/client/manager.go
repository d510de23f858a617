// Package client owns the session core: the registry of live gateway
// connections, the QR cache, the persisted session snapshot and the
// lifecycle event handling that ties them together.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zapgo/whatsapp-api/internal/callback"
	"github.com/zapgo/whatsapp-api/internal/gateway"
)

// Client is one registered session: its id, optional callback URL and the
// live connection handle. The registry entry is the sole authority for
// "this session is live".
type Client struct {
	ID          string
	CallbackURL string
	conn        gateway.Connection
}

// Info is the external view of a session, as returned by /clients.
type Info struct {
	ClientID string `json:"clientId"`
	QRCode   string `json:"qrCode,omitempty"`
}

// Manager drives every session from registration through pairing,
// readiness, message relay and disconnection.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client
	qrCodes map[string]string

	store      *Store
	dispatcher *callback.Dispatcher
	gw         gateway.Gateway
	log        zerolog.Logger

	messagePrefix string
	pollInterval  time.Duration
}

// NewManager creates a session manager. messagePrefix selects which inbound
// messages are relayed to callback URLs; pollInterval bounds how often
// WaitForQR re-checks the QR cache.
func NewManager(gw gateway.Gateway, store *Store, dispatcher *callback.Dispatcher, messagePrefix string, pollInterval time.Duration, log zerolog.Logger) *Manager {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Manager{
		clients:       make(map[string]*Client),
		qrCodes:       make(map[string]string),
		store:         store,
		dispatcher:    dispatcher,
		gw:            gw,
		log:           log.With().Str("component", "manager").Logger(),
		messagePrefix: messagePrefix,
		pollInterval:  pollInterval,
	}
}

// Register creates a new session with a freshly generated id, starts its
// connection and returns immediately; it never waits for a QR code.
func (m *Manager) Register(callbackURL string) (string, error) {
	id := uuid.NewString()
	if err := m.startClient(id, callbackURL); err != nil {
		return "", err
	}
	return id, nil
}

// Restore reconnects every persisted session. Dials run concurrently but
// Restore only returns once every entry is registered, so anything that
// consults the registry afterwards (the cleanup sweep in particular) sees
// the full persisted set. Snapshot writes are serialized by the registry
// lock and the full-set write is idempotent per id, so last-write-wins is
// fine here.
func (m *Manager) Restore() {
	entries := m.store.Load()
	if len(entries) == 0 {
		return
	}
	m.log.Info().Int("count", len(entries)).Msg("Restoring persisted sessions")

	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func(e Entry) {
			defer wg.Done()
			if err := m.startClient(e.ClientID, e.CallbackURL); err != nil {
				m.log.Error().Err(err).Str("client_id", e.ClientID).Msg("Failed to restore session")
			}
		}(entry)
	}
	wg.Wait()
}

// startClient dials a connection, registers it and kicks off the connect.
// The session outlives any request, so the dial is not request-scoped.
func (m *Manager) startClient(id, callbackURL string) error {
	conn, err := m.gw.Dial(context.Background(), id, func(ev gateway.Event) {
		m.handleEvent(id, ev)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize client %s: %w", id, err)
	}

	m.mu.Lock()
	if _, exists := m.clients[id]; exists {
		m.mu.Unlock()
		conn.Close()
		return fmt.Errorf("client %s already registered", id)
	}
	m.clients[id] = &Client{ID: id, CallbackURL: callbackURL, conn: conn}
	entries := m.entriesLocked()
	m.mu.Unlock()

	m.saveSnapshot(entries, "initializing client "+id)

	go func() {
		if err := conn.Start(context.Background()); err != nil {
			m.log.Error().Err(err).Str("client_id", id).Msg("Failed to start client connection")
		}
	}()

	m.log.Info().Str("client_id", id).Msg("Client registered")
	return nil
}

// WaitForQR blocks until a QR code exists for id, polling the QR cache on a
// timer. The wait ends with ctx: a session that authenticates without
// emitting a QR must not hold the caller forever.
func (m *Manager) WaitForQR(ctx context.Context, id string) (string, error) {
	if qr, ok := m.GetQR(id); ok {
		return qr, nil
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if qr, ok := m.GetQR(id); ok {
				return qr, nil
			}
			if !m.Exists(id) {
				return "", NotFound(id)
			}
		}
	}
}

// GetQR returns the current QR code for id without blocking.
func (m *Manager) GetQR(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qr, ok := m.qrCodes[id]
	return qr, ok
}

// Exists reports whether a session is live.
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[id]
	return ok
}

// List returns a snapshot of every session joined with its pending QR code.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.clients))
	for id := range m.clients {
		infos = append(infos, Info{ClientID: id, QRCode: m.qrCodes[id]})
	}
	return infos
}

// ActiveIDs returns the ids of all live sessions.
func (m *Manager) ActiveIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	return ids
}

// Disconnect terminates the session for id. It returns false when the id is
// unknown, which is not an error: retries must stay idempotent. The
// connection is torn down before registry state is removed so a stale
// handle can never mutate state for an id that looks gone.
func (m *Manager) Disconnect(id string) bool {
	m.mu.RLock()
	cl, ok := m.clients[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	cl.conn.Close()

	m.mu.Lock()
	if _, still := m.clients[id]; !still {
		// Lost the race with a remote disconnect; cleanup already ran.
		m.mu.Unlock()
		return true
	}
	delete(m.clients, id)
	delete(m.qrCodes, id)
	entries := m.entriesLocked()
	m.mu.Unlock()

	m.saveSnapshot(entries, "disconnecting client "+id)
	m.dispatcher.Dispatch(id, cl.CallbackURL, fmt.Sprintf("Cliente %s desconectado", id), "DISCONNECTED", nil)
	m.log.Info().Str("client_id", id).Msg("Cliente foi desconectado e removido")
	return true
}

// AddCallbackURL sets or replaces the callback URL for a session and
// persists the change.
func (m *Manager) AddCallbackURL(id, url string) error {
	m.mu.Lock()
	cl, ok := m.clients[id]
	if !ok {
		m.mu.Unlock()
		return NotFound(id)
	}
	cl.CallbackURL = url
	entries := m.entriesLocked()
	m.mu.Unlock()

	m.saveSnapshot(entries, "adding callback URL for client "+id)
	return nil
}

// SendText delivers a text message through the session's connection.
func (m *Manager) SendText(ctx context.Context, id, number, text string) error {
	conn, err := m.connFor(id)
	if err != nil {
		return err
	}
	return conn.SendText(ctx, number, text)
}

// SendMedia delivers a normalized attachment through the session's
// connection.
func (m *Manager) SendMedia(ctx context.Context, id, number string, media gateway.Media) error {
	conn, err := m.connFor(id)
	if err != nil {
		return err
	}
	return conn.SendMedia(ctx, number, media)
}

func (m *Manager) connFor(id string) (gateway.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cl, ok := m.clients[id]
	if !ok {
		return nil, NotFound(id)
	}
	return cl.conn, nil
}

// entriesLocked builds the persisted set. Callers must hold mu.
func (m *Manager) entriesLocked() []Entry {
	entries := make([]Entry, 0, len(m.clients))
	for id, cl := range m.clients {
		entries = append(entries, Entry{ClientID: id, CallbackURL: cl.CallbackURL})
	}
	return entries
}

// saveSnapshot writes the full session set. A failed write is logged and
// swallowed: in-memory state stays authoritative for the running process.
func (m *Manager) saveSnapshot(entries []Entry, action string) {
	if err := m.store.SaveAll(entries); err != nil {
		m.log.Error().Err(err).Msg("Failed to save clients to file after " + action)
	}
}

func (m *Manager) callbackURLFor(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cl, ok := m.clients[id]
	if !ok {
		return "", false
	}
	return cl.CallbackURL, true
}
