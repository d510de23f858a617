// Package callback delivers lifecycle and message events to per-client
// webhook URLs.
package callback

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Payload is the body POSTed to a client's callback URL.
type Payload struct {
	ClientID       string         `json:"clientId"`
	Message        string         `json:"message"`
	Type           string         `json:"type"`
	AdditionalData map[string]any `json:"additionalData,omitempty"`
}

// Dispatcher performs best-effort webhook delivery. Failures are logged and
// never reach the caller: a dead callback endpoint must not stall session
// state transitions.
type Dispatcher struct {
	client *http.Client
	log    zerolog.Logger
}

// NewDispatcher creates a dispatcher with a bounded per-request timeout.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("component", "callback").Logger(),
	}
}

// Dispatch fires a single POST to callbackURL asynchronously. An empty URL
// logs a warning and returns; callback registration is optional.
func (d *Dispatcher) Dispatch(clientID, callbackURL, message, eventType string, additionalData map[string]any) {
	if callbackURL == "" {
		d.log.Warn().Str("client_id", clientID).
			Msg("Este número não está configurado para receber mensagens")
		return
	}

	payload := Payload{
		ClientID:       clientID,
		Message:        message,
		Type:           eventType,
		AdditionalData: additionalData,
	}

	go d.post(clientID, callbackURL, payload)
}

func (d *Dispatcher) post(clientID, callbackURL string, payload Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.log.Error().Err(err).Str("client_id", clientID).Msg("Failed to encode callback payload")
		return
	}

	resp, err := d.client.Post(callbackURL, "application/json", bytes.NewReader(body))
	if err != nil {
		d.log.Error().Err(err).Str("client_id", clientID).Str("url", callbackURL).
			Msg("Failed to send message to callback URL")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		d.log.Error().Int("status", resp.StatusCode).Str("client_id", clientID).Str("url", callbackURL).
			Msg("Callback URL returned error status")
		return
	}

	d.log.Info().Str("client_id", clientID).Str("type", payload.Type).
		Msg("Message sent to callback URL")
}
