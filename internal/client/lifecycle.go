package client

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/zapgo/whatsapp-api/internal/gateway"
)

// Callback event types delivered to registered callback URLs.
const (
	CallbackReady        = "READY"
	CallbackAuthed       = "AUTHENTICATED"
	CallbackAuthFailure  = "AUTH_FAILURE"
	CallbackMessage      = "MESSAGE"
	CallbackDisconnected = "DISCONNECTED"
)

// handleEvent is the single dispatch point for gateway events. Nothing in
// here may panic or return an error into the gateway's event path; every
// failure is logged and absorbed.
func (m *Manager) handleEvent(id string, ev gateway.Event) {
	switch ev.Type {
	case gateway.EventQR:
		m.handleQR(id, ev.Code)

	case gateway.EventAuthenticated:
		m.clearQR(id)
		m.trigger(id, fmt.Sprintf("Cliente %s autenticado com sucesso", id), CallbackAuthed, nil)
		m.log.Info().Str("client_id", id).Msg("Cliente autenticado com sucesso")

	case gateway.EventReady:
		m.clearQR(id)
		m.trigger(id, fmt.Sprintf("Cliente %s está pronto!", id), CallbackReady, nil)
		m.log.Info().Str("client_id", id).Msg("Cliente está pronto")

	case gateway.EventAuthFailure:
		m.clearQR(id)
		m.trigger(id, fmt.Sprintf("Falha na autenticação do cliente %s: %s", id, ev.Reason), CallbackAuthFailure, nil)
		m.log.Error().Str("client_id", id).Str("reason", ev.Reason).Msg("Falha na autenticação do cliente")

	case gateway.EventMessage:
		m.handleMessage(id, ev)

	case gateway.EventDisconnected:
		m.handleRemoteDisconnect(id)
	}
}

// handleQR renders the pairing code as a PNG data URL and overwrites the QR
// cache entry. No callback fires: pairing is not yet an externally
// meaningful milestone.
func (m *Manager) handleQR(id, code string) {
	if !m.Exists(id) {
		return
	}

	dataURL, err := renderQRDataURL(code)
	if err != nil {
		m.log.Error().Err(err).Str("client_id", id).Msg("Erro ao gerar QR code em base64")
		return
	}

	m.mu.Lock()
	if _, live := m.clients[id]; live {
		m.qrCodes[id] = dataURL
	}
	m.mu.Unlock()
}

func (m *Manager) clearQR(id string) {
	m.mu.Lock()
	delete(m.qrCodes, id)
	m.mu.Unlock()
}

// handleMessage relays inbound messages that carry the configured prefix.
// Everything else is silently ignored: this is a selective relay, not an
// inbox.
func (m *Manager) handleMessage(id string, ev gateway.Event) {
	if !m.Exists(id) {
		return
	}

	msg := strings.ToLower(strings.TrimSpace(ev.Body))
	if m.messagePrefix == "" || !strings.HasPrefix(msg, m.messagePrefix) {
		return
	}

	m.log.Info().Str("client_id", id).Str("from", ev.From).Msg("Mensagem recebida")
	stripped := strings.TrimSpace(strings.TrimPrefix(msg, m.messagePrefix))
	m.trigger(id, stripped, CallbackMessage, map[string]any{
		"numeroFrom": ev.From,
	})
}

// handleRemoteDisconnect runs the same cleanup as Disconnect for a
// gateway-initiated disconnection.
func (m *Manager) handleRemoteDisconnect(id string) {
	m.mu.Lock()
	cl, ok := m.clients[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, id)
	delete(m.qrCodes, id)
	entries := m.entriesLocked()
	m.mu.Unlock()

	cl.conn.Close()
	m.saveSnapshot(entries, "client "+id+" disconnected")
	m.dispatcher.Dispatch(id, cl.CallbackURL, fmt.Sprintf("Cliente %s desconectado", id), CallbackDisconnected, nil)
	m.log.Info().Str("client_id", id).Msg("Cliente desconectado")
}

// trigger looks up the session's callback URL and hands off to the
// dispatcher. Sessions removed between event emission and delivery are
// dropped.
func (m *Manager) trigger(id, message, eventType string, additionalData map[string]any) {
	url, ok := m.callbackURLFor(id)
	if !ok {
		return
	}
	m.dispatcher.Dispatch(id, url, message, eventType, additionalData)
}

// renderQRDataURL turns a raw pairing code into a data-URL-encoded PNG.
func renderQRDataURL(code string) (string, error) {
	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
