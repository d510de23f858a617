package gateway

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/zapgo/whatsapp-api/internal/utils"

	_ "github.com/mattn/go-sqlite3"
)

// WhatsmeowGateway dials whatsmeow-backed connections. Each client id gets
// its own sqlite device store under dataDir.
type WhatsmeowGateway struct {
	dataDir string
	log     zerolog.Logger
}

// NewWhatsmeowGateway creates a gateway storing device databases in dataDir.
func NewWhatsmeowGateway(dataDir string, log zerolog.Logger) *WhatsmeowGateway {
	return &WhatsmeowGateway{dataDir: dataDir, log: log}
}

// DeviceStorePath returns the sqlite file backing a client id.
func (g *WhatsmeowGateway) DeviceStorePath(clientID string) string {
	return filepath.Join(g.dataDir, clientID+".db")
}

// Dial opens the device store for a client id and builds a connection.
// No network I/O happens until Start.
func (g *WhatsmeowGateway) Dial(ctx context.Context, clientID string, handler EventHandler) (Connection, error) {
	dbPath := g.DeviceStorePath(clientID)
	dbLogger := waLog.Zerolog(g.log.With().Str("component", "database").Str("client_id", clientID).Logger())

	container, err := sqlstore.New(ctx, "sqlite3", "file:"+dbPath+"?_foreign_keys=on", dbLogger)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("device error: %w", err)
	}

	store.SetOSInfo("Linux", store.GetWAVersion())
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()

	clientLogger := waLog.Zerolog(g.log.With().Str("component", "whatsmeow").Str("client_id", clientID).Logger())
	client := whatsmeow.NewClient(deviceStore, clientLogger)

	conn := &waConnection{
		clientID:  clientID,
		client:    client,
		container: container,
		handler:   handler,
		log:       g.log.With().Str("client_id", clientID).Logger(),
	}

	client.AddEventHandler(conn.handleWhatsmeowEvent)
	return conn, nil
}

// waConnection is a live whatsmeow link for one client id.
type waConnection struct {
	clientID  string
	client    *whatsmeow.Client
	container *sqlstore.Container
	handler   EventHandler
	log       zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Start connects the client. When the device is not yet registered a QR
// channel is consumed and pairing codes are forwarded as EventQR.
func (c *waConnection) Start(ctx context.Context) error {
	if c.client.Store.ID == nil {
		// Must be requested before Connect or whatsmeow pairs silently.
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("failed to create QR channel: %w", err)
		}
		go c.consumeQRChannel(qrChan)
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect client: %w", err)
	}
	return nil
}

func (c *waConnection) consumeQRChannel(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			c.emit(Event{Type: EventQR, Code: item.Code})
		case "success":
			// PairSuccess arrives through the regular event handler.
		default:
			// timeout, err-client-outdated, err-scanned-without-multidevice
			c.emit(Event{Type: EventAuthFailure, Reason: item.Event})
		}
	}
}

func (c *waConnection) handleWhatsmeowEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.PairSuccess:
		c.emit(Event{Type: EventAuthenticated})

	case *events.Connected:
		c.emit(Event{Type: EventReady})

	case *events.LoggedOut:
		reason := "logged out"
		if e.OnConnect {
			reason = e.Reason.String()
		}
		c.emit(Event{Type: EventDisconnected, Reason: reason})

	case *events.Disconnected:
		c.emit(Event{Type: EventDisconnected, Reason: "stream closed"})

	case *events.StreamError:
		c.log.Error().Interface("event", e).Msg("Stream error")

	case *events.Message:
		body := extractMessageText(e)
		if body == "" {
			return
		}
		c.emit(Event{
			Type: EventMessage,
			From: e.Info.Sender.User,
			Body: body,
		})
	}
}

// extractMessageText pulls the plain text out of an inbound message.
func extractMessageText(e *events.Message) string {
	if text := e.Message.GetConversation(); text != "" {
		return text
	}
	return e.Message.GetExtendedTextMessage().GetText()
}

func (c *waConnection) emit(ev Event) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.handler(ev)
}

// SendText delivers a plain text message.
func (c *waConnection) SendText(ctx context.Context, number, text string) error {
	recipient := types.JID{
		User:   number,
		Server: "s.whatsapp.net",
	}

	msg := &waE2E.Message{
		Conversation: proto.String(text),
	}

	opts := whatsmeow.SendRequestExtra{
		ID: whatsmeow.GenerateMessageID(),
	}

	sendCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if _, err := c.client.SendMessage(sendCtx, recipient, msg, opts); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendMedia uploads and delivers an attachment.
func (c *waConnection) SendMedia(ctx context.Context, number string, media Media) error {
	recipient := types.JID{
		User:   number,
		Server: "s.whatsapp.net",
	}

	var waMediaType whatsmeow.MediaType
	switch media.Kind {
	case MediaKindImage:
		waMediaType = whatsmeow.MediaImage
	case MediaKindVideo:
		waMediaType = whatsmeow.MediaVideo
	default:
		waMediaType = whatsmeow.MediaDocument
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	uploaded, err := c.client.Upload(uploadCtx, media.Data, waMediaType)
	if err != nil {
		return fmt.Errorf("failed to upload media: %w", err)
	}

	var msg waE2E.Message
	switch media.Kind {
	case MediaKindImage:
		msg = waE2E.Message{
			ImageMessage: &waE2E.ImageMessage{
				Caption:       proto.String(media.Caption),
				URL:           proto.String(uploaded.URL),
				DirectPath:    proto.String(uploaded.DirectPath),
				MediaKey:      uploaded.MediaKey,
				Mimetype:      proto.String(media.MimeType),
				FileEncSHA256: uploaded.FileEncSHA256,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    proto.Uint64(uint64(len(media.Data))),
			},
		}
	case MediaKindVideo:
		videoMsg := &waE2E.VideoMessage{
			Caption:       proto.String(media.Caption),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(media.MimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uint64(len(media.Data))),
		}
		// Thumbnail failure only degrades the preview, never the send.
		if thumb, err := utils.VideoThumbnail(media.Data, 0, struct{ Width int }{Width: 72}); err == nil {
			videoMsg.JPEGThumbnail = thumb
		} else {
			c.log.Warn().Err(err).Msg("Failed to generate video thumbnail")
		}
		msg = waE2E.Message{VideoMessage: videoMsg}
	default:
		msg = waE2E.Message{
			DocumentMessage: &waE2E.DocumentMessage{
				Caption:       proto.String(media.Caption),
				URL:           proto.String(uploaded.URL),
				DirectPath:    proto.String(uploaded.DirectPath),
				MediaKey:      uploaded.MediaKey,
				Mimetype:      proto.String(media.MimeType),
				FileEncSHA256: uploaded.FileEncSHA256,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    proto.Uint64(uint64(len(media.Data))),
				FileName:      proto.String(media.FileName),
			},
		}
	}

	opts := whatsmeow.SendRequestExtra{
		ID: whatsmeow.GenerateMessageID(),
	}

	sendCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	if _, err := c.client.SendMessage(sendCtx, recipient, &msg, opts); err != nil {
		return fmt.Errorf("failed to send media message: %w", err)
	}
	return nil
}

// Close tears down the whatsmeow client and its device store. Events that
// race with teardown are dropped.
func (c *waConnection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.client.IsConnected() {
		c.client.Disconnect()
	}
	if c.container != nil {
		c.container.Close()
	}
}
