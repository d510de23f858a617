package messaging

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapgo/whatsapp-api/internal/app"
	"github.com/zapgo/whatsapp-api/internal/callback"
	"github.com/zapgo/whatsapp-api/internal/client"
	"github.com/zapgo/whatsapp-api/internal/config"
	"github.com/zapgo/whatsapp-api/internal/gateway"
)

type stubConn struct {
	sendErr error
	sent    int
}

func (c *stubConn) Start(ctx context.Context) error { return nil }

func (c *stubConn) SendText(ctx context.Context, number, text string) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent++
	return nil
}

func (c *stubConn) SendMedia(ctx context.Context, number string, media gateway.Media) error {
	return c.sendErr
}

func (c *stubConn) Close() {}

type stubGateway struct {
	conn *stubConn
}

func (g *stubGateway) Dial(ctx context.Context, clientID string, handler gateway.EventHandler) (gateway.Connection, error) {
	return g.conn, nil
}

func newTestRouter(t *testing.T, gw gateway.Gateway) (*gin.Engine, *client.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ClientsFilePath: filepath.Join(t.TempDir(), "clients.json"),
		QRPollInterval:  10 * time.Millisecond,
	}

	store := client.NewStore(cfg.ClientsFilePath, zerolog.Nop())
	dispatcher := callback.NewDispatcher(zerolog.Nop())
	manager := client.NewManager(gw, store, dispatcher, "pergunta:", cfg.QRPollInterval, zerolog.Nop())

	application := app.NewApp(cfg, zerolog.Nop(), manager)
	h := NewHandlers(application)

	r := gin.New()
	r.POST("/sendMessage", h.SendMessageHandler)
	return r, manager
}

func postJSON(r *gin.Engine, path string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessageMissingFields(t *testing.T) {
	r, _ := newTestRouter(t, &stubGateway{conn: &stubConn{}})

	w := postJSON(r, "/sendMessage", `{"numero":"1234567890"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Número, mensagem e clientId são necessários")
}

func TestSendMessageUnknownClient(t *testing.T) {
	r, _ := newTestRouter(t, &stubGateway{conn: &stubConn{}})

	w := postJSON(r, "/sendMessage", `{"numero":"1234567890","mensagem":"hi","clientId":"no-such-id"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Cliente não encontrado")
}

func TestSendMessageSuccess(t *testing.T) {
	conn := &stubConn{}
	r, manager := newTestRouter(t, &stubGateway{conn: conn})

	id, err := manager.Register("")
	require.NoError(t, err)

	w := postJSON(r, "/sendMessage", `{"numero":"1234567890","mensagem":"hi","clientId":"`+id+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mensagem enviada com sucesso")
	assert.Equal(t, 1, conn.sent)
}

func TestSendMessageGatewayError(t *testing.T) {
	conn := &stubConn{sendErr: errors.New("not logged in")}
	r, manager := newTestRouter(t, &stubGateway{conn: conn})

	id, err := manager.Register("")
	require.NoError(t, err)

	w := postJSON(r, "/sendMessage", `{"numero":"1234567890","mensagem":"hi","clientId":"`+id+`"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Erro ao enviar mensagem")
}
