package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
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

// stubConn emits a QR code as soon as the connection starts, standing in
// for a gateway that begins pairing immediately.
type stubConn struct {
	handler gateway.EventHandler
	qrCode  string

	mu     sync.Mutex
	closed bool
}

func (c *stubConn) Start(ctx context.Context) error {
	if c.qrCode != "" {
		go c.handler(gateway.Event{Type: gateway.EventQR, Code: c.qrCode})
	}
	return nil
}

func (c *stubConn) SendText(ctx context.Context, number, text string) error { return nil }

func (c *stubConn) SendMedia(ctx context.Context, number string, media gateway.Media) error {
	return nil
}

func (c *stubConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

type stubGateway struct {
	qrCode string
}

func (g *stubGateway) Dial(ctx context.Context, clientID string, handler gateway.EventHandler) (gateway.Connection, error) {
	return &stubConn{handler: handler, qrCode: g.qrCode}, nil
}

func newTestRouter(t *testing.T, gw gateway.Gateway) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServerPort:      "0",
		ClientsFilePath: filepath.Join(t.TempDir(), "clients.json"),
		QRWaitTimeout:   2 * time.Second,
		QRPollInterval:  10 * time.Millisecond,
		MessagePrefix:   "pergunta:",
	}

	store := client.NewStore(cfg.ClientsFilePath, zerolog.Nop())
	dispatcher := callback.NewDispatcher(zerolog.Nop())
	manager := client.NewManager(gw, store, dispatcher, cfg.MessagePrefix, cfg.QRPollInterval, zerolog.Nop())

	application := app.NewApp(cfg, zerolog.Nop(), manager)
	h := NewHandlers(application)

	r := gin.New()
	r.GET("/register", h.RegisterHandler)
	r.GET("/clients", h.ClientsHandler)
	r.GET("/getQRCode/:uuid", h.QRCodeHandler)
	r.DELETE("/disconnect/:uuid", h.DisconnectHandler)
	r.POST("/addCallbackUrl", h.AddCallbackURLHandler)

	return r, application
}

func doRequest(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterReturnsClientIDAndQRCode(t *testing.T) {
	r, _ := newTestRouter(t, &stubGateway{qrCode: "pairing-code"})

	w := doRequest(r, http.MethodGet, "/register", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.ClientID)
	assert.Contains(t, resp.QRCode, "data:image/png;base64,")
}

func TestRegisterTimesOutWithoutQR(t *testing.T) {
	r, application := newTestRouter(t, &stubGateway{})
	application.Config.QRWaitTimeout = 50 * time.Millisecond

	w := doRequest(r, http.MethodGet, "/register", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Erro ao gerar QR Code")
}

func TestClientsListsSessions(t *testing.T) {
	r, application := newTestRouter(t, &stubGateway{qrCode: "pairing-code"})

	w := doRequest(r, http.MethodGet, "/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	id, err := application.Manager.Register("")
	require.NoError(t, err)

	w = doRequest(r, http.MethodGet, "/clients", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []client.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ClientID)
}

func TestQRCodeRoundTrip(t *testing.T) {
	r, application := newTestRouter(t, &stubGateway{qrCode: "pairing-code"})

	id, err := application.Manager.Register("")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = application.Manager.WaitForQR(ctx, id)
	require.NoError(t, err)

	w := doRequest(r, http.MethodGet, "/getQRCode/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "data:image/png;base64,")
}

func TestQRCodeNotFound(t *testing.T) {
	r, _ := newTestRouter(t, &stubGateway{})

	w := doRequest(r, http.MethodGet, "/getQRCode/no-such-id", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "QR Code não encontrado ou cliente já autenticado")
}

func TestDisconnectFlow(t *testing.T) {
	r, application := newTestRouter(t, &stubGateway{qrCode: "pairing-code"})

	id, err := application.Manager.Register("")
	require.NoError(t, err)

	w := doRequest(r, http.MethodDelete, "/disconnect/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cliente "+id+" desconectado com sucesso")

	// QR lookups after disconnect are 404
	w = doRequest(r, http.MethodGet, "/getQRCode/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDisconnectUnknownClient(t *testing.T) {
	r, _ := newTestRouter(t, &stubGateway{})

	w := doRequest(r, http.MethodDelete, "/disconnect/no-such-id", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Cliente não encontrado")
}

func TestAddCallbackURLValidation(t *testing.T) {
	r, _ := newTestRouter(t, &stubGateway{})

	w := doRequest(r, http.MethodPost, "/addCallbackUrl", []byte(`{"clientId":"abc"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Missing parameters")

	w = doRequest(r, http.MethodPost, "/addCallbackUrl", []byte(`{"clientId":123,"callbackURL":true}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must be strings")
}

func TestAddCallbackURLUnknownClient(t *testing.T) {
	r, _ := newTestRouter(t, &stubGateway{})

	body := []byte(`{"clientId":"no-such-id","callbackURL":"http://example.com/hook"}`)
	w := doRequest(r, http.MethodPost, "/addCallbackUrl", body)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddCallbackURLSuccess(t *testing.T) {
	r, application := newTestRouter(t, &stubGateway{})

	id, err := application.Manager.Register("")
	require.NoError(t, err)

	body := []byte(`{"clientId":"` + id + `","callbackURL":"http://example.com/hook"}`)
	w := doRequest(r, http.MethodPost, "/addCallbackUrl", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Callback URL added successfully")
}
