package messaging

// SendMessageRequest represents a request to send a text message
type SendMessageRequest struct {
	Numero   string `json:"numero"`
	Mensagem string `json:"mensagem"`
	ClientID string `json:"clientId"`
}
