package session

// AddCallbackURLRequest represents a request to set a session's callback URL
type AddCallbackURLRequest struct {
	ClientID    string `json:"clientId"`
	CallbackURL string `json:"callbackURL"`
}

// RegisterResponse is returned once a fresh session produced its QR code
type RegisterResponse struct {
	Success  bool   `json:"success"`
	ClientID string `json:"clientId"`
	QRCode   string `json:"qrCode"`
}
