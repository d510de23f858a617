package media

// SendMediaRequest represents a request to send media
type SendMediaRequest struct {
	ClientID  string `json:"clientId"`
	Numero    string `json:"numero"`
	MediaData string `json:"mediaData"`
	MediaType string `json:"mediaType"` // "base64" or "byteArray"
	MediaURL  string `json:"mediaUrl"`
	FileType  string `json:"fileType"` // MIME type of the payload
	Caption   string `json:"caption"`
}
