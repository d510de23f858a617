package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zapgo/whatsapp-api/internal/gateway"
)

// ErrInvalidMedia indicates the request's media payload could not be
// normalized: malformed base64, an unusable URL or an unknown mediaType.
var ErrInvalidMedia = errors.New("invalid media format provided")

// Service normalizes the three accepted media sources (inline base64, a
// remote URL to fetch, a base64-encoded byte buffer) into the gateway's
// media representation.
type Service struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// NewService creates a new media service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log.With().Str("component", "media").Logger(),
	}
}

// Normalize turns a send request into gateway media. It never contacts the
// messaging gateway; every failure here is a client-facing validation
// error.
func (s *Service) Normalize(req SendMediaRequest) (gateway.Media, error) {
	var (
		data     []byte
		mimeType string
		fileName string
	)

	switch {
	case req.MediaData != "" && (req.MediaType == "base64" || req.MediaType == "byteArray"):
		decoded, err := base64.StdEncoding.DecodeString(req.MediaData)
		if err != nil {
			return gateway.Media{}, fmt.Errorf("%w: malformed base64 payload", ErrInvalidMedia)
		}
		data = decoded
		mimeType = req.FileType

	case req.MediaURL != "":
		fetched, fetchedMime, fetchedName, err := s.fetch(req.MediaURL)
		if err != nil {
			return gateway.Media{}, err
		}
		data = fetched
		mimeType = fetchedMime
		if req.FileType != "" {
			mimeType = req.FileType
		}
		fileName = fetchedName

	default:
		return gateway.Media{}, ErrInvalidMedia
	}

	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return gateway.Media{
		Data:     data,
		MimeType: mimeType,
		FileName: fileName,
		Caption:  req.Caption,
		Kind:     kindFromMime(mimeType),
	}, nil
}

// fetch downloads media from a remote URL.
func (s *Service) fetch(mediaURL string) ([]byte, string, string, error) {
	resp, err := s.httpClient.Get(mediaURL)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: failed to download media from URL: %v", ErrInvalidMedia, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("%w: failed to download media, status: %s", ErrInvalidMedia, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read media from URL: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), fileNameFromURL(mediaURL), nil
}

// fileNameFromURL extracts the last path segment when it looks like a file.
func fileNameFromURL(mediaURL string) string {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(parsed.Path, "/")
	if len(parts) == 0 {
		return ""
	}
	name := parts[len(parts)-1]
	if name == "" || strings.HasSuffix(name, "/") {
		return ""
	}
	return name
}

func kindFromMime(mimeType string) gateway.MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return gateway.MediaKindImage
	case strings.HasPrefix(mimeType, "video/"):
		return gateway.MediaKindVideo
	default:
		return gateway.MediaKindDocument
	}
}
