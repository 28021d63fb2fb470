// Package imagedata converts between raw image bytes and the base64 data URLs
// exchanged with clients and stored on photo records.
package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrEmpty    = errors.New("image data is empty")
	ErrNotImage = errors.New("data is not a supported image")
)

const defaultMIME = "image/png"

type Image struct {
	MIMEType string
	Data     []byte
}

// Parse decodes a data URL. A bare base64 payload without the data: prefix is
// accepted and treated as PNG.
func Parse(raw string) (Image, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Image{}, ErrEmpty
	}

	mime := defaultMIME
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		header, body, ok := strings.Cut(raw, ",")
		if !ok {
			return Image{}, fmt.Errorf("malformed data url: missing payload")
		}
		header = strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(header, ";base64") {
			return Image{}, fmt.Errorf("malformed data url: expected base64 encoding")
		}
		if m := strings.TrimSuffix(header, ";base64"); m != "" {
			mime = m
		}
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode base64 image: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmpty
	}
	return Image{MIMEType: mime, Data: data}, nil
}

// Encode renders image bytes as a data URL. An empty MIME type is sniffed from the data.
func Encode(mime string, data []byte) string {
	if mime == "" {
		if detected, err := ContentType("", data); err == nil {
			mime = detected
		} else {
			mime = defaultMIME
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (i Image) DataURL() string {
	return Encode(i.MIMEType, i.Data)
}

// ContentType normalizes a declared content type, falling back to sniffing the bytes
// when the header is missing or generic.
func ContentType(headerCT string, data []byte) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(headerCT))
	if idx := strings.Index(ct, ";"); idx > 0 {
		ct = ct[:idx]
	}
	if ct == "" || ct == "application/octet-stream" || !strings.HasPrefix(ct, "image/") {
		if len(data) > 0 {
			ct = http.DetectContentType(data)
			if idx := strings.Index(ct, ";"); idx > 0 {
				ct = ct[:idx]
			}
		}
	}

	switch ct {
	case "image/jpeg", "image/jpg":
		return "image/jpeg", nil
	case "image/png":
		return "image/png", nil
	case "image/webp":
		return "image/webp", nil
	default:
		return "", ErrNotImage
	}
}
