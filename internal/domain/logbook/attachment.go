package logbook

import (
	"encoding/base64"
	"strings"

	"jiskefet/internal/errs"
)

// AttachmentPayloadMarker prefixes the public form of an attachment payload.
const AttachmentPayloadMarker = "base64;"

// EncodeAttachmentPayload renders stored bytes for a response body.
func EncodeAttachmentPayload(data []byte) string {
	return AttachmentPayloadMarker + base64.StdEncoding.EncodeToString(data)
}

// DecodeAttachmentPayload parses a request payload. The marker is optional on input
// and is never kept in the returned bytes.
func DecodeAttachmentPayload(encoded string) ([]byte, error) {
	trimmed := strings.TrimSpace(encoded)
	trimmed = strings.TrimPrefix(trimmed, AttachmentPayloadMarker)
	if trimmed == "" {
		return nil, ErrEmptyAttachment
	}

	data, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, errs.Validationf("attachment payload is not base64: %v", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyAttachment
	}
	return data, nil
}
