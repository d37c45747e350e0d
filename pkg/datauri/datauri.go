// Package datauri encodes and decodes base64 data URIs of the form
// data:<mime>;base64,<payload>.
package datauri

import (
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrMalformed   = errors.New("datauri: expected data:<mime>;base64,<payload>")
	ErrEmptyData   = errors.New("datauri: payload is empty")
	ErrNotBase64   = errors.New("datauri: payload is not valid base64")
	ErrUnsupported = errors.New("datauri: only base64 payloads are supported")
)

// Decode splits a data URI into its MIME type and decoded payload.
func Decode(uri string) (mimeType string, data []byte, err error) {
	uri = strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrMalformed
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrMalformed
	}

	params := strings.Split(meta, ";")
	mimeType = strings.ToLower(strings.TrimSpace(params[0]))
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return "", nil, ErrMalformed
	}

	base64Encoded := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			base64Encoded = true
		}
	}
	if !base64Encoded {
		return "", nil, ErrUnsupported
	}

	if payload == "" {
		return "", nil, ErrEmptyData
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some encoders drop padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return "", nil, ErrNotBase64
		}
	}
	if len(data) == 0 {
		return "", nil, ErrEmptyData
	}

	return mimeType, data, nil
}

// Encode builds a base64 data URI.
func Encode(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
