package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MinKeyLength is the smallest accepted HMAC-SHA256 key, in bytes.
const MinKeyLength = 32

// SecretEncoding selects how the configured secret string becomes key bytes.
type SecretEncoding string

const (
	// SecretEncodingAuto decodes standard base64 when possible and otherwise uses the raw bytes.
	SecretEncodingAuto SecretEncoding = "auto"
	// SecretEncodingBase64 requires the secret to be standard base64.
	SecretEncodingBase64 SecretEncoding = "base64"
	// SecretEncodingRaw uses the UTF-8 bytes of the secret unchanged.
	SecretEncodingRaw SecretEncoding = "raw"
)

var (
	ErrSecretMissing         = errors.New("signing secret is empty")
	ErrSecretTooShort        = errors.New("signing secret is shorter than 32 bytes")
	ErrSecretNotBase64       = errors.New("signing secret is not valid base64")
	ErrUnknownSecretEncoding = errors.New("unknown signing secret encoding")
)

// ParseSecretEncoding maps a configuration value onto a SecretEncoding. Empty means auto.
func ParseSecretEncoding(raw string) (SecretEncoding, error) {
	switch enc := SecretEncoding(strings.ToLower(strings.TrimSpace(raw))); enc {
	case "":
		return SecretEncodingAuto, nil
	case SecretEncodingAuto, SecretEncodingBase64, SecretEncodingRaw:
		return enc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSecretEncoding, raw)
	}
}

// LoadSigningKey derives the HMAC key from the configured secret. The boolean reports whether
// the bytes came from base64 decoding, which matters to operators running in auto mode.
func LoadSigningKey(secret string, encoding SecretEncoding) ([]byte, bool, error) {
	if secret == "" {
		return nil, false, ErrSecretMissing
	}

	var (
		key     []byte
		decoded bool
	)
	switch encoding {
	case SecretEncodingAuto, "":
		if b, err := base64.StdEncoding.DecodeString(secret); err == nil {
			key, decoded = b, true
		} else {
			key = []byte(secret)
		}
	case SecretEncodingBase64:
		b, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrSecretNotBase64, err)
		}
		key, decoded = b, true
	case SecretEncodingRaw:
		key = []byte(secret)
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownSecretEncoding, encoding)
	}

	if len(key) < MinKeyLength {
		return nil, false, fmt.Errorf("%w: got %d bytes (generate one with: openssl rand -base64 32)", ErrSecretTooShort, len(key))
	}
	return key, decoded, nil
}
