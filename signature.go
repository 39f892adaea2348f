package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Field is one name=value pair included in a signing string.
type Field struct {
	Name  string
	Value string
}

// SigningString joins fields as name=value pairs with commas, in the exact
// order supplied. The gateway fixes the order per request type; permuting it
// yields a different signature without any error on the signing side, so
// callers must pass fields in the documented order.
func SigningString(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+"="+f.Value)
	}
	return strings.Join(parts, ",")
}

// Sign computes the HMAC-SHA256 digest of the signing string built from
// fields, keyed by secret, and returns it base64-encoded. This is the
// encoding the ePay form contract expects in the signature field.
func Sign(secret string, fields []Field) (string, error) {
	digest, err := sign(secret, fields)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(digest), nil
}

// SignHex is Sign with a hex-encoded digest, for merchant tooling that
// compares signatures out of band.
func SignHex(secret string, fields []Field) (string, error) {
	digest, err := sign(secret, fields)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

func sign(secret string, fields []Field) ([]byte, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, &ValidationError{Field: "secret", Reason: "secret is required"}
	}
	if len(fields) == 0 {
		return nil, &ValidationError{Field: "fields", Reason: "at least one field is required"}
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SigningString(fields)))
	return mac.Sum(nil), nil
}
