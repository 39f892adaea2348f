package esewa

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	uidAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	uidRandomLen = 9
)

// GenerateUniqueID returns a transaction identifier of the form
// id-<unix-seconds>-<9 random lowercase alphanumerics>. The identifier is
// safe to embed in URLs and form fields without escaping and is unique per
// invocation with overwhelming probability. The random component comes from
// crypto/rand; an unavailable randomness source is a fatal configuration
// error and panics rather than degrading to a weaker source.
func GenerateUniqueID() string {
	buf := make([]byte, uidRandomLen)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("esewa: randomness source unavailable: %v", err))
	}
	for i, b := range buf {
		buf[i] = uidAlphabet[int(b)%len(uidAlphabet)]
	}
	return fmt.Sprintf("id-%d-%s", time.Now().Unix(), buf)
}
