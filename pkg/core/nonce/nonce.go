// Package nonce issues and checks per-item security tokens for the asynchronous endpoints.
package nonce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
)

// DefaultLifetime is how long a token stays valid.
const DefaultLifetime = 24 * time.Hour

// SideloadAction is the action name tokens for an item's image endpoints are bound to.
func SideloadAction(itemID uint) string {
	return fmt.Sprintf("media_sideload_image-%d", itemID)
}

// Issuer signs action names with a secret.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewIssuer creates an Issuer. A zero lifetime uses DefaultLifetime.
func NewIssuer(secret string, lifetime time.Duration) *Issuer {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Issuer{secret: []byte(secret), lifetime: lifetime, now: time.Now}
}

// SetClock replaces the time source.
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// Create returns a token for action, valid for the issuer's lifetime.
func (i *Issuer) Create(action string) string {
	expires := i.now().Add(i.lifetime).Unix()
	return strconv.FormatInt(expires, 36) + "." + i.sign(action, expires)
}

// Verify checks a token against action. It returns ErrInvalidNonce for tampered,
// foreign or expired tokens.
func (i *Issuer) Verify(action, token string) error {
	exp, sig, ok := strings.Cut(token, ".")
	if !ok {
		return coreErrors.ErrInvalidNonce
	}
	expires, err := strconv.ParseInt(exp, 36, 64)
	if err != nil {
		return coreErrors.ErrInvalidNonce
	}
	if !hmac.Equal([]byte(sig), []byte(i.sign(action, expires))) {
		return coreErrors.ErrInvalidNonce
	}
	if i.now().Unix() > expires {
		return coreErrors.ErrInvalidNonce
	}
	return nil
}

func (i *Issuer) sign(action string, expires int64) string {
	mac := hmac.New(sha256.New, i.secret)
	fmt.Fprintf(mac, "%s|%d", action, expires)
	return hex.EncodeToString(mac.Sum(nil))[:32]
}
