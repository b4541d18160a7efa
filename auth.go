package tmdb

import (
	"context"
	"fmt"
	"net/url"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
)

// Methods related to authentication (GetToken, GetSession)

// GetToken requests a fresh authentication token. The user approves it on the website
// before it can be exchanged for a session.
func (c *Client) GetToken(ctx context.Context) (*AuthToken, error) {
	resp, err := c.Call(ctx, MethodAuthGetToken, nil)
	if err != nil {
		return nil, err
	}
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	var token AuthToken
	if err := decodeInto(raw, &token, resp.Method); err != nil {
		return nil, err
	}
	if token.Token == "" {
		return nil, fmt.Errorf("%w: %s returned no token", coreErrors.ErrMalformedPayload, resp.Method)
	}
	return &token, nil
}

// GetSession exchanges an approved token for a session key. The key is stored in the
// client for subsequent write calls.
func (c *Client) GetSession(ctx context.Context, token string) (*Session, error) {
	resp, err := c.Call(ctx, MethodAuthGetSession, url.Values{"token": {token}})
	if err != nil {
		// Clear any potentially stale session if the exchange fails
		c.SetSessionKey("")
		return nil, err
	}
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	var session Session
	if err := decodeInto(raw, &session, resp.Method); err != nil {
		return nil, err
	}
	if session.SessionKey == "" {
		return nil, fmt.Errorf("%w: %s returned no session key", coreErrors.ErrMalformedPayload, resp.Method)
	}
	c.SetSessionKey(session.SessionKey)
	return &session, nil
}
