package tmdb

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/angelospk/tmdb-go/internal/constants"
	"github.com/angelospk/tmdb-go/internal/httpclient"
	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/google/go-querystring/query"
	log "github.com/sirupsen/logrus"
)

// PathArg is a scalar argument sent as the last path segment of a read call.
type PathArg = httpclient.PathArg

// Response is the normalized result of a call.
type Response struct {
	Method string
	// Body is always a JSON object. A top-level array from the API is wrapped as {"results": [...]}.
	Body   json.RawMessage
	Status int
	Cached bool
}

// Decode unmarshals the whole normalized body into target.
func (r *Response) Decode(target interface{}) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", coreErrors.ErrMalformedPayload, r.Method, err)
	}
	return nil
}

// Results returns the elements of the "results" list, or nil when the body has none.
func (r *Response) Results() ([]json.RawMessage, error) {
	var wrapper struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(r.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", coreErrors.ErrMalformedPayload, r.Method, err)
	}
	return wrapper.Results, nil
}

// First returns the raw first result when the body is a result list, or the body itself
// when it is a single object.
func (r *Response) First() (json.RawMessage, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &probe); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", coreErrors.ErrMalformedPayload, r.Method, err)
	}
	list, ok := probe["results"]
	if !ok {
		return r.Body, nil
	}
	var results []json.RawMessage
	if err := json.Unmarshal(list, &results); err != nil {
		return nil, fmt.Errorf("%w: decoding %s results: %v", coreErrors.ErrMalformedPayload, r.Method, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s: %w", r.Method, coreErrors.ErrNotFound)
	}
	return results[0], nil
}

// Call invokes a remote method by name. Read calls are served from the cache when a live
// entry exists for the same method and arguments. Only successful responses are cached.
func (c *Client) Call(ctx context.Context, method string, args interface{}) (*Response, error) {
	info, ok := methodTable[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", coreErrors.ErrUnknownMethod, method)
	}
	if c.http.APIKey() == "" {
		return nil, coreErrors.ErrMissingAPIKey
	}
	if info.write {
		return c.callWrite(ctx, method, args)
	}

	key, err := c.cacheKey(method, args)
	if err != nil {
		return nil, err
	}
	logger := c.logger.WithFields(log.Fields{"method": method, "cache_key": key})

	if body, hit, err := c.cache.Get(ctx, key); err != nil {
		logger.WithError(err).Warn("Cache lookup failed, calling the API")
	} else if hit {
		logger.Debug("Cache hit")
		return &Response{Method: method, Body: body, Status: CodeSuccess, Cached: true}, nil
	}

	raw, err := c.http.Get(ctx, method, args)
	if err != nil {
		return nil, callFailure(method, err)
	}
	resp, err := normalize(method, raw)
	if err != nil {
		return nil, err
	}

	ttl := c.config.CacheTTL
	if info.ttl > 0 {
		ttl = info.ttl
	}
	if err := c.cache.Set(ctx, key, resp.Body, ttl); err != nil {
		logger.WithError(err).Warn("Failed to cache response")
	} else {
		logger.WithField("ttl", ttl).Debug("Response cached")
	}
	return resp, nil
}

// callWrite sends a form POST with api_key, session_key and type merged into args.
func (c *Client) callWrite(ctx context.Context, method string, args interface{}) (*Response, error) {
	session := c.GetCurrentSessionKey()
	if session == "" {
		return nil, coreErrors.ErrNoSession
	}

	form := url.Values{}
	switch v := args.(type) {
	case nil:
	case url.Values:
		for k, vals := range v {
			form[k] = append([]string(nil), vals...)
		}
	default:
		values, err := query.Values(args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form parameters: %w", err)
		}
		form = values
	}
	form.Set("api_key", c.http.APIKey())
	form.Set("session_key", session)
	form.Set("type", constants.DefaultFormat)

	raw, err := c.http.PostForm(ctx, method, form)
	if err != nil {
		return nil, callFailure(method, err)
	}
	return normalize(method, raw)
}

// callFailure prefers the status code carried in the body of a non-2xx answer over the
// bare transport failure.
func callFailure(method string, err error) error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		_, perr := normalize(method, []byte(httpErr.Body))
		var statusErr *StatusError
		if errors.As(perr, &statusErr) {
			return statusErr
		}
	}
	return &TransportError{Method: method, Err: err}
}

// cacheKey derives the key from the method, the language and the canonical args.
func (c *Client) cacheKey(method string, args interface{}) (string, error) {
	encoded, err := httpclient.EncodeArgs(args)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(method + "|" + c.http.Language() + "|" + encoded))
	return constants.CacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// normalize turns any accepted payload shape into a single JSON object and checks the
// embedded status code.
func normalize(method string, raw []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s returned an empty body", coreErrors.ErrMalformedPayload, method)
	}

	var body json.RawMessage
	switch trimmed[0] {
	case '{':
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: %s returned invalid JSON", coreErrors.ErrMalformedPayload, method)
		}
		body = trimmed
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %s returned invalid JSON: %v", coreErrors.ErrMalformedPayload, method, err)
		}
		objects := make([]json.RawMessage, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) > 0 && item[0] == '{' {
				objects = append(objects, item)
			}
		}
		// A lone status object is a status report, not a result list.
		if len(objects) == 1 && len(items) == 1 && hasStatus(objects[0]) {
			body = objects[0]
			break
		}
		wrapped, err := json.Marshal(map[string][]json.RawMessage{"results": objects})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", coreErrors.ErrMalformedPayload, err)
		}
		body = wrapped
	default:
		return nil, fmt.Errorf("%w: %s returned a non-object payload", coreErrors.ErrMalformedPayload, method)
	}

	status := CodeSuccess
	var probe struct {
		StatusCode *int `json:"status_code"`
		Code       *int `json:"code"`
	}
	if err := json.Unmarshal(body, &probe); err == nil {
		switch {
		case probe.StatusCode != nil:
			status = *probe.StatusCode
		case probe.Code != nil:
			status = *probe.Code
		}
	}
	if !IsSuccessCode(status) {
		return nil, newStatusError(method, status)
	}
	return &Response{Method: method, Body: body, Status: status}, nil
}

func hasStatus(obj json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(obj, &probe); err != nil {
		return false
	}
	_, a := probe["status_code"]
	_, b := probe["code"]
	return a || b
}
