package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
)

// Methods related to people (cast and crew)

// SearchPeople searches people by name.
func (c *Client) SearchPeople(ctx context.Context, name string) (*PersonSearchResult, error) {
	resp, err := c.Call(ctx, MethodPersonSearch, PathArg(name))
	if err != nil {
		return nil, err
	}
	var result PersonSearchResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPerson fetches the record of one person.
func (c *Client) GetPerson(ctx context.Context, id int) (*Person, error) {
	return c.person(ctx, MethodPersonGetInfo, PathArg(strconv.Itoa(id)))
}

// GetLatestPerson returns the most recently added person.
func (c *Client) GetLatestPerson(ctx context.Context) (*Person, error) {
	return c.person(ctx, MethodPersonGetLatest, nil)
}

// GetPersonVersion reports the revision of a person record.
func (c *Client) GetPersonVersion(ctx context.Context, id int) (*VersionInfo, error) {
	return c.version(ctx, MethodPersonGetVersion, id)
}

func (c *Client) person(ctx context.Context, method string, args interface{}) (*Person, error) {
	resp, err := c.Call(ctx, method, args)
	if err != nil {
		return nil, err
	}
	raw, err := resp.First()
	if err != nil {
		return nil, err
	}
	var p Person
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: decoding person: %v", coreErrors.ErrMalformedPayload, err)
	}
	return &p, nil
}
