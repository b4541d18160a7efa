package tmdb

import "context"

// GetGenres lists every movie genre known to the API.
func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	resp, err := c.Call(ctx, MethodGenresGetList, nil)
	if err != nil {
		return nil, err
	}
	var list GenreList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	if list.Genres != nil {
		return list.Genres, nil
	}
	// Older payloads return the genres as a bare array.
	var wrapped struct {
		Results []Genre `json:"results"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, err
	}
	return wrapped.Results, nil
}
