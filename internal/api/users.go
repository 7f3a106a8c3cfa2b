package api

import (
	"context"
	"net/http"
	"net/url"

	"abricot/internal/model"
)

func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	var out []model.User
	path := "/users/search?" + url.Values{"query": {query}}.Encode()
	if err := c.do(ctx, "search_users", http.MethodGet, path, nil, "users", &out); err != nil {
		return nil, err
	}
	return out, nil
}
