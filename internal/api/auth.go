package api

import (
	"context"
	"net/http"

	"abricot/internal/model"
)

func (c *Client) Login(ctx context.Context, payload model.LoginPayload) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", payload, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, payload model.RegisterPayload) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", payload, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, "get_profile", http.MethodGet, "/auth/profile", nil, "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, "update_profile", http.MethodPut, "/auth/profile", update, "user", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePassword(ctx context.Context, update model.PasswordUpdate) error {
	return c.do(ctx, "update_password", http.MethodPut, "/auth/password", update, "", nil)
}
