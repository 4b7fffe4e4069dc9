package api

import (
	"context"
	"net/http"

	"bookstore-cli/model"
)

// Register creates an account.
func (c *Client) Register(ctx context.Context, r model.Registration) (model.User, error) {
	rec, err := c.getRecord(ctx, http.MethodPost, "/auth/register", nil, r)
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromRecord(rec), nil
}

// Login exchanges credentials for a token. account is a username or email.
func (c *Client) Login(ctx context.Context, account, password string) (model.LoginResult, error) {
	body := struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}{account, password}
	rec, err := c.getRecord(ctx, http.MethodPost, "/auth/login", nil, body)
	if err != nil {
		return model.LoginResult{}, err
	}
	res := model.LoginResultFromRecord(rec)
	if res.Token == "" {
		return model.LoginResult{}, &Error{Kind: KindDecode, Message: "login response carried no token"}
	}
	return res, nil
}

// Me fetches the signed-in user.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	rec, err := c.getRecord(ctx, http.MethodGet, "/users/me", nil, nil)
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromRecord(rec), nil
}

// UpdateMe changes the signed-in user's profile.
func (c *Client) UpdateMe(ctx context.Context, u model.ProfileUpdate) (model.User, error) {
	rec, err := c.getRecord(ctx, http.MethodPut, "/users/me", nil, u)
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromRecord(rec), nil
}
