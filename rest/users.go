package rest

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
)

// userResponse accepts user fields at the top level or nested under userData.
type userResponse struct {
	storefrontx.User
	UserData *storefrontx.User `json:"userData"`
}

func (r userResponse) user(fallback storefrontx.User) (storefrontx.User, error) {
	u := r.User
	if r.UserData != nil {
		u = *r.UserData
	}
	if u.Token == "" {
		return storefrontx.User{}, errors.WithSecondaryError(storefrontx.ErrDecode,
			errors.New("response carries no token"))
	}
	if u.Firstname == "" {
		u.Firstname = fallback.Firstname
	}
	if u.Lastname == "" {
		u.Lastname = fallback.Lastname
	}
	if u.Mail == "" {
		u.Mail = fallback.Mail
	}
	return u, nil
}

// SignIn exchanges credentials for a session token.
func (c *Client) SignIn(ctx context.Context, creds storefrontx.Credentials) (storefrontx.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, "users.signin", "/users/signin", creds, &resp); err != nil {
		return storefrontx.User{}, err
	}
	return resp.user(storefrontx.User{Mail: creds.Mail})
}

// SignUp registers a new customer and returns its session.
func (c *Client) SignUp(ctx context.Context, reg storefrontx.Registration) (storefrontx.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodPost, "users.signup", "/users/signup", reg, &resp); err != nil {
		return storefrontx.User{}, err
	}
	return resp.user(storefrontx.User{
		Firstname: reg.Firstname,
		Lastname:  reg.Lastname,
		Mail:      reg.Mail,
	})
}
