package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a successful login: the session token the backend set as a
// cookie, plus whatever data the envelope carried.
type LoginResult struct {
	Token string
	Data  json.RawMessage
}

var tokenCookiePattern = regexp.MustCompile(`(?:^|[;,]\s*)token=([^;]+)`)

// Login posts the credentials to the auth endpoint and extracts the session
// token from the response's Set-Cookie header. When no cookie is present a
// "token" field in the envelope data is accepted instead.
func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	r, err := c.do(ctx, http.MethodPost, PathLogin, "", creds)
	if err != nil {
		return LoginResult{}, err
	}

	token := TokenFromSetCookie(r.header.Values("Set-Cookie"))
	if token == "" {
		token = tokenFromData(r.data)
	}
	if token == "" {
		return LoginResult{}, &ShapeError{Endpoint: PathLogin, Reason: "no session token in response"}
	}
	return LoginResult{Token: token, Data: r.data}, nil
}

// TokenFromSetCookie finds the value of the "token" cookie among raw
// Set-Cookie header values.
func TokenFromSetCookie(values []string) string {
	for _, v := range values {
		if m := tokenCookiePattern.FindStringSubmatch(v); m != nil {
			return m[1]
		}
	}
	return ""
}

func tokenFromData(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var v struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v.Token
}
