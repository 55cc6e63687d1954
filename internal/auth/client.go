package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FashionHub/pkg/apperr"
	"FashionHub/pkg/kit"
)

// Identity is who a session is signed in as.
type Identity struct {
	UserID      string
	Email       string
	AccessToken string
}

// Client talks to the account backend and the profile document store.
// Every non-2xx answer becomes an *apperr.Error carrying the backend code;
// transport failures become apperr.Network.
type Client struct {
	BaseURL      string
	ServiceToken string
	Client       *http.Client
}

func NewClient(baseURL, serviceToken string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL:      baseURL,
		ServiceToken: serviceToken,
		Client:       &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (Identity, error) {
	var out IdentityResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return Identity{}, err
	}
	return Identity{UserID: out.UserID, Email: out.Email, AccessToken: out.AccessToken}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	var out IdentityResponse
	body := loginReq{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return Identity{}, err
	}
	return Identity{UserID: out.UserID, Email: out.Email, AccessToken: out.AccessToken}, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) EmailExists(ctx context.Context, email string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	path := "/auth/exists?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// WhoAmI resolves a stored access token back into an identity.
func (c *Client) WhoAmI(ctx context.Context, token string) (Identity, error) {
	var out IdentityResponse
	if err := c.do(ctx, http.MethodGet, "/auth/whoami", token, nil, &out); err != nil {
		return Identity{}, err
	}
	return Identity{UserID: out.UserID, Email: out.Email, AccessToken: token}, nil
}

// GetProfile reports ok=false when the document does not exist.
func (c *Client) GetProfile(ctx context.Context, uid string) (Profile, bool, error) {
	var p Profile
	err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(uid), "", nil, &p)
	if apperr.HasCode(err, apperr.CodeProfileNotFound) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, err
	}
	return p, true, nil
}

func (c *Client) UpdateProfile(ctx context.Context, uid string, patch ProfilePatch) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodPatch, "/profiles/"+url.PathEscape(uid), "", patch, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.ServiceToken != "" {
		req.Header.Set(kit.ServiceTokenHeader, c.ServiceToken)
	}
	if ip := kit.ClientIPFrom(ctx); ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
		req.Header.Set("X-Real-IP", ip)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var env kit.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env)

	code := env.Code
	if code == "" {
		code = codeForStatus(resp.StatusCode)
	}
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return apperr.New(resp.StatusCode, code, msg)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return apperr.CodeInvalidToken
	case http.StatusTooManyRequests:
		return apperr.CodeTooManyRequests
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperr.CodeNetwork
	default:
		return apperr.CodeInternal
	}
}
