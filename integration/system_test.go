//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

func TestSystem_E2E_Storefront(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	c := newBrowser(t)
	email := fmt.Sprintf("user_%d_%d@example.com", time.Now().Unix(), rand.IntN(100000))

	doJSON(t, c, http.MethodGet, baseURL+"/", nil, nil, http.StatusSeeOther)

	doJSON(t, c, http.MethodPost, baseURL+"/signup", map[string]any{
		"name":          "Test Shopper",
		"email":         email,
		"mobile":        "9876543210",
		"password":      "Secret1!x",
		"date_of_birth": "1990-01-01",
	}, nil, http.StatusCreated)

	var page struct {
		Products []struct {
			ID int `json:"id"`
		} `json:"products"`
		TotalItems int `json:"total_items"`
	}
	doJSON(t, c, http.MethodGet, baseURL+"/", nil, &page, http.StatusOK)
	if len(page.Products) == 0 {
		t.Fatalf("expected non-empty catalog page")
	}
	pid := page.Products[0].ID

	var toggled struct {
		InList bool `json:"in_list"`
	}
	doJSON(t, c, http.MethodPost, fmt.Sprintf("%s/my-lists/favorites/items/%d/toggle", baseURL, pid), nil, &toggled, http.StatusOK)
	if !toggled.InList {
		t.Fatalf("toggle did not add product %d", pid)
	}

	var profile struct {
		Email string `json:"email"`
	}
	doJSON(t, c, http.MethodGet, baseURL+"/profile", nil, &profile, http.StatusOK)
	if profile.Email != email {
		t.Fatalf("profile email=%q want %q", profile.Email, email)
	}

	if os.Getenv("E2E_RESTART_STOREFRONT") == "1" {
		restartService(t, ctx, "storefront")
		waitReady(t, ctx, baseURL+"/readyz")

		var mine struct {
			Favorites struct {
				IDs []string `json:"ids"`
			} `json:"favorites"`
		}
		doJSON(t, c, http.MethodGet, baseURL+"/my-lists", nil, &mine, http.StatusOK)
		if len(mine.Favorites.IDs) != 1 || mine.Favorites.IDs[0] != fmt.Sprint(pid) {
			t.Fatalf("favorites after restart: %#v", mine.Favorites.IDs)
		}
	}

	doJSON(t, c, http.MethodPost, baseURL+"/logout", nil, nil, http.StatusOK)
	doJSON(t, c, http.MethodGet, baseURL+"/my-lists", nil, nil, http.StatusSeeOther)
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == http.StatusOK {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, out any, want int) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s status=%d want=%d body=%s", method, url, resp.StatusCode, want, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s: %v body=%s", url, err, string(raw))
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
