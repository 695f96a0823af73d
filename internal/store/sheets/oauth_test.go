package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const clientJSON = `{"installed":{"client_id":"id.apps","client_secret":"secret",
"redirect_uris":["http://localhost:8085/callback"],
"auth_uri":"https://accounts.google.com/o/oauth2/auth",
"token_uri":"https://oauth2.googleapis.com/token"}}`

func TestOAuthConfigAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(path, []byte(clientJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := OAuthConfig(path)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.ClientID != "id.apps" || cfg.RedirectURL != "http://localhost:8085/callback" {
		t.Errorf("config = %+v", cfg)
	}
	u := AuthCodeURL(cfg, "st")
	for _, want := range []string{"access_type=offline", "client_id=id.apps", "state=st"} {
		if !strings.Contains(u, want) {
			t.Errorf("url %q missing %q", u, want)
		}
	}

	if _, err := OAuthConfig(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("missing client file accepted")
	}
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := SaveToken(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}
	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RefreshToken != "r" || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("token = %+v", got)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadToken(empty); err == nil {
		t.Error("empty token accepted")
	}
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		status   int
	}{
		{"code", "?state=s1&code=abc", "abc", http.StatusOK},
		{"denied", "?state=s1&error=access_denied", "", http.StatusBadRequest},
		{"state mismatch", "?state=other&code=abc", "", http.StatusBadRequest},
		{"no code", "?state=s1", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, results := CallbackHandler("s1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			res := <-results
			if res.Code != tt.wantCode || (res.Err == nil) != (tt.wantCode != "") {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestNewWithOAuthNeedsToken(t *testing.T) {
	dir := t.TempDir()
	client := filepath.Join(dir, "client.json")
	if err := os.WriteFile(client, []byte(clientJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet",
		OAuthClientFile: client,
		OAuthTokenFile:  filepath.Join(dir, "token.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "token file") {
		t.Fatalf("err = %v", err)
	}
}
