package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfig reads an OAuth client (the JSON downloaded from the Google
// console) and scopes it to spreadsheets.
func OAuthConfig(clientFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, errors.New("token file holds no token")
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// AuthCodeURL returns the consent URL for cfg, asking for a refresh token.
func AuthCodeURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// CallbackHandler receives the OAuth redirect and sends the code, or the
// error Google reported, on the returned channel.
func CallbackHandler(state string) (http.Handler, <-chan CallbackResult) {
	results := make(chan CallbackResult, 1)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res CallbackResult
		switch {
		case q.Get("error") != "":
			res.Err = fmt.Errorf("oauth error: %s", q.Get("error"))
			http.Error(w, res.Err.Error(), http.StatusBadRequest)
		case q.Get("state") != state:
			res.Err = errors.New("oauth state mismatch")
			http.Error(w, res.Err.Error(), http.StatusBadRequest)
		case q.Get("code") == "":
			res.Err = errors.New("oauth callback without code")
			http.Error(w, res.Err.Error(), http.StatusBadRequest)
		default:
			res.Code = q.Get("code")
			fmt.Fprintln(w, "Autorisation reçue, vous pouvez fermer cette fenêtre.")
		}
		select {
		case results <- res:
		default:
		}
	})
	return h, results
}

// CallbackResult is what the OAuth redirect delivered.
type CallbackResult struct {
	Code string
	Err  error
}

// Exchange trades code for a token, bounded by timeout.
func Exchange(ctx context.Context, cfg *oauth2.Config, code string, timeout time.Duration) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	return tok, nil
}

func oauthHTTPClient(ctx context.Context, clientFile, tokenFile string) (*http.Client, error) {
	cfg, err := OAuthConfig(clientFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return cfg.Client(ctx, tok), nil
}
