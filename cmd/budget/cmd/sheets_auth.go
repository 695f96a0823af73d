package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/store/sheets"
)

var (
	flagOAuthPort    string
	flagOAuthTimeout time.Duration
)

var sheetsAuthCmd = &cobra.Command{
	Use:   "sheets-auth",
	Short: "Authorize the sheets backend with a Google account",
	Long: `Run the OAuth consent flow for GOOGLE_OAUTH_CLIENT_FILE and save the
token to GOOGLE_OAUTH_TOKEN_FILE (default token.json).

The OAuth client must allow http://localhost:<port>/callback as a
redirect URI.`,
	Args: cobra.NoArgs,
	RunE: runSheetsAuth,
}

func init() {
	sheetsAuthCmd.Flags().StringVar(&flagOAuthPort, "port", "8085", "local port for the OAuth redirect")
	sheetsAuthCmd.Flags().DurationVar(&flagOAuthTimeout, "timeout", 5*time.Minute, "how long to wait for the consent")
	rootCmd.AddCommand(sheetsAuthCmd)
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := cli.LoadConfig(nil, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.GoogleOAuthClientFile == "" {
		return errors.New("GOOGLE_OAUTH_CLIENT_FILE is not set")
	}
	oauthCfg, err := sheets.OAuthConfig(cfg.GoogleOAuthClientFile)
	if err != nil {
		return err
	}
	oauthCfg.RedirectURL = "http://localhost:" + flagOAuthPort + "/callback"

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return err
	}
	state := hex.EncodeToString(stateBytes)

	handler, results := sheets.CallbackHandler(state)
	mux := http.NewServeMux()
	mux.Handle("GET /callback", handler)
	srv := &http.Server{Addr: "localhost:" + flagOAuthPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("OAuth callback server failed", log.FieldError, err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Ouvrez cette adresse pour autoriser l'accès :\n%s\n", sheets.AuthCodeURL(oauthCfg, state))

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	select {
	case res := <-results:
		if res.Err != nil {
			return res.Err
		}
		tok, err := sheets.Exchange(ctx, oauthCfg, res.Code, 30*time.Second)
		if err != nil {
			return err
		}
		if err := sheets.SaveToken(cfg.GoogleOAuthTokenFile, tok); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Jeton enregistré dans %s\n", cfg.GoogleOAuthTokenFile)
		return nil
	case <-time.After(flagOAuthTimeout):
		return errors.New("authorization timed out")
	case <-ctx.Done():
		return errors.New("interrupted")
	}
}
