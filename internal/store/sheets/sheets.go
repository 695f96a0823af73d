// Package sheets stores budget keys in a two-column Google Sheets tab:
// column A holds the key, column B the value.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/store"
)

var (
	_ store.Store  = (*Client)(nil)
	_ store.Dumper = (*Client)(nil)
	_ store.Pinger = (*Client)(nil)
)

// Config locates the spreadsheet and the service account credentials.
type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	// OAuthClientFile and OAuthTokenFile authenticate as a user instead,
	// when no service account is given.
	OAuthClientFile string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client authenticated with a service account, or
// with a saved OAuth token when only OAuthClientFile is set.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Budget"
	}

	if len(opts) == 0 {
		var err error
		if opts, err = clientOptions(ctx, cfg); err != nil {
			return nil, err
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets store ready", "sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: sheetName}, nil
}

func clientOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	serviceAccount := strings.TrimSpace(cfg.CredentialsJSON) != "" || strings.TrimSpace(cfg.CredentialsFile) != ""
	if !serviceAccount && strings.TrimSpace(cfg.OAuthClientFile) != "" {
		client, err := oauthHTTPClient(ctx, cfg.OAuthClientFile, cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithHTTPClient(client)}, nil
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

func (c *Client) pairsRange() string {
	return fmt.Sprintf("%s!A:B", c.sheetName)
}

func (c *Client) readPairs(ctx context.Context) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.pairsRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.pairsRange(), err)
	}
	return resp.Values, nil
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	rows, err := c.readPairs(ctx)
	if err != nil {
		return "", false, err
	}
	i := findKeyRow(rows, key)
	if i < 0 {
		return "", false, nil
	}
	return cell(rows[i], 1), true, nil
}

// Set updates the row holding key, or appends a new one.
func (c *Client) Set(ctx context.Context, key, value string) error {
	rows, err := c.readPairs(ctx)
	if err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{{key, value}}}

	if i := findKeyRow(rows, key); i >= 0 {
		rng := fmt.Sprintf("%s!A%d:B%d", c.sheetName, i+1, i+1)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.pairsRange(), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

func (c *Client) ClearAll(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.pairsRange(), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", c.pairsRange(), err)
	}
	return nil
}

func (c *Client) All(ctx context.Context) (map[string]string, error) {
	rows, err := c.readPairs(ctx)
	if err != nil {
		return nil, err
	}
	return toPairs(rows), nil
}

// Ping reads the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}

// findKeyRow returns the zero-based index of the first row whose column A
// equals key, or -1.
func findKeyRow(rows [][]any, key string) int {
	for i, row := range rows {
		if cell(row, 0) == key {
			return i
		}
	}
	return -1
}

// toPairs converts rows to a map. Rows with an empty key are skipped and
// a later duplicate wins.
// toPairs keeps the first row of a duplicated key, as Get does.
func toPairs(rows [][]any) map[string]string {
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		k := cell(row, 0)
		if _, seen := out[k]; k == "" || seen {
			continue
		}
		out[k] = cell(row, 1)
	}
	return out
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
