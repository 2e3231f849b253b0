package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saldo/internal/core"
	"saldo/internal/sheets"
)

const lastColumn = "H"

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	ServiceAccountJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ sheets.TransactionMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	if strings.TrimSpace(sheet) == "" {
		sheet = "Transactions"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

func credentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendTransaction appends t unless a row with the same id already exists,
// so redelivered messages do not duplicate rows.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(t.ID) == "" {
		return "", errors.New("transaction id is required")
	}
	if row, err := c.findRow(ctx, t.ID); err == nil {
		slog.InfoContext(ctx, "Transaction already mirrored", "transaction_id", t.ID, "row", row)
		return c.rowRange(row), nil
	} else if !errors.Is(err, sheets.ErrRowNotFound) {
		return "", err
	}

	vr := &gsheet.ValueRange{Values: [][]any{sheets.Row(t)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, a1(c.sheet, "A:"+lastColumn), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return a1(c.sheet, "A:"+lastColumn), nil
}

// DeleteTransaction clears the row whose first column equals id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rowRange(row), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", row, c.sheet, err)
	}
	return nil
}

func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	rng := a1(c.sheet, "A:A")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	row := rowIndex(resp.Values, id)
	if row == 0 {
		return 0, fmt.Errorf("%w: %s", sheets.ErrRowNotFound, id)
	}
	return row, nil
}

func (c *Client) rowRange(row int) string {
	return a1(c.sheet, fmt.Sprintf("A%d:%s%d", row, lastColumn, row))
}

// rowIndex returns the 1-based row whose first cell equals id, or 0.
func rowIndex(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// a1 builds a quoted A1 range, e.g. 'My Sheet'!A1:H1.
func a1(sheet, rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), rng)
}
