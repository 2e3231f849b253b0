//go:build integration

package google

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
	"saldo/internal/sheets"
)

// Run with: go test -tags=integration ./internal/sheets/google
func TestIntegration_MirrorRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
	}
	if cfg.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if cfg.ServiceAccountFile == "" && cfg.ServiceAccountJSON == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	tx := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      core.Cents(-1234),
		Currency:    "EUR",
		Category:    "Integration",
		Description: "integration test row",
		Source:      core.SourceManual,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	ref, err := client.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	t.Logf("Mirrored transaction at %s", ref)

	again, err := client.AppendTransaction(ctx, tx)
	if err != nil || again == "" {
		t.Fatalf("second append: ref=%q err=%v", again, err)
	}

	if err := client.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := client.DeleteTransaction(ctx, tx.ID); !errors.Is(err, sheets.ErrRowNotFound) {
		t.Errorf("expected ErrRowNotFound after delete, got %v", err)
	}
}
