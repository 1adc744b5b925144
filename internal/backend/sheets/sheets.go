// Package sheets persists the transaction ledger in a Google Spreadsheet.
// Each transaction occupies one row; SaveAll rewrites the whole sheet, which
// matches the snapshot-style persistence contract of the ledger.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/ledger"
)

// Column layout of the transactions sheet. Row 1 is a header.
//
//	A: id  B: type  C: amount_cents  D: category  E: description
//	F: date (YYYY-MM-DD)  G: created_at (RFC 3339)
const (
	dataRange   = "A2:G"
	writeRange  = "A1:G"
	headerRow   = 1
	dateLayout  = "2006-01-02"
	columnCount = 7
)

var headerValues = []any{"ID", "Tipo", "Valor (centavos)", "Categoria", "Descrição", "Data", "Criado em"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ledger.Repository = (*Client)(nil)

// NewFromEnv creates a Sheets client authenticated with Service Account
// credentials taken from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transações"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// LoadAll implements ledger.Repository. Malformed rows are skipped rather
// than failing the whole load; a spreadsheet edited by hand is best-effort.
func (c *Client) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!%s", c.sheetName, dataRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []core.Transaction
	for _, row := range resp.Values {
		txn, ok := parseRow(toStrings(row))
		if !ok {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

// SaveAll implements ledger.Repository. The sheet is cleared and rewritten
// in one pass so removed transactions do not leave stale rows behind.
func (c *Client) SaveAll(ctx context.Context, txns []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!%s", c.sheetName, writeRange)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := make([][]any, 0, len(txns)+headerRow)
	values = append(values, headerValues)
	for _, t := range txns {
		values = append(values, []any{
			t.ID,
			string(t.Type),
			strconv.FormatInt(t.Amount.Cents, 10),
			t.Category,
			t.Description,
			t.Date.Format(dateLayout),
			t.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, clearRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", clearRange, err)
	}
	return nil
}

func parseRow(cols []string) (core.Transaction, bool) {
	if len(cols) < columnCount {
		return core.Transaction{}, false
	}
	id := strings.TrimSpace(cols[0])
	typ := core.TransactionType(strings.TrimSpace(cols[1]))
	if id == "" || (typ != core.Income && typ != core.Expense) {
		return core.Transaction{}, false
	}
	cents, err := strconv.ParseInt(strings.TrimSpace(cols[2]), 10, 64)
	if err != nil {
		return core.Transaction{}, false
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(cols[5]))
	if err != nil {
		return core.Transaction{}, false
	}
	createdAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(cols[6]))
	if err != nil {
		createdAt = date
	}
	return core.Transaction{
		ID:          id,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Category:    strings.TrimSpace(cols[3]),
		Description: strings.TrimSpace(cols[4]),
		Date:        core.Date{Time: date},
		CreatedAt:   createdAt,
	}, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
