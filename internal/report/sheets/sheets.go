// Package sheets publishes the financial report to one tab of a Google
// Sheets spreadsheet using service account credentials.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wealthwise/internal/log"
	"wealthwise/internal/report"
)

var _ report.Publisher = (*Client)(nil)

// ErrNoCredentials is returned when none of the credential variables is set.
var ErrNoCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

// valuesAPI is the slice of the Sheets values service the client needs.
type valuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error
}

type Client struct {
	values        valuesAPI
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New creates a client for spreadsheetID, writing into sheetName.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func New(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if sheetName == "" {
		sheetName = "Report"
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentReport)

	creds, err := loadCredentials(ctx, logger)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", log.FieldSpreadsheet, spreadsheetID, "sheet", sheetName)

	return &Client{
		values:        serviceValues{svc: svc},
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

func loadCredentials(ctx context.Context, logger *log.Logger) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, ErrNoCredentials
	}
}

// Publish clears the report tab and rewrites it with the report grid.
func (c *Client) Publish(ctx context.Context, r report.Report) error {
	if c.values == nil {
		return errors.New("sheets service not initialized")
	}
	all := fmt.Sprintf("%s!A:Z", c.sheetName)
	if err := c.values.Clear(ctx, c.spreadsheetID, all); err != nil {
		return fmt.Errorf("clear %s: %w", all, err)
	}

	grid := toValues(r.Grid())
	rng := fmt.Sprintf("%s!A1", c.sheetName)
	if err := c.values.Update(ctx, c.spreadsheetID, rng, grid); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	c.logger.InfoContext(ctx, "Report published",
		log.FieldSpreadsheet, c.spreadsheetID,
		log.FieldCount, len(r.Rows))
	return nil
}

func toValues(grid [][]string) [][]interface{} {
	out := make([][]interface{}, len(grid))
	for i, line := range grid {
		row := make([]interface{}, len(line))
		for j, cell := range line {
			row[j] = cell
		}
		out[i] = row
	}
	return out
}

type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s serviceValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]interface{}) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}
