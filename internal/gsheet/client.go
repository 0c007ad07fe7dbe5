// Package gsheet wraps the Google Sheets values API for whole-worksheet reads and writes.
package gsheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNotFound is returned when the worksheet does not exist.
var ErrNotFound = errors.New("worksheet not found")

// Client reads and writes worksheets of one spreadsheet.
type Client struct {
	svc           *sheets.Service
	SpreadsheetID string
}

// New authenticates with a service account JSON file.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Client, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("service account credentials: %w", err)
	}
	return NewWithOptions(ctx, spreadsheetID,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope, sheets.DriveScope),
	)
}

// NewWithOptions creates a client with explicit API client options.
func NewWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, SpreadsheetID: spreadsheetID}, nil
}

// classify marks errors about a missing worksheet with ErrNotFound.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusNotFound ||
			(gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")) {
			return fmt.Errorf("%w: %s", ErrNotFound, gerr.Message)
		}
	}
	return err
}

// Read returns every populated row of the worksheet as strings.
func (c *Client) Read(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.SpreadsheetID, sheet).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", sheet, classify(err))
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows, nil
}

// Append adds one row after the last populated row of the worksheet.
func (c *Client) Append(ctx context.Context, sheet string, row []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.Append(c.SpreadsheetID, sheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to worksheet %q: %w", sheet, classify(err))
	}
	return nil
}

// Overwrite clears the worksheet and writes rows starting at A1.
func (c *Client) Overwrite(ctx context.Context, sheet string, rows [][]interface{}) error {
	if _, err := c.svc.Spreadsheets.Values.Clear(c.SpreadsheetID, sheet, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear worksheet %q: %w", sheet, classify(err))
	}
	if len(rows) == 0 {
		return nil
	}
	vr := &sheets.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.SpreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("write worksheet %q: %w", sheet, err)
	}
	return nil
}
