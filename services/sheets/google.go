// Package sheetsvc mirrors mark rows to an external spreadsheet.
package sheetsvc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/trezcool/matokeo/core"
)

type googleService struct {
	svc           *sheets.Service
	spreadsheetID string
	appendRange   string
}

var _ core.RowAppender = (*googleService)(nil)

// NewGoogleService appends rows to the configured Google spreadsheet using
// a service account credentials file.
func NewGoogleService(ctx context.Context, conf *core.Config) (*googleService, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(conf.Sheets.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets service")
	}
	return &googleService{
		svc:           svc,
		spreadsheetID: conf.Sheets.SpreadsheetID,
		appendRange:   conf.Sheets.SheetName + "!A:I",
	}, nil
}

func (svc *googleService) AppendRow(ctx context.Context, row core.MarkRow) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row.Values()}}
	_, err := svc.svc.Spreadsheets.Values.
		Append(svc.spreadsheetID, svc.appendRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return errors.Wrap(err, "appending to spreadsheet")
}
