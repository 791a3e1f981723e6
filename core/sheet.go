package core

import (
	"context"
	"time"
)

type (
	// MarkRow is one accepted mark entry as mirrored to the external spreadsheet.
	MarkRow struct {
		StudentName     string
		AdmissionNumber string
		Class           string
		Subject         string
		CE              int
		TE              int
		Total           int
		Result          string
		SubmittedAt     time.Time
	}

	// RowAppender is any service that can mirror mark rows to an external
	// tabular store. The mirror is append-only and best-effort: callers must
	// never fail a write on an appender error.
	RowAppender interface {
		AppendRow(ctx context.Context, row MarkRow) error
	}
)

// Values returns the row in spreadsheet column order.
func (r MarkRow) Values() []interface{} {
	return []interface{}{
		r.StudentName,
		r.AdmissionNumber,
		r.Class,
		r.Subject,
		r.CE,
		r.TE,
		r.Total,
		r.Result,
		r.SubmittedAt.UTC().Format(time.RFC3339),
	}
}
