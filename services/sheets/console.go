package sheetsvc

import (
	"context"
	"sync"

	"github.com/trezcool/matokeo/core"
)

// consoleService logs appended rows instead of writing to a spreadsheet.
// Used in development when no spreadsheet is configured.
type consoleService struct {
	logger core.Logger
}

var _ core.RowAppender = (*consoleService)(nil)

func NewConsoleService(logger core.Logger) core.RowAppender {
	return &consoleService{logger: logger}
}

func (svc *consoleService) AppendRow(ctx context.Context, row core.MarkRow) error {
	svc.logger.Info("spreadsheet mirror disabled; dropping row", row.Values())
	return nil
}

// AppenderMock records appended rows for inspection by tests.
type AppenderMock struct {
	mut  sync.Mutex
	rows []core.MarkRow

	// Err, when set, is returned by every AppendRow call.
	Err error
}

var _ core.RowAppender = (*AppenderMock)(nil)

func NewAppenderMock() *AppenderMock {
	return &AppenderMock{}
}

func (svc *AppenderMock) AppendRow(ctx context.Context, row core.MarkRow) error {
	if svc.Err != nil {
		return svc.Err
	}
	svc.mut.Lock()
	defer svc.mut.Unlock()
	svc.rows = append(svc.rows, row)
	return nil
}

// Rows returns a copy of the recorded rows.
func (svc *AppenderMock) Rows() []core.MarkRow {
	svc.mut.Lock()
	defer svc.mut.Unlock()
	rows := make([]core.MarkRow, len(svc.rows))
	copy(rows, svc.rows)
	return rows
}

// Reset clears recorded rows and the forced error.
func (svc *AppenderMock) Reset() {
	svc.mut.Lock()
	defer svc.mut.Unlock()
	svc.rows = nil
	svc.Err = nil
}
