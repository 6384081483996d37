// Package export renders a transaction collection as downloadable files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Writer renders a transaction collection in one export format.
type Writer func(w io.Writer, txs []core.Transaction) error

var (
	_ Writer = WriteCSV
	_ Writer = WriteXLSX
)

var header = []string{"Date", "Type", "Category", "Description", "Amount"}

// FileName returns the download name for an export created at now with the
// given extension ("csv" or "xlsx").
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("expenses_%s.%s", now.Format(core.DateLayout), ext)
}

// WriteCSV writes the header line followed by one line per transaction.
// Every data field is double-quoted and amounts carry two decimals.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(header, ",") + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		fields := row(t)
		for i, f := range fields {
			fields[i] = quote(f)
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func row(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		string(t.Type),
		t.Category,
		t.Description,
		core.FormatAmount(t.Amount),
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
