package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/csvrepair/internal/repair"
)

// RiskyField is a field that a spreadsheet would evaluate as a formula.
type RiskyField struct {
	Record int    `json:"record"` // 1-based record number
	Line   int    `json:"line"`   // 1-based line where the field starts
	Column int    `json:"column"` // 1-based field index within the record
	Value  string `json:"value"`
}

// ScanFields splits data into CSV records and reports every field the guard
// flags. Quoting is lenient and records may have different field counts;
// this is a reporting aid, not a CSV validator. Blank lines are skipped.
func ScanFields(data []byte, guard repair.InjectionGuard) ([]RiskyField, error) {
	return scanFields(context.Background(), data, guard)
}

// checkEvery is how many records scanFields reads between context checks.
const checkEvery = 1024

func scanFields(ctx context.Context, data []byte, guard repair.InjectionGuard) ([]RiskyField, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var found []RiskyField
	for record := 1; ; record++ {
		if record%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return found, err
			}
		}

		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return found, nil
		}
		if err != nil {
			return found, fmt.Errorf("scan fields: %w", err)
		}

		for i, f := range fields {
			if !guard.IsRisky(f) {
				continue
			}
			line, _ := r.FieldPos(i)
			found = append(found, RiskyField{
				Record: record,
				Line:   line,
				Column: i + 1,
				Value:  f,
			})
		}
	}
}
