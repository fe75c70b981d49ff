package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/okian/reviewdesk/internal/domain/model"
)

// WriteCSV writes reviews as CSV with a header row. Columns default to the
// sorted field names of the first review when none are given.
func WriteCSV(w io.Writer, columns []string, reviews []model.CompletedReview) error {
	if len(columns) == 0 && len(reviews) > 0 {
		for k := range reviews[0].Fields {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, r := range reviews {
		for i, col := range columns {
			record[i] = r.Fields[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.Position, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
