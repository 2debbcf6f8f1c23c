package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"menuscope/internal/menu"
)

// WriteCSV writes the header row followed by one row per record, in order.
func WriteCSV(w io.Writer, records []menu.ItemRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(menu.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, record := range records {
		if err := cw.Write(record.Row()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
