// Package export writes pipeline artifacts to disk. Both files are overwritten
// on every run.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/amishk599/jobscout/internal/model"
)

// ErrEmptyBatch is returned when there is no record to derive a header from.
var ErrEmptyBatch = errors.New("no postings to write")

// WriteCSV writes batch to path with a header row taken from the first record.
func WriteCSV(path string, batch []model.Posting) error {
	if len(batch) == 0 {
		return fmt.Errorf("writing %s: %w", path, ErrEmptyBatch)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(batch[0].Columns()); err != nil {
		return fmt.Errorf("writing %s header: %w", path, err)
	}
	for _, p := range batch {
		if err := w.Write(p.Values()); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteResult stores the refined document text exactly as received.
func WriteResult(path string, raw string) error {
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
