package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/amishk599/jobscout/internal/model"
)

func samplePosting(title string) model.Posting {
	return model.Posting{
		JobTitle:   title,
		Company:    "Acme, Inc.",
		Experience: "N/A",
		JobNature:  "remote",
		Location:   "Islamabad, Pakistan",
		Salary:     "N/A",
		ApplyLink:  "https://example.com/" + title,
	}
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_jobs.csv")
	batch := []model.Posting{samplePosting("one"), samplePosting("two")}

	if err := WriteCSV(path, batch); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d rows", len(rows))
	}

	wantHeader := []string{"job_title", "company", "experience", "jobNature", "location", "salary", "apply_link"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "one" || rows[2][0] != "two" {
		t.Errorf("rows out of order: %v", rows[1:])
	}
	if rows[1][1] != "Acme, Inc." {
		t.Errorf("company with comma not round-tripped: %q", rows[1][1])
	}
}

func TestWriteCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_jobs.csv")

	if err := WriteCSV(path, []model.Posting{samplePosting("a"), samplePosting("b"), samplePosting("c")}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteCSV(path, []model.Posting{samplePosting("z")}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "z" {
		t.Errorf("expected file replaced by second write, got %v", rows)
	}
}

func TestWriteCSV_EmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_jobs.csv")

	err := WriteCSV(path, nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("expected no file to be created, stat err = %v", statErr)
	}
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structured_jobs.json")
	raw := `{"relevant_jobs": []}`

	if err := WriteResult(path, raw); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != raw {
		t.Errorf("file contents = %q, want %q", data, raw)
	}
}

func TestWriteResult_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "structured_jobs.json")
	if err := WriteResult(path, "{}"); err == nil {
		t.Fatal("expected error for missing directory, got nil")
	}
}
