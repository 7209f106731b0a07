package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	apperrors "asx-ingest/internal/errors"
)

// readBarRows reads a historical price file: a comma-separated header row
// followed by data rows. Rows whose column count disagrees with the header,
// and rows that are entirely blank, are excluded from the submitted
// denominator; the skipped count reports how many were dropped that way.
func readBarRows(path string) (rows [][]string, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, apperrors.Wrapf(apperrors.ErrFileNotFound, "%s", path)
		}
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, err
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	header := records[0]
	for _, rec := range records[1:] {
		if isBlankRow(rec) {
			skipped++
			continue
		}
		if len(rec) != len(header) {
			skipped++
			continue
		}
		rows = append(rows, rec)
	}
	return rows, skipped, nil
}

// withinDir reports whether path resolves inside dir. An empty dir disables
// the check.
func withinDir(path, dir string) bool {
	if dir == "" {
		return true
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
