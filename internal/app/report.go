package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brian-reel/airtable-heroku/internal/domain/types"
)

// writeReport stores r as indented JSON under dir and returns the path.
// The file appears atomically.
func writeReport(dir string, r *types.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReportFailure, err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReportFailure, err)
	}

	short := r.PassID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s-%s-%s.json", r.Job, r.StartedAt.UTC().Format("20060102T150405Z"), short)
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReportFailure, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %w", ErrReportFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReportFailure, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: %w", ErrReportFailure, err)
	}
	return path, nil
}
