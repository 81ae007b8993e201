package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/promoter/internal/promotion"
)

// ResultsFile writes the per-artifact rows as a JSON array.
type ResultsFile struct {
	path string
}

// NewResultsFile creates a notifier writing to path.
func NewResultsFile(path string) *ResultsFile {
	return &ResultsFile{path: path}
}

// Notify implements promotion.Notifier. The file is replaced atomically.
func (f *ResultsFile) Notify(_ context.Context, report promotion.RunReport) error {
	data, err := json.MarshalIndent(Rows(report), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating results dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing results file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing results file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing results file: %w", err)
	}
	return nil
}
