package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/jsamuelsen/classquotes/internal/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ReadSnapshot decodes the quote array at path. The boolean is false when
// the file does not exist.
func ReadSnapshot(path string) ([]domain.Quote, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}

	quotes := make([]domain.Quote, 0)
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, true, fmt.Errorf("decoding %s: %w", path, err)
	}
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	return quotes, true, nil
}

// WriteSnapshot replaces the file at path with quotes as an indented JSON
// array. Readers observe either the old or the new document, never a mix.
func WriteSnapshot(path string, quotes []domain.Quote) error {
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	data, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	if err := renameio.WriteFile(path, append(data, '\n'), filePerm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
