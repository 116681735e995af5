package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/akshaymittal143/llmload/internal/result"
)

// SaveSummary writes the summary JSON to path. A sibling lock file guards
// the write so concurrent baseline/optimized runs targeting the same file
// cannot interleave.
func SaveSummary(path string, s result.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return writeLocked(path, append(data, '\n'))
}

// SaveJSON persists any report document (metrics reports, curve data) with
// the same locking discipline as SaveSummary.
func SaveJSON(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeLocked(path, append(data, '\n'))
}

func writeLocked(path string, data []byte) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
