package query

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// Snapshot errors.
var (
	errSnapshotNotFound = errors.New("snapshot file not found")
	errSnapshotCorrupt  = errors.New("snapshot file corrupted")
)

// SaveExplanation writes an explanation snapshot to path, atomically, so
// a crash mid-write never leaves a truncated snapshot behind. Snapshots
// are gob-encoded; they are a host convenience for offline diffing, not
// part of the engine contract.
func SaveExplanation(path string, exp *Explanation) error {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(exp); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// LoadExplanation reads an explanation snapshot written by
// [SaveExplanation]. Returns errSnapshotNotFound if the file does not
// exist and errSnapshotCorrupt if it cannot be decoded.
func LoadExplanation(path string) (*Explanation, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from flags
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errSnapshotNotFound, path)
		}

		return nil, fmt.Errorf("opening snapshot: %w", err)
	}

	defer func() { _ = file.Close() }()

	var exp Explanation

	if decodeErr := gob.NewDecoder(file).Decode(&exp); decodeErr != nil {
		return nil, fmt.Errorf("%w: %s", errSnapshotCorrupt, path)
	}

	return &exp, nil
}
