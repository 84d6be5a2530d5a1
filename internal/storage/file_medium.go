package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileMedium persists all slots as one JSON object on disk.
type FileMedium struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewFileMedium returns a JSON file-backed medium.
func NewFileMedium(path string, logger zerolog.Logger) *FileMedium {
	return &FileMedium{
		path:   path,
		logger: logger,
	}
}

func (m *FileMedium) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	slots, err := m.read()
	if err != nil {
		return "", false, err
	}
	value, ok := slots[key]
	return value, ok, nil
}

// Set overwrites one slot and rewrites the file atomically.
func (m *FileMedium) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	slots, err := m.read()
	if err != nil {
		return err
	}
	slots[key] = value
	return m.write(slots)
}

func (m *FileMedium) Close() error {
	return nil
}

// read loads every slot. A missing file yields no slots. A corrupt file is moved
// aside first so the next write cannot destroy what it held.
func (m *FileMedium) read() (map[string]string, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	var slots map[string]string
	if err := json.Unmarshal(data, &slots); err != nil {
		aside, moveErr := m.quarantine()
		if moveErr != nil {
			return nil, fmt.Errorf("store file corrupt and could not be moved aside: %w", moveErr)
		}
		m.logger.Warn().
			Str("path", m.path).
			Str("moved_to", aside).
			Err(err).
			Msg("store file corrupt, starting fresh")
		return map[string]string{}, nil
	}
	if slots == nil {
		slots = map[string]string{}
	}
	return slots, nil
}

// quarantine renames the store file to <path>.corrupt-<timestamp>.
func (m *FileMedium) quarantine() (string, error) {
	aside := fmt.Sprintf("%s.corrupt-%s", m.path, time.Now().UTC().Format("20060102T150405.000000000Z"))
	if err := os.Rename(m.path, aside); err != nil {
		return "", err
	}
	return aside, nil
}

func (m *FileMedium) write(slots map[string]string) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return err
	}

	cleanup := func() {
		_ = os.Remove(tempFile.Name())
	}

	encoder := json.NewEncoder(tempFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(slots); err != nil {
		_ = tempFile.Close()
		cleanup()
		return err
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		cleanup()
		return err
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return err
	}

	if err := os.Rename(tempFile.Name(), m.path); err != nil {
		cleanup()
		return err
	}

	if dirHandle, err := os.Open(dir); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}

	return nil
}
