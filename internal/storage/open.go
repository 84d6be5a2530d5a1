package storage

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Backend names a Medium implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Open returns the medium for backend rooted at path.
func Open(backend Backend, path string, logger zerolog.Logger) (Medium, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryMedium(), nil
	case BackendFile, "":
		if path == "" {
			return nil, fmt.Errorf("storage path is required")
		}
		return NewFileMedium(path, logger), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", backend)
	}
}
