// Package storage bridges in-memory state values to slots of a durable key-value
// medium. Slots are addressed by a composite namespace:name key and hold JSON text.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Key identifies one durable slot.
type Key struct {
	Namespace string
	Name      string
}

// NewKey returns the key for name under namespace.
func NewKey(namespace, name string) Key {
	return Key{Namespace: namespace, Name: name}
}

func (k Key) String() string {
	return k.Namespace + ":" + k.Name
}

// Medium is a durable key-value store holding serialized slot values.
type Medium interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Load returns the value stored under key, or def when the slot is missing,
// unreadable or does not decode. Load never writes.
func Load[T any](ctx context.Context, medium Medium, logger zerolog.Logger, key Key, def T) T {
	raw, ok, err := medium.Get(ctx, key.String())
	if err != nil {
		logger.Warn().Err(err).Str("key", key.String()).Msg("slot read failed, using default")
		return def
	}
	if !ok {
		logger.Debug().Str("key", key.String()).Msg("slot missing, using default")
		return def
	}

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		logger.Warn().Err(err).Str("key", key.String()).Msg("slot corrupt, using default")
		return def
	}
	return value
}

// LoadStrict returns the value stored under key. Unlike Load it reports read and
// decode failures; ok is false only when the slot is missing.
func LoadStrict[T any](ctx context.Context, medium Medium, key Key) (value T, ok bool, err error) {
	raw, ok, err := medium.Get(ctx, key.String())
	if err != nil {
		return value, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return value, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, true, nil
}

// Save encodes value and overwrites the slot under key.
func Save[T any](ctx context.Context, medium Medium, key Key, value T) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := medium.Set(ctx, key.String(), string(encoded)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Has reports whether a slot exists under key.
func Has(ctx context.Context, medium Medium, key Key) (bool, error) {
	_, ok, err := medium.Get(ctx, key.String())
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	return ok, nil
}
