// Package store persists encoded documents in a Pebble key value store.
package store

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

const separator byte = 0x1f

// Common errors returned by the store.
var (
	// ErrKeyNotFound is returned when the targeted key doesn't exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidDocument is returned when the bytes handed to Put are
	// not a single well-formed value.
	ErrInvalidDocument = errors.New("invalid document")
)

// Engine wraps a Pebble database holding encoded documents.
type Engine struct {
	DB   *pebble.DB
	opts *pebble.Options
}

// NewEngine opens a Pebble database. It takes the same arguments as
// Pebble's Open function.
func NewEngine(path string, opts *pebble.Options) (*Engine, error) {
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	return &Engine{
		DB:   db,
		opts: opts,
	}, nil
}

// NewStore returns a handle over the documents stored under the given
// namespace.
func (e *Engine) NewStore(namespace string) *Store {
	return &Store{
		ng:     e,
		prefix: []byte(namespace),
	}
}

// Close closes the underlying database.
func (e *Engine) Close() error {
	return e.DB.Close()
}
