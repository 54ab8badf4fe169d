// Package kv defines the path-addressed key-value store the repositories are
// built on. Records live under slash-delimited hierarchical paths
// (sessions/{id}, active_users/{userID}, config/app_settings, ...) as JSON
// values; subscriptions deliver full-collection snapshots on every change.
package kv

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Snapshot is the full state of a collection, keyed by record path.
type Snapshot map[string][]byte

// Store is the coordination point between devices: a last-write-wins record
// store with change notification and a disconnect-cleanup ("last will")
// hook.
type Store interface {
	Put(ctx context.Context, path string, value []byte) error
	// Get fails with ErrKeyNotFound when no record exists at path.
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	// Update applies fn to the current value at path (nil when absent) and
	// writes the result, atomically with respect to concurrent updates on
	// the same path. fn returning an error aborts without writing.
	Update(ctx context.Context, path string, fn func(current []byte) ([]byte, error)) error
	// List returns every record under prefix.
	List(ctx context.Context, prefix string) (Snapshot, error)
	// Subscribe invokes onChange with a fresh snapshot of the prefix's
	// collection after every change under it, starting with the current
	// state. The returned function tears the subscription down.
	Subscribe(ctx context.Context, prefix string, onChange func(Snapshot)) (func(), error)
	// RegisterDisconnectCleanup arranges for the record at path to be
	// deleted when this store connection closes.
	RegisterDisconnectCleanup(ctx context.Context, path string) error
	Close() error
}

// Collection path roots.
const (
	OfficesPrefix     = "offices"
	StudentsPrefix    = "students"
	TeachersPrefix    = "teachers"
	SubjectsPrefix    = "subjects"
	SessionsPrefix    = "sessions"
	ActiveUsersPrefix = "active_users"
	ConfigPrefix      = "config"

	AppSettingsPath = ConfigPrefix + "/app_settings"
)

// Join builds a slash-delimited record path.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}
