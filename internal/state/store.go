// Package state persists leapchart's settings in SQLite: the ordered list of
// reusable configuration fragments and plain key/value settings.
package state

import (
	"context"
	"errors"

	"github.com/leapstack-labs/leapchart/pkg/core"
)

// ErrNotFound is returned when a fragment or setting does not exist.
var ErrNotFound = errors.New("not found")

// Fragment is a persisted configuration fragment.
type Fragment struct {
	ID       string
	Position int
	core.ChartConfig
}

// Store is the persistence interface used by the CLI and the browser host.
type Store interface {
	// Fragments returns all fragments in position order.
	Fragments(ctx context.Context) ([]core.ChartConfig, error)
	// Fragment returns the fragment with the given name.
	Fragment(ctx context.Context, name string) (*Fragment, error)
	// PutFragment inserts cfg at the end, or updates it in place if a
	// fragment with the same name exists.
	PutFragment(ctx context.Context, cfg core.ChartConfig) error
	DeleteFragment(ctx context.Context, name string) error
	// ReplaceFragments swaps the whole list atomically.
	ReplaceFragments(ctx context.Context, cfgs []core.ChartConfig) error
	// FragmentsRevision identifies the current fragment list; it differs
	// after any change.
	FragmentsRevision(ctx context.Context) (string, error)

	Setting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Close() error
}

// settingSeeded records that the default fragments were written once.
const settingSeeded = "fragments_seeded"
