// Package entity is the write path for projects, tasks, tickets and
// comments. Every mutation runs as one storage.Backend Atomic unit: the
// referential checks, the workflow transition check and the write either
// all succeed or nothing is committed.
package entity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"worktrack/internal/clock"
	"worktrack/internal/models"
	"worktrack/internal/storage"
)

// Options tunes rules that are policy rather than invariant.
type Options struct {
	// RequireTicketScope rejects tickets that reference neither a project
	// nor a task.
	RequireTicketScope bool

	// NewID generates identities for drafts without one. Defaults to
	// uuid.NewString.
	NewID func() string
}

// Store validates and commits entity mutations against a backend.
type Store struct {
	backend storage.Backend
	clock   clock.Clock
	logger  *slog.Logger
	opts    Options
}

// NewStore wires a Store to its collaborators. A nil clock uses the real
// clock and a nil logger discards output.
func NewStore(backend storage.Backend, clk clock.Clock, logger *slog.Logger, opts Options) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{backend: backend, clock: clk, logger: logger, opts: opts}
}

// assignID returns the draft's id, or a fresh one when it is empty. An
// explicit id must be a UUID that is not in use.
func (s *Store) assignID(entity models.EntityType, id string, lookup func(string) error) (string, error) {
	if id == "" {
		return s.opts.NewID(), nil
	}
	if err := checkUUID(entity, "id", id); err != nil {
		return "", err
	}
	found, err := exists(lookup(id))
	if err != nil {
		return "", err
	}
	if found {
		return "", models.Errorf(models.ErrInvalidField, entity, "id", "%s %q already exists", entity, id)
	}
	return id, nil
}

func checkUUID(entity models.EntityType, field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.Errorf(models.ErrInvalidField, entity, field, "%q is not a valid id", id)
	}
	return nil
}

// exists turns a Get error into a presence flag. Errors other than
// not-found are passed through.
func exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Store) logCommitted(msg string, entity models.EntityType, id string) {
	s.logger.Debug(msg, slog.String("entity", string(entity)), slog.String("id", id))
}

func (s *Store) view(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.backend.View(ctx, fn)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// clearableTime copies a patched time; the zero time clears the field.
func clearableTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return copyTime(t)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
