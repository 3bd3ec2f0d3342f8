// Package session persists planner configurations between CLI invocations.
//
// A [Session] pairs an ID with a [planner.Spec]. Creating a session captures
// a configuration; later commands load it, reset individual stages and plan
// from it again. Two backends implement [Store]:
//   - file: one JSON document per session, for a single CLI user
//   - redis: a shared store for several server instances
//
// # Usage
//
//	store, err := session.NewFileStore("")  // Uses ~/.config/fractal/sessions/
//	if err != nil {
//	    return err
//	}
//
//	sess := session.New("spiral", spec)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err = store.Get(ctx, sess.ID)
//	if errors.Is(err, errors.ErrCodeSessionNotFound) {
//	    // unknown id
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/planner"
)

// Session is a named, stored planner configuration.
type Session struct {
	ID        string       `json:"id"`
	Name      string       `json:"name,omitempty"`
	Spec      planner.Spec `json:"spec"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. A missing session is reported as
	// [errors.ErrCodeSessionNotFound].
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any previous version.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all stored sessions, most recently updated first.
	List(ctx context.Context) ([]*Session, error)
}

// New creates a session with a fresh random ID.
func New(name string, spec planner.Spec) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Spec:      spec,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Configure validates the stored spec and returns a planner session for it.
func (s *Session) Configure(opts ...planner.Option) (*planner.Session, error) {
	return planner.Configure(s.Spec, opts...)
}

// ResetStage restores one stage of the stored spec to its defaults.
func (s *Session) ResetStage(stage planner.Stage) error {
	ps, err := s.Configure()
	if err != nil {
		return err
	}
	if err := ps.Reset(stage); err != nil {
		return err
	}
	s.Spec = ps.Spec()
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
}
