// Package profiles holds the user's saved birth-chart profiles and the one
// currently selected.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/log"
	"github.com/felixgeelhaar/vedic/internal/storage"
)

// Backend is the part of the API the profile store needs.
type Backend interface {
	ListProfiles(ctx context.Context) (*api.ProfileList, error)
	SaveProfile(ctx context.Context, name string, details api.BirthDetails) (*api.StatusResponse, error)
	UpdateProfile(ctx context.Context, id, name string, details api.BirthDetails) (*api.StatusResponse, error)
	DeleteProfile(ctx context.Context, id string) (*api.StatusResponse, error)
}

// ErrorCode classifies a failed mutation.
type ErrorCode string

// Error codes
const (
	CodeNone         ErrorCode = ""
	CodeNetwork      ErrorCode = "network"
	CodeRejected     ErrorCode = "rejected"
	CodeUnauthorized ErrorCode = "unauthorized"
	CodeInvalid      ErrorCode = "invalid"
)

// Result is the outcome of a mutation. Error is a display string: the
// backend's message when it sent one, a fixed fallback otherwise.
type Result struct {
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
	Code    ErrorCode `json:"code,omitempty"`
	// ProfileID is the id assigned by a successful save.
	ProfileID string `json:"profile_id,omitempty"`
}

// Fallback messages used when the backend gives no reason.
const (
	FallbackSave   = "Failed to save profile"
	FallbackUpdate = "Failed to update profile"
	FallbackDelete = "Failed to delete profile"
)

// Store is the profile store.
type Store struct {
	backend Backend
	storage storage.Store
	logger  *log.Logger

	mu       sync.RWMutex
	list     []api.Profile
	selected *api.Profile
}

// New creates the store and restores the persisted selection. No network call is made.
func New(backend Backend, st storage.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	s := &Store{
		backend: backend,
		storage: st,
		logger:  logger.With("component", "profiles"),
	}

	raw, ok, err := st.Get(storage.KeySelectedProfile)
	switch {
	case err != nil:
		s.logger.WithError(err).Warn("failed to read selected profile")
	case ok && raw != "":
		var p api.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			s.logger.WithError(err).Warn("discarding unreadable selected profile")
			s.persist(nil)
		} else {
			s.selected = &p
		}
	}
	return s
}

// List returns a copy of the loaded profiles.
func (s *Store) List() []api.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Profile(nil), s.list...)
}

// Find returns the loaded profile with the given id.
func (s *Store) Find(id string) (api.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.list {
		if p.ID == id {
			return p, true
		}
	}
	return api.Profile{}, false
}

// Selected returns a copy of the selected profile, or nil.
func (s *Store) Selected() *api.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	p := *s.selected
	return &p
}

// Load fetches the list. Failures are logged and the previous list is kept.
func (s *Store) Load(ctx context.Context) {
	resp, err := s.backend.ListProfiles(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load profiles")
		return
	}
	if !resp.Success {
		s.logger.Warn("failed to load profiles", "message", resp.Message)
		return
	}

	s.mu.Lock()
	s.list = append([]api.Profile(nil), resp.Profiles...)
	s.mu.Unlock()
	s.logger.Debug("profiles loaded", "count", len(resp.Profiles))
}

// Save creates a profile and reloads the list.
func (s *Store) Save(ctx context.Context, name string, details api.BirthDetails) Result {
	resp, err := s.backend.SaveProfile(ctx, name, details)
	if res, failed := result(resp, err, FallbackSave); failed {
		s.logger.Warn("save profile failed", "code", res.Code, "error", res.Error)
		return res
	}

	s.Load(ctx)
	return Result{Success: true, ProfileID: resp.ProfileID}
}

// Update replaces a profile's name and details. When it is the selected
// profile, the selection is updated at once, ahead of the list reload.
func (s *Store) Update(ctx context.Context, id, name string, details api.BirthDetails) Result {
	resp, err := s.backend.UpdateProfile(ctx, id, name, details)
	if res, failed := result(resp, err, FallbackUpdate); failed {
		s.logger.Warn("update profile failed", "id", id, "code", res.Code, "error", res.Error)
		return res
	}

	s.mu.Lock()
	if s.selected != nil && s.selected.ID == id {
		updated := *s.selected
		updated.ProfileName = name
		updated.BirthDetails = details
		s.selected = &updated
		s.persist(&updated)
	}
	s.mu.Unlock()

	s.Load(ctx)
	return Result{Success: true}
}

// Delete removes a profile, clearing the selection when it was selected.
func (s *Store) Delete(ctx context.Context, id string) Result {
	resp, err := s.backend.DeleteProfile(ctx, id)
	if res, failed := result(resp, err, FallbackDelete); failed {
		s.logger.Warn("delete profile failed", "id", id, "code", res.Code, "error", res.Error)
		return res
	}

	s.mu.Lock()
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
		s.persist(nil)
	}
	s.mu.Unlock()

	s.Load(ctx)
	return Result{Success: true}
}

// Select makes p the selected profile.
func (s *Store) Select(p api.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &p
	s.persist(&p)
}

// Clear drops the selection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.persist(nil)
}

// persist writes the selection to storage. It is the only writer of the
// selection key and is called with s.mu held, after the in-memory change.
func (s *Store) persist(p *api.Profile) {
	if p == nil {
		if err := s.storage.Delete(storage.KeySelectedProfile); err != nil {
			s.logger.WithError(err).Warn("failed to clear selected profile")
		}
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.WithError(err).Warn("failed to encode selected profile")
		return
	}
	if err := s.storage.Set(storage.KeySelectedProfile, string(data)); err != nil {
		s.logger.WithError(err).Warn("failed to persist selected profile")
	}
}

// result converts a mutation response into a failed Result, or reports success.
func result(resp *api.StatusResponse, err error, fallback string) (Result, bool) {
	if err != nil {
		return Result{Error: api.Message(err, fallback), Code: codeOf(err)}, true
	}
	if resp == nil || !resp.Success {
		msg := fallback
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		return Result{Error: msg, Code: CodeRejected}, true
	}
	return Result{}, false
}

func codeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, api.ErrValidation):
		return CodeInvalid
	case errors.Is(err, api.ErrNetwork):
		return CodeNetwork
	case errors.Is(err, api.ErrAuthExpired):
		return CodeUnauthorized
	default:
		return CodeRejected
	}
}
