package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/log"
	"github.com/felixgeelhaar/vedic/internal/storage"
)

// fakeBackend keeps profiles in memory the way the server does.
type fakeBackend struct {
	mu       sync.Mutex
	profiles []api.Profile
	next     int

	listErr   error
	mutateErr error
	reject    string // non-empty: mutations answer success=false with this message
	rejectRaw bool   // mutations answer success=false without a message
	listCalls int
}

func (f *fakeBackend) ListProfiles(context.Context) (*api.ProfileList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &api.ProfileList{Success: true, Profiles: append([]api.Profile(nil), f.profiles...)}, nil
}

func (f *fakeBackend) fail() (*api.StatusResponse, bool, error) {
	switch {
	case f.mutateErr != nil:
		return nil, true, f.mutateErr
	case f.reject != "":
		return &api.StatusResponse{Success: false, Message: f.reject}, true, nil
	case f.rejectRaw:
		return &api.StatusResponse{Success: false}, true, nil
	}
	return nil, false, nil
}

func (f *fakeBackend) SaveProfile(_ context.Context, name string, d api.BirthDetails) (*api.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp, failed, err := f.fail(); failed {
		return resp, err
	}
	f.next++
	id := fmt.Sprintf("p%d", f.next)
	f.profiles = append(f.profiles, api.Profile{ID: id, ProfileName: name, BirthDetails: d})
	return &api.StatusResponse{Success: true, ProfileID: id}, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, id, name string, d api.BirthDetails) (*api.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp, failed, err := f.fail(); failed {
		return resp, err
	}
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			f.profiles[i].ProfileName = name
			f.profiles[i].BirthDetails = d
			return &api.StatusResponse{Success: true}, nil
		}
	}
	return &api.StatusResponse{Success: false, Message: "Profile not found"}, nil
}

func (f *fakeBackend) DeleteProfile(_ context.Context, id string) (*api.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp, failed, err := f.fail(); failed {
		return resp, err
	}
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			f.profiles = append(f.profiles[:i], f.profiles[i+1:]...)
			return &api.StatusResponse{Success: true}, nil
		}
	}
	return &api.StatusResponse{Success: false, Message: "Profile not found"}, nil
}

func fakeDetails() api.BirthDetails {
	return api.BirthDetails{
		Name:      gofakeit.FirstName(),
		DOB:       gofakeit.Date().Format("2006-01-02"),
		TOB:       fmt.Sprintf("%02d:%02d", gofakeit.Hour(), gofakeit.Minute()),
		Place:     gofakeit.City(),
		Latitude:  api.Float(gofakeit.Latitude()),
		Longitude: api.Float(gofakeit.Longitude()),
		Timezone:  api.Float(5.5),
	}
}

// persisted decodes the stored selection; nil when absent.
func persisted(t require.TestingT, st storage.Store) *api.Profile {
	raw, ok, err := st.Get(storage.KeySelectedProfile)
	require.NoError(t, err)
	if !ok {
		return nil
	}
	var p api.Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

func TestNew_RestoresSelection(t *testing.T) {
	st := storage.NewMemoryStore()
	p := api.Profile{ID: "p9", ProfileName: "Me", BirthDetails: fakeDetails()}
	data, _ := json.Marshal(p)
	require.NoError(t, st.Set(storage.KeySelectedProfile, string(data)))

	backend := &fakeBackend{}
	s := New(backend, st, log.Discard())

	require.NotNil(t, s.Selected())
	assert.Equal(t, "p9", s.Selected().ID)
	assert.Zero(t, backend.listCalls, "restoring the selection needs no network")
}

func TestNew_CorruptSelectionIsDropped(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Set(storage.KeySelectedProfile, "{not json"))

	s := New(&fakeBackend{}, st, log.Discard())

	assert.Nil(t, s.Selected())
	assert.Nil(t, persisted(t, st))
}

func TestLoad_KeepsStaleListOnFailure(t *testing.T) {
	backend := &fakeBackend{profiles: []api.Profile{{ID: "p1", ProfileName: "One"}}}
	s := New(backend, storage.NewMemoryStore(), log.Discard())

	s.Load(context.Background())
	require.Len(t, s.List(), 1)

	backend.listErr = &api.NetworkError{Op: "GET", Err: fmt.Errorf("down")}
	s.Load(context.Background())
	assert.Len(t, s.List(), 1)
}

func TestSave_ReloadsAndContainsOnce(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, storage.NewMemoryStore(), log.Discard())

	res := s.Save(context.Background(), "Me", fakeDetails())
	require.True(t, res.Success)
	assert.Equal(t, "p1", res.ProfileID)
	assert.Equal(t, 1, backend.listCalls)

	s.Load(context.Background())
	count := 0
	for _, p := range s.List() {
		if p.ID == res.ProfileID {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMutations_FailureMessages(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*fakeBackend)
		wantMsg  string
		wantCode ErrorCode
	}{
		{
			name:     "backend message",
			setup:    func(f *fakeBackend) { f.reject = "Profile limit reached" },
			wantMsg:  "Profile limit reached",
			wantCode: CodeRejected,
		},
		{
			name:     "no message",
			setup:    func(f *fakeBackend) { f.rejectRaw = true },
			wantMsg:  FallbackSave,
			wantCode: CodeRejected,
		},
		{
			name: "http error detail",
			setup: func(f *fakeBackend) {
				f.mutateErr = &api.APIError{StatusCode: http.StatusBadRequest, Detail: "Invalid date"}
			},
			wantMsg:  "Invalid date",
			wantCode: CodeRejected,
		},
		{
			name:     "http error without body",
			setup:    func(f *fakeBackend) { f.mutateErr = &api.APIError{StatusCode: http.StatusInternalServerError} },
			wantMsg:  FallbackSave,
			wantCode: CodeRejected,
		},
		{
			name: "network",
			setup: func(f *fakeBackend) {
				f.mutateErr = &api.NetworkError{Op: "POST", Err: fmt.Errorf("timeout")}
			},
			wantMsg:  "network error, please try again",
			wantCode: CodeNetwork,
		},
		{
			name:     "unauthorized",
			setup:    func(f *fakeBackend) { f.mutateErr = &api.APIError{StatusCode: http.StatusUnauthorized} },
			wantMsg:  FallbackSave,
			wantCode: CodeUnauthorized,
		},
		{
			name: "validation",
			setup: func(f *fakeBackend) {
				f.mutateErr = &api.ValidationError{Fields: []string{"latitude"}, Message: "invalid birth details: latitude"}
			},
			wantMsg:  "invalid birth details: latitude",
			wantCode: CodeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			tt.setup(backend)
			s := New(backend, storage.NewMemoryStore(), log.Discard())

			res := s.Save(context.Background(), "Me", fakeDetails())

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMsg, res.Error)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Zero(t, backend.listCalls, "a failed mutation does not reload")
		})
	}
}

func TestUpdateAndDelete_Fallbacks(t *testing.T) {
	backend := &fakeBackend{rejectRaw: true}
	s := New(backend, storage.NewMemoryStore(), log.Discard())

	assert.Equal(t, FallbackUpdate, s.Update(context.Background(), "p1", "x", fakeDetails()).Error)
	assert.Equal(t, FallbackDelete, s.Delete(context.Background(), "p1").Error)
}

func TestUpdate_SelectedIsReplacedInPlace(t *testing.T) {
	backend := &fakeBackend{}
	st := storage.NewMemoryStore()
	s := New(backend, st, log.Discard())

	require.True(t, s.Save(context.Background(), "Old name", fakeDetails()).Success)
	p, ok := s.Find("p1")
	require.True(t, ok)
	s.Select(p)

	// the reload will fail; the selection must still reflect the edit
	backend.listErr = fmt.Errorf("list unavailable")
	details := fakeDetails()
	res := s.Update(context.Background(), "p1", "New name", details)

	require.True(t, res.Success)
	assert.Equal(t, "New name", s.Selected().ProfileName)
	assert.Equal(t, details, s.Selected().BirthDetails)
	assert.Equal(t, "New name", persisted(t, st).ProfileName)
	assert.Equal(t, "Old name", s.List()[0].ProfileName, "list only changes on a successful reload")
}

func TestUpdate_OtherProfileLeavesSelection(t *testing.T) {
	backend := &fakeBackend{}
	st := storage.NewMemoryStore()
	s := New(backend, st, log.Discard())
	s.Save(context.Background(), "One", fakeDetails())
	s.Save(context.Background(), "Two", fakeDetails())
	one, _ := s.Find("p1")
	s.Select(one)

	require.True(t, s.Update(context.Background(), "p2", "Second", fakeDetails()).Success)

	assert.Equal(t, "One", s.Selected().ProfileName)
	assert.Equal(t, "One", persisted(t, st).ProfileName)
}

func TestDelete_Selection(t *testing.T) {
	t.Run("selected id clears selection", func(t *testing.T) {
		backend := &fakeBackend{}
		st := storage.NewMemoryStore()
		s := New(backend, st, log.Discard())
		s.Save(context.Background(), "One", fakeDetails())
		one, _ := s.Find("p1")
		s.Select(one)

		require.True(t, s.Delete(context.Background(), "p1").Success)
		assert.Nil(t, s.Selected())
		assert.Nil(t, persisted(t, st))
		assert.Empty(t, s.List())
	})

	t.Run("other id keeps selection", func(t *testing.T) {
		backend := &fakeBackend{}
		st := storage.NewMemoryStore()
		s := New(backend, st, log.Discard())
		s.Save(context.Background(), "One", fakeDetails())
		s.Save(context.Background(), "Two", fakeDetails())
		one, _ := s.Find("p1")
		s.Select(one)

		require.True(t, s.Delete(context.Background(), "p2").Success)
		assert.Equal(t, "p1", s.Selected().ID)
		assert.Equal(t, "p1", persisted(t, st).ID)
	})

	t.Run("failed delete keeps selection", func(t *testing.T) {
		backend := &fakeBackend{}
		st := storage.NewMemoryStore()
		s := New(backend, st, log.Discard())
		s.Save(context.Background(), "One", fakeDetails())
		one, _ := s.Find("p1")
		s.Select(one)

		backend.mutateErr = &api.NetworkError{Op: "DELETE", Err: fmt.Errorf("down")}
		res := s.Delete(context.Background(), "p1")
		assert.False(t, res.Success)
		assert.Equal(t, "p1", s.Selected().ID)
		assert.Equal(t, "p1", persisted(t, st).ID)
	})
}

func TestSelectAndClear(t *testing.T) {
	st := storage.NewMemoryStore()
	s := New(&fakeBackend{}, st, log.Discard())
	p := api.Profile{ID: "p5", ProfileName: "Five", BirthDetails: fakeDetails()}

	s.Select(p)
	assert.Equal(t, "p5", s.Selected().ID)
	assert.Equal(t, "p5", persisted(t, st).ID)

	// survives a restart
	assert.Equal(t, "p5", New(&fakeBackend{}, st, log.Discard()).Selected().ID)

	s.Clear()
	assert.Nil(t, s.Selected())
	assert.Nil(t, persisted(t, st))
}

func TestSelected_ReturnsCopy(t *testing.T) {
	s := New(&fakeBackend{}, storage.NewMemoryStore(), log.Discard())
	s.Select(api.Profile{ID: "p1", ProfileName: "One"})

	sel := s.Selected()
	sel.ProfileName = "mutated"

	assert.Equal(t, "One", s.Selected().ProfileName)
}

// After any sequence of operations, succeeding or failing, the persisted
// selection equals the in-memory selection.
func TestProperty_PersistedSelectionNeverDiverges(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		backend := &fakeBackend{}
		st := storage.NewMemoryStore()
		s := New(backend, st, log.Discard())
		ctx := context.Background()

		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			backend.mutateErr = nil
			if rapid.Bool().Draw(rt, "fail") {
				backend.mutateErr = &api.NetworkError{Op: "x", Err: fmt.Errorf("down")}
			}

			ids := []string{"p1", "p2", "p3", "p4"}
			id := rapid.SampledFrom(ids).Draw(rt, "id")
			switch rapid.SampledFrom([]string{"save", "update", "delete", "select", "clear", "load"}).Draw(rt, "op") {
			case "save":
				s.Save(ctx, "n", fakeDetails())
			case "update":
				s.Update(ctx, id, rapid.StringMatching(`[A-Za-z]{1,8}`).Draw(rt, "name"), fakeDetails())
			case "delete":
				s.Delete(ctx, id)
			case "select":
				if p, ok := s.Find(id); ok {
					s.Select(p)
				}
			case "clear":
				s.Clear()
			case "load":
				s.Load(ctx)
			}

			got := persisted(rt, st)
			want := s.Selected()
			if (got == nil) != (want == nil) {
				rt.Fatalf("persisted=%v in-memory=%v", got, want)
			}
			if got != nil && (got.ID != want.ID || got.ProfileName != want.ProfileName) {
				rt.Fatalf("persisted=%+v in-memory=%+v", got, want)
			}
		}
	})
}
