package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/log"
	"github.com/felixgeelhaar/vedic/internal/storage"
)

type searcherFunc func(ctx context.Context, query string) (*api.LocationResult, error)

func (f searcherFunc) SearchLocation(ctx context.Context, query string) (*api.LocationResult, error) {
	return f(ctx, query)
}

var chennai = searcherFunc(func(_ context.Context, query string) (*api.LocationResult, error) {
	if query == "Chennai, India" {
		return &api.LocationResult{Success: true, Place: "Chennai, Tamil Nadu, India", Latitude: api.Float(13.0827), Longitude: api.Float(80.2707), Timezone: api.Float(5.5)}, nil
	}
	return &api.LocationResult{Success: false, Message: "Location not found"}, nil
})

func filledForm() *Form {
	return &Form{ProfileName: "Me", PersonName: "Asha", DOB: "1990-05-17", TOB: "06:30"}
}

func TestForm_LocationSearchFillsAllThree(t *testing.T) {
	f := filledForm()
	require.False(t, f.Ready())

	msg, err := f.Locate(context.Background(), chennai, "Chennai, India")
	require.NoError(t, err)
	assert.Equal(t, "Found: Chennai, Tamil Nadu, India (13.0827, 80.2707)", msg)

	d := f.Details()
	require.NotNil(t, d.Latitude)
	require.NotNil(t, d.Longitude)
	require.NotNil(t, d.Timezone)
	assert.Equal(t, 13.0827, *d.Latitude)
	assert.Equal(t, 80.2707, *d.Longitude)
	assert.Equal(t, 5.5, *d.Timezone)
	assert.Equal(t, "Chennai, Tamil Nadu, India", d.Place)
	assert.True(t, f.Ready())
}

func TestForm_FailedSearchClearsLocation(t *testing.T) {
	f := filledForm()
	_, err := f.Locate(context.Background(), chennai, "Chennai, India")
	require.NoError(t, err)
	require.True(t, f.Ready())

	msg, err := f.Locate(context.Background(), chennai, "Atlantis")
	require.NoError(t, err)
	assert.Equal(t, "Location not found", msg)
	assert.False(t, f.Ready())
	assert.Nil(t, f.Details().Latitude)
	assert.Empty(t, f.Place())
}

func TestForm_SearchErrorClearsLocation(t *testing.T) {
	f := filledForm()
	f.ApplyLocation(&api.LocationResult{Success: true, Place: "X", Latitude: api.Float(1), Longitude: api.Float(2), Timezone: api.Float(3)})

	failing := searcherFunc(func(context.Context, string) (*api.LocationResult, error) {
		return nil, &api.ValidationError{Fields: []string{"query"}, Message: "Please enter a location"}
	})
	msg, err := f.Locate(context.Background(), failing, "")
	assert.Error(t, err)
	assert.Equal(t, "Please enter a location", msg)
	assert.False(t, f.Ready())
}

func TestForm_ReadyRequiresFields(t *testing.T) {
	loc := &api.LocationResult{Success: true, Place: "X", Latitude: api.Float(0), Longitude: api.Float(0), Timezone: api.Float(0)}

	tests := []struct {
		name   string
		mutate func(*Form)
	}{
		{"no profile name", func(f *Form) { f.ProfileName = "  " }},
		{"no date", func(f *Form) { f.DOB = "" }},
		{"no time", func(f *Form) { f.TOB = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := filledForm()
			f.ApplyLocation(loc)
			tt.mutate(f)
			assert.False(t, f.Ready())
		})
	}

	f := filledForm()
	f.ApplyLocation(loc)
	assert.True(t, f.Ready(), "zero coordinates are valid coordinates")
}

func TestForm_IncompleteLocationIsNotApplied(t *testing.T) {
	tests := []struct {
		name string
		res  *api.LocationResult
	}{
		{"no latitude", &api.LocationResult{Success: true, Place: "X", Longitude: api.Float(80.27), Timezone: api.Float(5.5)}},
		{"no longitude", &api.LocationResult{Success: true, Place: "X", Latitude: api.Float(13.08), Timezone: api.Float(5.5)}},
		{"no timezone", &api.LocationResult{Success: true, Place: "X", Latitude: api.Float(13.08), Longitude: api.Float(80.27)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := searcherFunc(func(context.Context, string) (*api.LocationResult, error) { return tt.res, nil })
			f := filledForm()
			_, err := f.Locate(context.Background(), chennai, "Chennai, India")
			require.NoError(t, err)
			require.True(t, f.Ready())

			msg, err := f.Locate(context.Background(), searcher, "X")
			require.NoError(t, err)
			assert.Equal(t, "Location not found", msg)
			assert.False(t, f.Ready())
			assert.Nil(t, f.Details().Latitude)
			assert.Empty(t, f.Place())
		})
	}
}

func TestForm_SubmitRefusedUntilLocated(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, storage.NewMemoryStore(), log.Discard())
	f := filledForm()

	res := f.Submit(context.Background(), s)
	assert.False(t, res.Success)
	assert.Equal(t, CodeInvalid, res.Code)
	assert.Equal(t, "Please search for a location first", res.Error)
	assert.Empty(t, backend.profiles)

	_, err := f.Locate(context.Background(), chennai, "Chennai, India")
	require.NoError(t, err)
	res = f.Submit(context.Background(), s)
	require.True(t, res.Success)
	require.Len(t, s.List(), 1)
	assert.Equal(t, "Me", s.List()[0].ProfileName)
	assert.Equal(t, "Asha", s.List()[0].BirthDetails.Name)
}

func TestEditForm_UpdatesExistingProfile(t *testing.T) {
	backend := &fakeBackend{}
	s := New(backend, storage.NewMemoryStore(), log.Discard())
	require.True(t, s.Save(context.Background(), "Me", fakeDetails()).Success)
	p, _ := s.Find("p1")
	p.BirthDetails.DOB = "1990-05-17T00:00:00"
	s.Select(p)

	f := EditForm(p)
	assert.Equal(t, "1990-05-17", f.DOB)
	assert.True(t, f.Ready())

	f.ProfileName = "Renamed"
	res := f.Submit(context.Background(), s)
	require.True(t, res.Success)
	assert.Equal(t, "Renamed", s.Selected().ProfileName)
	assert.Len(t, s.List(), 1)
}

func TestForm_SubmitThroughClient(t *testing.T) {
	// a form whose coordinates somehow went missing never reaches the network
	c := api.NewClient(api.Config{BaseURL: "http://127.0.0.1:1"})
	s := New(c, storage.NewMemoryStore(), log.Discard())
	res := s.Save(context.Background(), "Me", api.BirthDetails{DOB: "1990-05-17", TOB: "06:30", Place: "X"})

	assert.False(t, res.Success)
	assert.Equal(t, CodeInvalid, res.Code)
	assert.True(t, errors.Is(c.ValidateBirthDetails(api.BirthDetails{}), api.ErrValidation))
}
