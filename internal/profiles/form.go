package profiles

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// LocationSearcher resolves a place name.
type LocationSearcher interface {
	SearchLocation(ctx context.Context, query string) (*api.LocationResult, error)
}

// Form collects a profile for creation or update. The location fields are
// only ever set together, from a location search result.
type Form struct {
	// ID is set when editing an existing profile.
	ID          string
	ProfileName string
	PersonName  string
	DOB         string
	TOB         string

	place     string
	latitude  *float64
	longitude *float64
	timezone  *float64
}

// EditForm returns a form prefilled from p.
func EditForm(p api.Profile) *Form {
	d := p.BirthDetails
	f := &Form{
		ID:          p.ID,
		ProfileName: p.ProfileName,
		PersonName:  d.Name,
		DOB:         d.Date(),
		TOB:         d.TOB,
	}
	if d.Located() {
		f.place = d.Place
		f.latitude, f.longitude, f.timezone = d.Latitude, d.Longitude, d.Timezone
	}
	return f
}

// Place returns the resolved place name.
func (f *Form) Place() string { return f.place }

// ApplyLocation fills place, latitude, longitude and timezone from a
// successful search. A result that failed or lacks any coordinate clears all
// four.
func (f *Form) ApplyLocation(res *api.LocationResult) {
	if !res.Located() {
		f.ClearLocation()
		return
	}
	f.place = res.Place
	f.latitude = api.Float(*res.Latitude)
	f.longitude = api.Float(*res.Longitude)
	f.timezone = api.Float(*res.Timezone)
}

// ClearLocation forgets the resolved location. Editing the place text does this.
func (f *Form) ClearLocation() {
	f.place = ""
	f.latitude, f.longitude, f.timezone = nil, nil, nil
}

// Locate searches for query and applies the result. It returns the message to
// show the user: "Found: <place> (<lat>, <lon>)" or the reason it failed.
func (f *Form) Locate(ctx context.Context, searcher LocationSearcher, query string) (string, error) {
	res, err := searcher.SearchLocation(ctx, query)
	if err != nil {
		f.ClearLocation()
		return api.Message(err, "Location not found"), err
	}
	f.ApplyLocation(res)
	if !res.Located() {
		return NotFoundMessage(res), nil
	}
	return FoundMessage(res), nil
}

// FoundMessage formats a successful location search.
func FoundMessage(res *api.LocationResult) string {
	return fmt.Sprintf("Found: %s (%s, %s)", res.Place, coordinate(res.Latitude), coordinate(res.Longitude))
}

// NotFoundMessage is the reason a search did not resolve: the backend's
// message, or "Location not found".
func NotFoundMessage(res *api.LocationResult) string {
	if res != nil && res.Message != "" && !res.Success {
		return res.Message
	}
	return "Location not found"
}

func coordinate(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Ready reports whether the form can be submitted: name, date and time are
// filled and latitude, longitude and timezone are all known.
func (f *Form) Ready() bool {
	return strings.TrimSpace(f.ProfileName) != "" &&
		f.DOB != "" && f.TOB != "" &&
		f.latitude != nil && f.longitude != nil && f.timezone != nil
}

// Details returns the birth details the form describes.
func (f *Form) Details() api.BirthDetails {
	return api.BirthDetails{
		Name:      strings.TrimSpace(f.PersonName),
		DOB:       f.DOB,
		TOB:       f.TOB,
		Place:     f.place,
		Latitude:  f.latitude,
		Longitude: f.longitude,
		Timezone:  f.timezone,
	}
}

// Submit saves a new profile or updates the edited one. A form that is not
// Ready is refused without a request.
func (f *Form) Submit(ctx context.Context, s *Store) Result {
	if !f.Ready() {
		msg := "Please fill in all fields and search for a location"
		if strings.TrimSpace(f.ProfileName) != "" && f.DOB != "" && f.TOB != "" {
			msg = "Please search for a location first"
		}
		return Result{Error: msg, Code: CodeInvalid}
	}

	name := strings.TrimSpace(f.ProfileName)
	if f.ID != "" {
		return s.Update(ctx, f.ID, name, f.Details())
	}
	return s.Save(ctx, name, f.Details())
}
