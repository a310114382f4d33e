package pages

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/vedic/internal/api"
	"github.com/felixgeelhaar/vedic/internal/profiles"
)

// ProfileSelection lists, creates, edits, deletes and selects profiles.
type ProfileSelection struct {
	store    *profiles.Store
	searcher profiles.LocationSearcher

	Form *profiles.Form
	// Notice is the outcome of the last location search.
	Notice string
}

// NewProfileSelection creates the profile page with an empty form.
func NewProfileSelection(store *profiles.Store, searcher profiles.LocationSearcher) *ProfileSelection {
	return &ProfileSelection{store: store, searcher: searcher, Form: &profiles.Form{}}
}

// Mount loads the profile list.
func (p *ProfileSelection) Mount(ctx context.Context) {
	p.store.Load(ctx)
}

// Profiles returns the loaded profiles.
func (p *ProfileSelection) Profiles() []api.Profile { return p.store.List() }

// Edit fills the form from the profile with the given id.
func (p *ProfileSelection) Edit(id string) bool {
	prof, ok := p.store.Find(id)
	if !ok {
		return false
	}
	p.Form = profiles.EditForm(prof)
	p.Notice = ""
	return true
}

// Search resolves the birth place of the form.
func (p *ProfileSelection) Search(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		p.Form.ClearLocation()
		p.Notice = "Please enter a location"
		return &api.ValidationError{Fields: []string{"query"}, Message: p.Notice}
	}
	msg, err := p.Form.Locate(ctx, p.searcher, query)
	p.Notice = msg
	return err
}

// Submit saves or updates the profile in the form. A successful submit
// resets the form.
func (p *ProfileSelection) Submit(ctx context.Context) profiles.Result {
	if strings.TrimSpace(p.Form.ProfileName) == "" {
		return profiles.Result{Error: "Please enter a profile name", Code: profiles.CodeInvalid}
	}
	res := p.Form.Submit(ctx, p.store)
	if res.Success {
		p.Form = &profiles.Form{}
		p.Notice = ""
	}
	return res
}

// Choose selects the profile with the given id.
func (p *ProfileSelection) Choose(id string) bool {
	prof, ok := p.store.Find(id)
	if !ok {
		return false
	}
	p.store.Select(prof)
	return true
}

// Delete removes the profile with the given id.
func (p *ProfileSelection) Delete(ctx context.Context, id string) profiles.Result {
	return p.store.Delete(ctx, id)
}
