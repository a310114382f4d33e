package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/pages"
	"github.com/felixgeelhaar/vedic/internal/profiles"
	"github.com/felixgeelhaar/vedic/internal/tui"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage birth profiles",
	Long: `Create, edit, delete and select the birth profiles stored with your account.

The selected profile is remembered between runs and is the subject of
chart, dasha, compat, predict and ask.

Examples:
  vedic profile create --name Me --person Asha --dob 1990-05-14 --tob 06:30 --place Chennai
  vedic profile list
  vedic profile select 65f1c2`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your profiles",
	Args:  cobra.NoArgs,
	RunE:  runE(runProfileList),
}

var profileShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a profile, the selected one by default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runE(runProfileShow),
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a profile",
	Long: `Create a birth profile. The birth place is searched to fill latitude,
longitude and timezone; the profile is only saved once it resolved.

Missing fields are prompted for when a terminal is attached.`,
	Args: cobra.NoArgs,
	RunE: runE(runProfileCreate),
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a profile",
	Long: `Change the fields given as flags. Without flags the profile form is opened
with the current values. A new --place is searched again.`,
	Args: cobra.ExactArgs(1),
	RunE: runE(runProfileUpdate),
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runE(runProfileDelete),
}

var profileSelectCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Select the profile other commands work on",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runE(runProfileSelect),
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the selected profile",
	Args:  cobra.NoArgs,
	RunE:  runE(runProfileClear),
}

var (
	profileName   string
	profilePerson string
	profileDOB    string
	profileTOB    string
	profilePlace  string
	profileSelect bool
	profileYes    bool
)

func init() {
	for _, c := range []*cobra.Command{profileCreateCmd, profileUpdateCmd} {
		f := c.Flags()
		f.StringVar(&profileName, "name", "", "profile name")
		f.StringVar(&profilePerson, "person", "", "name of the person (optional)")
		f.StringVar(&profileDOB, "dob", "", "date of birth, YYYY-MM-DD")
		f.StringVar(&profileTOB, "tob", "", "time of birth, HH:MM")
		f.StringVar(&profilePlace, "place", "", "birth place to search for")
	}
	profileCreateCmd.Flags().BoolVar(&profileSelect, "select", false, "select the new profile")
	profileDeleteCmd.Flags().BoolVarP(&profileYes, "yes", "y", false, "delete without asking")

	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileCreateCmd, profileUpdateCmd,
		profileDeleteCmd, profileSelectCmd, profileClearCmd)
	rootCmd.AddCommand(profileCmd)
}

// profileList is the outcome of profile list.
type profileList struct {
	Profiles []api.Profile `json:"profiles" yaml:"profiles"`
	Selected string        `json:"selected,omitempty" yaml:"selected,omitempty"`
}

func (l profileList) Text() string {
	if len(l.Profiles) == 0 {
		return "No profiles yet. Create one with 'vedic profile create'"
	}
	var b strings.Builder
	for i, p := range l.Profiles {
		if i > 0 {
			b.WriteByte('\n')
		}
		mark := " "
		if p.ID == l.Selected {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s", mark, p.ID, tui.ProfileLabel(p))
	}
	return b.String()
}

func (a *App) profilePage(cmd *cobra.Command) (*pages.ProfileSelection, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	page := pages.NewProfileSelection(a.Profiles, a.Client)
	page.Mount(cmd.Context())
	return page, nil
}

func (a *App) selectedID() string {
	if p := a.Profiles.Selected(); p != nil {
		return p.ID
	}
	return ""
}

func runProfileList(cmd *cobra.Command, _ []string, a *App) error {
	page, err := a.profilePage(cmd)
	if err != nil {
		return err
	}
	return a.show(profileList{Profiles: page.Profiles(), Selected: a.selectedID()}, nil)
}

func profileText(p api.Profile) string {
	d := p.BirthDetails
	coords := ""
	if d.Located() {
		coords = fmt.Sprintf("%g, %g (%s)", *d.Latitude, *d.Longitude, formatOffset(*d.Timezone))
	}
	return kv(
		"ID", p.ID,
		"Profile", p.ProfileName,
		"Person", d.DisplayName(),
		"Born", strings.TrimSpace(d.Date()+" "+d.TOB),
		"Place", d.Place,
		"Coordinates", coords,
	)
}

func runProfileShow(cmd *cobra.Command, args []string, a *App) error {
	if len(args) == 0 {
		p, err := a.requireProfile()
		if err != nil {
			return err
		}
		return a.show(p, func() string { return profileText(*p) })
	}
	if _, err := a.profilePage(cmd); err != nil {
		return err
	}
	p, ok := a.Profiles.Find(args[0])
	if !ok {
		return vedicerrors.NewProfileNotFoundError(args[0])
	}
	return a.show(p, func() string { return profileText(p) })
}

// fillForm copies the flags that were given into the form and reports
// whether any was.
func fillForm(cmd *cobra.Command, f *profiles.Form) bool {
	set := false
	apply := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = strings.TrimSpace(v)
			set = true
		}
	}
	apply("name", &f.ProfileName, profileName)
	apply("person", &f.PersonName, profilePerson)
	apply("dob", &f.DOB, profileDOB)
	apply("tob", &f.TOB, profileTOB)
	if cmd.Flags().Changed("place") {
		set = true
	}
	return set
}

// editProfile completes the form from flags or the interactive form, resolves
// the birth place and submits.
func (a *App) editProfile(cmd *cobra.Command, page *pages.ProfileSelection, op string) (profiles.Result, error) {
	ctx := cmd.Context()
	place := strings.TrimSpace(profilePlace)
	given := fillForm(cmd, page.Form)

	f := page.Form
	missing := f.ProfileName == "" || f.DOB == "" || f.TOB == "" || (place == "" && f.Place() == "")
	if missing || !given {
		if !tui.ShouldPrompt() {
			return profiles.Result{}, vedicerrors.NewInputInvalidError("profile", "--name, --dob, --tob and --place")
		}
		if err := tui.RunProfileForm(f, &place); err != nil {
			return profiles.Result{}, err
		}
		place = strings.TrimSpace(place)
	}

	if place != "" {
		if err := page.Search(ctx, place); err != nil {
			return profiles.Result{}, err
		}
		a.note("%s", page.Notice)
	}
	if !page.Form.Ready() && page.Form.Place() == "" {
		return profiles.Result{}, vedicerrors.NewProfileNoLocationError()
	}

	res := page.Submit(ctx)
	a.Metrics.RecordProfileMutation(op, res.Success)
	return res, a.resultError(res)
}

func runProfileCreate(cmd *cobra.Command, _ []string, a *App) error {
	page, err := a.profilePage(cmd)
	if err != nil {
		return err
	}
	res, err := a.editProfile(cmd, page, "save")
	if err != nil {
		return err
	}
	if profileSelect && res.ProfileID != "" {
		page.Choose(res.ProfileID)
	}
	return a.show(res, func() string {
		msg := "Profile saved"
		if res.ProfileID != "" {
			msg += " (" + res.ProfileID + ")"
		}
		if profileSelect {
			msg += " and selected"
		}
		return msg
	})
}

func runProfileUpdate(cmd *cobra.Command, args []string, a *App) error {
	page, err := a.profilePage(cmd)
	if err != nil {
		return err
	}
	if !page.Edit(args[0]) {
		return vedicerrors.NewProfileNotFoundError(args[0])
	}
	res, err := a.editProfile(cmd, page, "update")
	if err != nil {
		return err
	}
	return a.show(res, func() string { return "Profile updated" })
}

func runProfileDelete(cmd *cobra.Command, args []string, a *App) error {
	page, err := a.profilePage(cmd)
	if err != nil {
		return err
	}
	id := args[0]
	p, ok := a.Profiles.Find(id)
	if !ok {
		return vedicerrors.NewProfileNotFoundError(id)
	}
	if !profileYes {
		if !tui.ShouldPrompt() {
			return vedicerrors.NewInputInvalidError("confirmation", "--yes to delete without a terminal")
		}
		ok, err := tui.PromptForConfirmation(fmt.Sprintf("Delete profile %q?", p.ProfileName), false)
		if err != nil {
			return err
		}
		if !ok {
			a.note("Cancelled")
			return nil
		}
	}
	res := page.Delete(cmd.Context(), id)
	a.Metrics.RecordProfileMutation("delete", res.Success)
	if err := a.resultError(res); err != nil {
		return err
	}
	return a.show(res, func() string { return "Profile deleted" })
}

func runProfileSelect(cmd *cobra.Command, args []string, a *App) error {
	page, err := a.profilePage(cmd)
	if err != nil {
		return err
	}
	var id string
	switch {
	case len(args) == 1:
		id = args[0]
	case tui.ShouldPrompt():
		id, err = tui.PickProfile("Select a profile", page.Profiles(), a.selectedID())
		if err != nil {
			return err
		}
	default:
		return vedicerrors.NewInputInvalidError("profile id", "vedic profile select <id>")
	}
	if !page.Choose(id) {
		return vedicerrors.NewProfileNotFoundError(id)
	}
	p := a.Profiles.Selected()
	return a.show(p, func() string { return "Selected " + tui.ProfileLabel(*p) })
}

func runProfileClear(_ *cobra.Command, _ []string, a *App) error {
	pages.NewDashboard(a.Session, a.Profiles, a.Client).ChangeProfile()
	return a.show(map[string]any{"selected": nil}, func() string { return "Profile selection cleared" })
}
