package config

import "fmt"

// Profile describes one records portal: where it lives, which form elements
// the browser drives, and which labels identify record fields on the results
// page. The portal's page structure is externally defined and changes
// without notice, so everything here is configurable via the .blotterscan
// file rather than hard-coded.
type Profile struct {
	// PortalURL is the search page address, including any routing query
	// parameters the portal needs.
	PortalURL string `yaml:"portalURL"`

	// Login holds the login form selectors.
	Login LoginSelectors `yaml:"login"`

	// Search holds the search form selectors.
	Search SearchSelectors `yaml:"search"`

	// Results holds the results page selectors.
	Results ResultSelectors `yaml:"results"`

	// Labels maps the canonical record fields to the labels that precede
	// them in a result entry's text.
	Labels FieldLabels `yaml:"labels"`

	// ExtraLabels maps additional entry-text labels to export field names.
	// Records carry matches in their Extra map. This is the escape hatch
	// for portal fields blotterscan does not model.
	ExtraLabels map[string]string `yaml:"extraLabels,omitempty"`
}

// LoginSelectors identifies the login form elements.
type LoginSelectors struct {
	// UsernameField and PasswordField are CSS selectors for the credential
	// inputs. Submitting the password field logs in.
	UsernameField string `yaml:"usernameField"`
	PasswordField string `yaml:"passwordField"`
}

// SearchSelectors identifies the search form elements.
type SearchSelectors struct {
	// FirstNameField and LastNameField are CSS selectors for the name
	// inputs. Their presence also marks a successful login.
	FirstNameField string `yaml:"firstNameField"`
	LastNameField  string `yaml:"lastNameField"`

	// StartDateField is a CSS selector for the search-window start date.
	// The field is set via script because the portal attaches a date
	// picker that swallows keyboard input.
	StartDateField string `yaml:"startDateField"`

	// SubmitButton is a CSS selector for the search button.
	SubmitButton string `yaml:"submitButton"`
}

// ResultSelectors identifies the results page elements.
type ResultSelectors struct {
	// Container is a CSS selector for the results wrapper. Waiting for it
	// marks the page as rendered.
	Container string `yaml:"container"`

	// Entries is a CSS selector matching each booking entry inside the
	// container.
	Entries string `yaml:"entries"`
}

// FieldLabels holds the entry-text labels for the canonical record fields.
// An empty label disables extraction of that field.
type FieldLabels struct {
	BookingNumber string `yaml:"bookingNumber"`
	BookingDate   string `yaml:"bookingDate"`
	ReleaseDate   string `yaml:"releaseDate"`
	Charges       string `yaml:"charges"`
	Facility      string `yaml:"facility"`
}

// DefaultProfile returns the built-in profile for the Palm Beach County
// Sheriff's Office media blotter, the portal this tool was written for.
func DefaultProfile() *Profile {
	return &Profile{
		PortalURL: "https://www3.pbso.org/mediablotter/index.cfm?fa=search1",
		Login: LoginSelectors{
			UsernameField: "#username",
			PasswordField: "#password",
		},
		Search: SearchSelectors{
			FirstNameField: "#firstName",
			LastNameField:  "#lastName",
			StartDateField: `input[name="start_date"]`,
			SubmitButton:   "input.vc_btn3.vc_btn3-shape-rounded.btn.btn-md.btn-primary",
		},
		Results: ResultSelectors{
			Container: "#resultspage",
			Entries:   `div[id^="allresults_"]`,
		},
		Labels: FieldLabels{
			BookingNumber: "Booking Number:",
			BookingDate:   "Booking Date/Time:",
			ReleaseDate:   "Release Date:",
			Charges:       "Charges:",
			Facility:      "Cell Location:",
		},
	}
}

// Validate checks that the profile carries everything a session needs.
func (p *Profile) Validate() error {
	required := map[string]string{
		"portalURL":             p.PortalURL,
		"login.usernameField":   p.Login.UsernameField,
		"login.passwordField":   p.Login.PasswordField,
		"search.firstNameField": p.Search.FirstNameField,
		"search.lastNameField":  p.Search.LastNameField,
		"search.submitButton":   p.Search.SubmitButton,
		"results.entries":       p.Results.Entries,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s is empty", ErrProfileIncomplete, name)
		}
	}
	return nil
}
