// Package views holds the admin page components and the view models they
// render. View models mirror domain types so this package imports nothing
// from the application.
package views

// PluginEntry is one row of the plugins list.
type PluginEntry struct {
	Name        string
	File        string
	Description string
	Active      bool
	ActionLinks []string // pre-rendered HTML links
}

// Checkbox is a settings form field.
type Checkbox struct {
	Name    string // form field name
	Label   string
	Checked bool
}

// Diagnostic is one line of the diagnostics panel.
type Diagnostic struct {
	OK   bool
	Text string
}

// SettingsPage is the view model for the settings screen.
type SettingsPage struct {
	Title       string
	Section     string
	Fields      []Checkbox
	Diagnostics []Diagnostic
	Message     string
	CSRFToken   string
}
