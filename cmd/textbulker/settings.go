package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/textbulker/textbulker/plugin"
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Seed default settings from the active SEO plugins",
	Long: `Run the activation step: integrations whose plugin is active default to
enabled, and flags already stored keep their values.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Activate(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or change the exposure settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings and integration diagnostics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		s, err := a.Manager.Settings(ctx)
		if err != nil {
			return err
		}
		diag, err := a.Manager.Diagnostics(ctx)
		if err != nil {
			return err
		}
		return printJSON(struct {
			Settings     plugin.Settings            `json:"settings"`
			Integrations []plugin.IntegrationStatus `json:"integrations"`
		}{s, diag})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Change exposure flags",
	Long: `Change exposure flags. Values must be 0 or 1; keys not named keep
their current value.

A running server caches settings for settings_cache_ttl (30s by default).
Send it SIGHUP to apply the change immediately.

Example:
  textbulker settings set expose_yoast=1 expose_rankmath=0`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		current, err := a.Manager.Settings(ctx)
		if err != nil {
			return err
		}
		form, err := settingsForm(current, args)
		if err != nil {
			return err
		}
		s, err := a.Manager.SaveSettings(ctx, form)
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

// settingsForm applies key=value arguments over current and returns the
// form to save.
func settingsForm(current plugin.Settings, args []string) (url.Values, error) {
	form := current.Form()
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		if !knownSetting(key) {
			return nil, fmt.Errorf("unknown setting %q", key)
		}
		if val != "0" && val != "1" {
			return nil, fmt.Errorf("setting %s: value must be 0 or 1, got %q", key, val)
		}
		form.Set(key, val)
	}
	return form, nil
}

func knownSetting(key string) bool {
	for _, in := range plugin.Integrations {
		if in.SettingKey == key {
			return true
		}
	}
	return false
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
