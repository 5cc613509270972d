package plugin

import (
	"context"
	"net/url"
)

// OptionName is the option row holding the settings record.
const OptionName = "textbulker_settings"

// Settings keys.
const (
	KeyExposeYoast    = "expose_yoast"
	KeyExposeRankMath = "expose_rankmath"
)

// settingKeys lists every key SanitizeSettings keeps, in form order.
var settingKeys = []string{KeyExposeYoast, KeyExposeRankMath}

// Settings is the persisted settings record. Values are 0 or 1. A key can be
// absent in a stored record; Enabled reads a missing key as disabled.
type Settings map[string]int

// Enabled reports whether the flag for key is set.
func (s Settings) Enabled(key string) bool {
	return s[key] != 0
}

// Clone returns a copy of s.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Form encodes s the way the settings form posts it.
func (s Settings) Form() url.Values {
	v := url.Values{}
	for _, k := range settingKeys {
		if s.Enabled(k) {
			v.Set(k, "1")
		} else {
			v.Set(k, "0")
		}
	}
	return v
}

// SettingsStore persists the settings record.
type SettingsStore interface {
	// Load returns the stored record, or an empty non-nil Settings when none
	// has been saved yet.
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// SanitizeSettings coerces arbitrary form input into the settings shape.
// Each flag is 1 only when its field is present and equals "1". Unknown
// fields are dropped. Fields posted as textbulker_settings[key] are accepted
// alongside plain key names.
func SanitizeSettings(input url.Values) Settings {
	out := make(Settings, len(settingKeys))
	for _, k := range settingKeys {
		out[k] = 0
		if v, ok := lookupField(input, k); ok && v == "1" {
			out[k] = 1
		}
	}
	return out
}

func lookupField(input url.Values, key string) (string, bool) {
	for _, name := range []string{OptionName + "[" + key + "]", key} {
		if vals, ok := input[name]; ok && len(vals) > 0 {
			return vals[len(vals)-1], true
		}
	}
	return "", false
}

// mergeDefaults overlays existing on top of defaults: a key present in
// existing keeps its stored value even when defaults would enable it.
func mergeDefaults(defaults, existing Settings) Settings {
	out := defaults.Clone()
	for k, v := range existing {
		out[k] = v
	}
	return out
}
