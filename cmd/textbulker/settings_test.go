package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textbulker/textbulker/plugin"
)

func TestSettingsFormMergesOverCurrent(t *testing.T) {
	current := plugin.Settings{plugin.KeyExposeYoast: 1}

	form, err := settingsForm(current, []string{"expose_rankmath=1"})
	require.NoError(t, err)
	assert.Equal(t, plugin.Settings{plugin.KeyExposeYoast: 1, plugin.KeyExposeRankMath: 1}, plugin.SanitizeSettings(form))

	form, err = settingsForm(current, []string{"expose_yoast=0"})
	require.NoError(t, err)
	assert.Equal(t, plugin.Settings{plugin.KeyExposeYoast: 0, plugin.KeyExposeRankMath: 0}, plugin.SanitizeSettings(form))
}

func TestSettingsFormRejectsBadArgs(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{"not a pair", "expose_yoast"},
		{"unknown key", "expose_everything=1"},
		{"word value", "expose_yoast=true"},
		{"padded value", "expose_yoast= 1"},
		{"empty value", "expose_rankmath="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settingsForm(plugin.Settings{}, []string{tt.arg})
			assert.Error(t, err)
		})
	}
}
