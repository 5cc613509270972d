// Package plugin implements the TextBulker settings and exposure manager.
//
// The manager owns the two exposure flags, decides which SEO meta fields are
// exposed through the content API, answers the version and ping endpoints
// and seeds defaults on activation. Everything it needs from the host (option
// storage, plugin detection, the caller, the meta registry) is injected.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/textbulker/textbulker/auth"
	"github.com/textbulker/textbulker/meta"
)

// Version is the connector version reported by the REST endpoints.
const Version = "1.0.1"

// Name is the plugin name reported by ping.
const Name = "TextBulker"

var (
	// ErrUnauthorized is returned to anonymous callers of a guarded operation.
	ErrUnauthorized = errors.New("plugin: authentication required")
	// ErrForbidden is returned to authenticated callers lacking a capability.
	ErrForbidden = errors.New("plugin: not allowed")
)

// PluginDetector reports whether a third-party plugin is active.
type PluginDetector interface {
	IsPluginActive(plugin string) bool
}

// MetaRegistrar receives meta field registrations.
type MetaRegistrar interface {
	RegisterMeta(objectType, key string, args meta.Args)
}

// Integration is a supported SEO plugin whose meta fields can be exposed.
type Integration struct {
	Label      string
	Short      string
	Plugin     string // plugin file used for detection
	SettingKey string
	Fields     []string
}

// Integrations lists the supported SEO plugins.
var Integrations = []Integration{
	{
		Label:      "Yoast SEO",
		Short:      "Yoast",
		Plugin:     "wordpress-seo/wp-seo.php",
		SettingKey: KeyExposeYoast,
		Fields:     []string{"_yoast_wpseo_title", "_yoast_wpseo_metadesc", "_yoast_wpseo_focuskw"},
	},
	{
		Label:      "Rank Math",
		Short:      "Rank Math",
		Plugin:     "seo-by-rank-math/rank-math.php",
		SettingKey: KeyExposeRankMath,
		Fields:     []string{"rank_math_title", "rank_math_description", "rank_math_focus_keyword"},
	},
}

// VersionResponse is the body of the version endpoint.
type VersionResponse struct {
	Version string `json:"version"`
}

// PingResponse is the body of the ping endpoint.
type PingResponse struct {
	Status  string `json:"status"`
	Plugin  string `json:"plugin"`
	Version string `json:"version"`
}

// IntegrationStatus is one row of the diagnostics panel.
type IntegrationStatus struct {
	Label        string
	Short        string
	SettingKey   string
	PluginActive bool
	Exposed      bool
}

// Manager is the settings and exposure manager.
type Manager struct {
	store    SettingsStore
	detector PluginDetector
	logger   *zap.Logger
}

// NewManager creates a Manager. A nil logger is replaced with a no-op logger.
func NewManager(store SettingsStore, detector PluginDetector, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, detector: detector, logger: logger}
}

// GetVersion returns the connector version to callers that can manage options.
func (m *Manager) GetVersion(caller auth.Caller) (VersionResponse, error) {
	if !caller.Can(auth.ManageOptions) {
		if !caller.Authenticated() {
			return VersionResponse{}, ErrUnauthorized
		}
		return VersionResponse{}, ErrForbidden
	}
	return VersionResponse{Version: Version}, nil
}

// Ping always succeeds.
func (m *Manager) Ping() PingResponse {
	return PingResponse{Status: "ok", Plugin: Name, Version: Version}
}

// Settings loads the stored settings.
func (m *Manager) Settings(ctx context.Context) (Settings, error) {
	s, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("plugin: load settings: %w", err)
	}
	if s == nil {
		s = Settings{}
	}
	return s, nil
}

// SaveSettings sanitizes input and overwrites the stored record with it.
func (m *Manager) SaveSettings(ctx context.Context, input url.Values) (Settings, error) {
	s := SanitizeSettings(input)
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("plugin: save settings: %w", err)
	}
	m.logger.Info("settings saved",
		zap.Bool(KeyExposeYoast, s.Enabled(KeyExposeYoast)),
		zap.Bool(KeyExposeRankMath, s.Enabled(KeyExposeRankMath)))
	return s, nil
}

// MaybeRegisterMetaFields registers the fields of every integration whose
// flag is enabled and whose plugin is active. It returns the number of
// fields registered and is safe to call on every request.
func (m *Manager) MaybeRegisterMetaFields(ctx context.Context, reg MetaRegistrar) (int, error) {
	s, err := m.Settings(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, in := range Integrations {
		if !s.Enabled(in.SettingKey) || !m.detector.IsPluginActive(in.Plugin) {
			continue
		}
		for _, field := range in.Fields {
			reg.RegisterMeta(meta.ObjectPost, field, meta.Args{
				Type:       meta.TypeString,
				Single:     true,
				ShowInREST: true,
				Auth:       canEditPosts,
			})
			n++
		}
		m.logger.Debug("meta fields exposed", zap.String("integration", in.Label))
	}
	return n, nil
}

func canEditPosts(caller auth.Caller) bool {
	return caller.Can(auth.EditPosts)
}

// OnActivate seeds the settings record. Integrations whose plugin is active
// default to enabled; keys already present in the stored record win over
// these defaults.
func (m *Manager) OnActivate(ctx context.Context) (Settings, error) {
	defaults := Settings{}
	for _, in := range Integrations {
		if m.detector.IsPluginActive(in.Plugin) {
			defaults[in.SettingKey] = 1
		}
	}
	existing, err := m.Settings(ctx)
	if err != nil {
		return nil, err
	}
	merged := mergeDefaults(defaults, existing)
	if err := m.store.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("plugin: save settings: %w", err)
	}
	m.logger.Info("plugin activated", zap.Any("settings", map[string]int(merged)))
	return merged, nil
}

// Diagnostics reports detection and exposure state for each integration.
func (m *Manager) Diagnostics(ctx context.Context) ([]IntegrationStatus, error) {
	s, err := m.Settings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]IntegrationStatus, 0, len(Integrations))
	for _, in := range Integrations {
		out = append(out, IntegrationStatus{
			Label:        in.Label,
			Short:        in.Short,
			SettingKey:   in.SettingKey,
			PluginActive: m.detector.IsPluginActive(in.Plugin),
			Exposed:      s.Enabled(in.SettingKey),
		})
	}
	return out, nil
}

// SettingsURL is the admin settings page.
const SettingsURL = "/admin/settings/"

// ActionLinks prepends the settings link to the plugin's action links.
func ActionLinks(links []string) []string {
	out := make([]string, 0, len(links)+1)
	out = append(out, `<a href="`+SettingsURL+`">Settings</a>`)
	return append(out, links...)
}
