package plugin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textbulker/textbulker/auth"
)

func newTestServer(t *testing.T, store *memoryStore, active activePlugins, caller auth.Caller) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.WithCaller(c, caller)
			return next(c)
		}
	})
	adminOnly := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.FromContext(c).Can(auth.ManageOptions) {
				return c.Redirect(http.StatusSeeOther, "/admin/")
			}
			return next(c)
		}
	}
	h := NewHandler(NewManager(store, active, nil))
	h.RegisterRoutes(e, e.Group("/wp-json"), adminOnly)
	return e
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPingEndpointIsPublic(t *testing.T) {
	e := newTestServer(t, &memoryStore{}, activePlugins{}, auth.Anonymous)

	rec := do(e, httptest.NewRequest(http.MethodGet, "/wp-json/textbulker/v1/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body PingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, PingResponse{Status: "ok", Plugin: "TextBulker", Version: "1.0.1"}, body)
}

func TestVersionEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		caller auth.Caller
		status int
	}{
		{"administrator", auth.NewCaller("admin", auth.RoleAdministrator), http.StatusOK},
		{"editor", auth.NewCaller("ed", auth.RoleEditor), http.StatusForbidden},
		{"anonymous", auth.Anonymous, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t, &memoryStore{}, activePlugins{}, tt.caller)
			rec := do(e, httptest.NewRequest(http.MethodGet, "/wp-json/textbulker/v1/version", nil))
			require.Equal(t, tt.status, rec.Code)

			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"version":"1.0.1"}`, rec.Body.String())
				return
			}
			var body RESTError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "rest_forbidden", body.Code)
			assert.Equal(t, tt.status, body.Data.Status)
		})
	}
}

func TestSettingsPageRendersFormAndDiagnostics(t *testing.T) {
	store := &memoryStore{settings: Settings{KeyExposeYoast: 1, KeyExposeRankMath: 0}}
	e := newTestServer(t, store, activePlugins{yoastPlugin: true}, auth.NewCaller("admin", auth.RoleAdministrator))

	rec := do(e, httptest.NewRequest(http.MethodGet, SettingsURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `name="textbulker_settings[expose_yoast]" value="1" checked='checked'`)
	assert.Contains(t, body, `name="textbulker_settings[expose_rankmath]" value="1" />`)
	assert.Contains(t, body, "Yoast SEO active")
	assert.Contains(t, body, "Rank Math inactive or missing")
	assert.Contains(t, body, "Yoast exposure enabled")
	assert.Contains(t, body, "Rank Math exposure disabled")
}

func TestSettingsPageRequiresAdmin(t *testing.T) {
	e := newTestServer(t, &memoryStore{}, activePlugins{}, auth.NewCaller("ed", auth.RoleEditor))
	rec := do(e, httptest.NewRequest(http.MethodGet, SettingsURL, nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSaveSettingsSanitizesAndRedirects(t *testing.T) {
	store := &memoryStore{settings: Settings{KeyExposeYoast: 1}}
	e := newTestServer(t, store, activePlugins{}, auth.NewCaller("admin", auth.RoleAdministrator))

	form := url.Values{"textbulker_settings[expose_rankmath]": {"1"}, "unknown": {"1"}}
	req := httptest.NewRequest(http.MethodPost, SettingsURL, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := do(e, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, SettingsURL+"?settings-updated=true", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, Settings{KeyExposeYoast: 0, KeyExposeRankMath: 1}, store.settings)

	rec = do(e, httptest.NewRequest(http.MethodGet, SettingsURL+"?settings-updated=true", nil))
	assert.Contains(t, rec.Body.String(), "Settings saved.")
}
