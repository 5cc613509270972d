package plugin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/textbulker/textbulker/auth"
	"github.com/textbulker/textbulker/views"
)

// Namespace is the REST namespace of the connector routes.
const Namespace = "/textbulker/v1"

// RESTError is the JSON error envelope of the REST API.
type RESTError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Data    RESTErrorData `json:"data"`
}

// RESTErrorData carries the HTTP status inside RESTError.
type RESTErrorData struct {
	Status int `json:"status"`
}

// NewRESTError returns an HTTP error whose body is the REST error envelope.
func NewRESTError(status int, code, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, RESTError{Code: code, Message: message, Data: RESTErrorData{Status: status}})
}

// ForbiddenError maps a denied capability check to 401 for anonymous callers
// and 403 for everyone else.
func ForbiddenError(caller auth.Caller) *echo.HTTPError {
	status := http.StatusForbidden
	if !caller.Authenticated() {
		status = http.StatusUnauthorized
	}
	return NewRESTError(status, "rest_forbidden", "Sorry, you are not allowed to do that.")
}

// Handler serves the connector REST endpoints and the settings page.
type Handler struct {
	manager *Manager
}

// NewHandler creates a Handler for m.
func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// RegisterRoutes mounts the REST endpoints on rest and the settings page on
// e behind adminAuth.
func (h *Handler) RegisterRoutes(e *echo.Echo, rest *echo.Group, adminAuth echo.MiddlewareFunc) {
	ns := rest.Group(Namespace)
	ns.GET("/version", h.Version)
	ns.GET("/ping", h.Ping)

	e.GET(SettingsURL, h.SettingsPage, adminAuth)
	e.POST(SettingsURL, h.SaveSettings, adminAuth)
}

// Version answers GET /textbulker/v1/version.
func (h *Handler) Version(c echo.Context) error {
	caller := auth.FromContext(c)
	resp, err := h.manager.GetVersion(caller)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return ForbiddenError(caller)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Ping answers GET /textbulker/v1/ping.
func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Ping())
}

// SettingsPage renders the settings form.
func (h *Handler) SettingsPage(c echo.Context) error {
	msg := ""
	if c.QueryParam("settings-updated") == "true" {
		msg = "Settings saved."
	}
	return h.renderSettings(c, msg)
}

// SaveSettings handles the settings form submission.
func (h *Handler) SaveSettings(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return err
	}
	if _, err := h.manager.SaveSettings(c.Request().Context(), form); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, SettingsURL+"?settings-updated=true")
}

func (h *Handler) renderSettings(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	s, err := h.manager.Settings(ctx)
	if err != nil {
		return err
	}
	diag, err := h.manager.Diagnostics(ctx)
	if err != nil {
		return err
	}
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	vm := views.SettingsPage{
		Title:     "TextBulker Settings",
		Section:   "Main Settings",
		Message:   msg,
		CSRFToken: token,
	}
	for _, in := range Integrations {
		vm.Fields = append(vm.Fields, views.Checkbox{
			Name:    OptionName + "[" + in.SettingKey + "]",
			Label:   "Expose " + in.Short + " Metadata",
			Checked: s.Enabled(in.SettingKey),
		})
	}
	vm.Diagnostics = diagnosticsToView(diag)
	return views.Render(c, http.StatusOK, views.Settings(vm))
}

// diagnosticsToView lists plugin detection first, then exposure flags.
func diagnosticsToView(diag []IntegrationStatus) []views.Diagnostic {
	out := make([]views.Diagnostic, 0, 2*len(diag))
	for _, d := range diag {
		text := d.Label + " inactive or missing"
		if d.PluginActive {
			text = d.Label + " active"
		}
		out = append(out, views.Diagnostic{OK: d.PluginActive, Text: text})
	}
	for _, d := range diag {
		text := d.Short + " exposure disabled"
		if d.Exposed {
			text = d.Short + " exposure enabled"
		}
		out = append(out, views.Diagnostic{OK: d.Exposed, Text: text})
	}
	return out
}
