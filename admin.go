package textbulker

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/textbulker/textbulker/auth"
	"github.com/textbulker/textbulker/plugin"
	"github.com/textbulker/textbulker/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !auth.FromContext(c).Can(auth.ManageOptions) {
		return views.Render(c, http.StatusOK, views.AdminLogin(false, CsrfToken(c)))
	}
	return views.Render(c, http.StatusOK, views.Plugins(a.pluginEntries(), CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("admin login failed", zap.String("ip", ip))
	return views.Render(c, http.StatusOK, views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// pluginEntries lists the connector itself followed by the SEO plugins it
// integrates with.
func (a *App) pluginEntries() []views.PluginEntry {
	entries := []views.PluginEntry{{
		Name:        plugin.Name + " " + plugin.Version,
		File:        "textbulker/textbulker.php",
		Description: "Connects this site to the TextBulker publishing platform.",
		Active:      true,
		ActionLinks: plugin.ActionLinks(nil),
	}}
	for _, in := range plugin.Integrations {
		desc := "Inactive or missing."
		active := a.detector.IsPluginActive(in.Plugin)
		if active {
			desc = "Active."
		}
		entries = append(entries, views.PluginEntry{
			Name:        in.Label,
			File:        in.Plugin,
			Description: desc,
			Active:      active,
		})
	}
	return entries
}
