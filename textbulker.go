// Package textbulker is the TextBulker connector: a small Echo application
// that stores the connector settings, serves the version and ping endpoints,
// exposes SEO meta fields through the content API and renders the admin
// settings page.
//
// The settings and exposure logic lives in package plugin; this package
// supplies what it needs from a host: option storage, plugin detection,
// callers, the content API and the admin screens.
package textbulker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/textbulker/textbulker/auth"
	"github.com/textbulker/textbulker/plugin"
)

// App is the central TextBulker application. It wires together the store,
// settings cache, manager, handlers and middleware.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Settings *SettingsCache
	Manager  *plugin.Manager
	Logger   *zap.Logger

	detector     plugin.PluginDetector
	users        *auth.Users
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	opened       bool
	ready        bool
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.detector == nil {
		a.detector = NewPluginSet(cfg.ActivePlugins)
	}
	return a
}

// Open initializes the store, settings cache, API users and manager. It is
// enough for commands that do not serve HTTP.
func (a *App) Open() error {
	if a.opened {
		return nil
	}
	users, err := auth.NewUsers(a.Config.APIUsers)
	if err != nil {
		return fmt.Errorf("textbulker: %w", err)
	}
	a.users = users

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("textbulker: init store: %w", err)
	}
	a.Store = store
	a.Settings = NewSettingsCache(store.SettingsStore(a.Logger), a.Config.SettingsCacheTTL)
	a.Manager = plugin.NewManager(a.Settings, a.detector, a.Logger.Named("plugin"))
	a.opened = true
	return nil
}

// Activate runs the activation step and records the activated version.
func (a *App) Activate(ctx context.Context) (plugin.Settings, error) {
	if err := a.Open(); err != nil {
		return nil, err
	}
	s, err := a.Manager.OnActivate(ctx)
	if err != nil {
		return nil, fmt.Errorf("textbulker: activate: %w", err)
	}
	if err := a.Store.SetOption(ctx, optionActivatedVersion, plugin.Version); err != nil {
		return nil, fmt.Errorf("textbulker: record activation: %w", err)
	}
	return s, nil
}

// ReloadSettings drops the cached settings record so the next request reads
// the stored one. Changes written by another process show up without
// waiting for the cache TTL.
func (a *App) ReloadSettings() {
	if a.Settings == nil {
		return
	}
	a.Settings.Invalidate()
	a.Logger.Info("settings cache invalidated")
}

// maybeActivate activates on a fresh install or after a version change.
func (a *App) maybeActivate(ctx context.Context) error {
	v, _, err := a.Store.GetOption(ctx, optionActivatedVersion)
	if err != nil {
		return fmt.Errorf("textbulker: read activation: %w", err)
	}
	if v == plugin.Version {
		return nil
	}
	a.Logger.Info("activating", zap.String("from", v), zap.String("to", plugin.Version))
	_, err = a.Activate(ctx)
	return err
}

// Setup opens the app, runs pending activation and installs middleware and
// routes. Start calls it; tests call it to serve requests through a.Echo.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.validateServe(); err != nil {
		return err
	}
	if err := a.Open(); err != nil {
		return err
	}
	if err := a.maybeActivate(ctx); err != nil {
		return err
	}
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves HTTP until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("version", plugin.Version))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))

	rest := e.Group(a.Config.RESTPrefix)
	plugin.NewHandler(a.Manager).RegisterRoutes(e, rest, requireAdmin)

	rest.GET(postsRoute, a.handleListPosts)
	rest.POST(postsRoute, a.handleSavePost)
	rest.GET(postsRoute+"/:slug", a.handleGetPost)
	rest.POST(postsRoute+"/:slug", a.handleSavePost)
	rest.DELETE(postsRoute+"/:slug", a.handleDeletePost)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
