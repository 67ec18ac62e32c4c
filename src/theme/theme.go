// Package theme holds the process-wide presentation theme preference.
package theme

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"coin-dashboard/src/helpers"
	"coin-dashboard/src/interfaces"
	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
)

// Theme is the presentation colour scheme.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// PreferenceKey is the storage key of the theme preference.
const PreferenceKey = "theme"

// EnvColorScheme overrides the detected system preference.
const EnvColorScheme = "COIN_DASHBOARD_COLOR_SCHEME"

// -----------------------------------------------------------------------------

// ParseTheme validates a theme name, ignoring case and spaces.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Dark:
		return Dark, nil
	case Light:
		return Light, nil
	}
	return "", helpers.NewValidationError("unknown theme %q", s)
}

// SystemPreference reads the host colour scheme from the environment and
// falls back to light.
func SystemPreference() Theme {
	if t, err := ParseTheme(os.Getenv(EnvColorScheme)); err == nil {
		return t
	}
	return Light
}

// -----------------------------------------------------------------------------

// Manager owns the current theme. Updates are written through to the
// preference store and broadcast to every open view.
type Manager struct {
	Store  interfaces.IPreferenceStore
	Logger *logger.Logger
	System func() Theme

	mu        sync.RWMutex
	current   Theme
	exchanger interfaces.IDataExchanger
}

// -----------------------------------------------------------------------------

func NewManager(store interfaces.IPreferenceStore, log *logger.Logger) *Manager {
	return &Manager{
		Store:   store,
		Logger:  log,
		System:  SystemPreference,
		current: Light,
	}
}

// -----------------------------------------------------------------------------

// SetExchanger attaches the view broadcaster.
func (m *Manager) SetExchanger(ex interfaces.IDataExchanger) {
	m.mu.Lock()
	m.exchanger = ex
	m.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Init loads the persisted preference, or the system preference when none
// is stored or the stored value is unreadable.
func (m *Manager) Init(ctx context.Context) (Theme, error) {
	value, ok, err := m.Store.Get(ctx, PreferenceKey)
	if err != nil {
		m.setCurrent(m.System())
		return m.Current(), helpers.NewDatabaseError("failed to load theme preference", err)
	}

	t := m.System()
	if ok {
		parsed, perr := ParseTheme(value)
		if perr != nil {
			m.Logger.Warning("Ignoring stored theme %q", value)
		} else {
			t = parsed
		}
	}
	m.setCurrent(t)
	m.Logger.Info("Theme initialized: %s", t)
	return t, nil
}

// -----------------------------------------------------------------------------

func (m *Manager) Current() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) setCurrent(t Theme) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Set persists t, makes it current and notifies open views.
func (m *Manager) Set(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	if err := m.Store.Set(ctx, PreferenceKey, string(t)); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to save theme %s", t), err)
	}

	m.mu.Lock()
	m.current = t
	ex := m.exchanger
	m.mu.Unlock()

	if ex != nil {
		ex.Broadcast(&models.MPushMessage{Type: models.PushTheme, Theme: string(t)})
	}
	m.Logger.Debug("Theme set to %s", t)
	return nil
}

// -----------------------------------------------------------------------------

// Toggle switches between dark and light.
func (m *Manager) Toggle(ctx context.Context) (Theme, error) {
	next := Dark
	if m.Current() == Dark {
		next = Light
	}
	if err := m.Set(ctx, next); err != nil {
		return m.Current(), err
	}
	return next, nil
}
