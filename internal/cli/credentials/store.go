// Package credentials persists quillctl's named admin-API contexts
// (server URL, username, access token) under the user's config dir.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

var (
	ErrNoCurrentContext = errors.New("no current context set")
	ErrContextNotFound  = errors.New("context not found")
)

// Context is one saved connection to a QuillFS admin API. The token is a
// single access token; once it expires the user logs in again.
type Context struct {
	ServerURL   string    `json:"server_url"`
	Username    string    `json:"username,omitempty"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// IsExpired treats a token within a minute of its deadline as expired so
// a request started now still finishes inside its validity.
func (c *Context) IsExpired() bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(time.Minute).After(c.ExpiresAt)
}

// Preferences are sticky display choices.
type Preferences struct {
	DefaultOutput string `json:"default_output,omitempty"` // table, json, yaml
	Color         string `json:"color,omitempty"`          // auto, always, never
	Editor        string `json:"editor,omitempty"`
}

// Config is the serialized shape of the whole store.
type Config struct {
	CurrentContext string              `json:"current_context"`
	Contexts       map[string]*Context `json:"contexts"`
	Preferences    Preferences         `json:"preferences,omitempty"`
}

// Store reads and writes the config file. Mutating methods persist
// immediately; tokens never sit only in memory.
type Store struct {
	path   string
	config *Config
}

// NewStore opens `$XDG_CONFIG_HOME/quillctl/config.json` (falling back
// to ~/.config), creating an empty store when the file is absent.
func NewStore() (*Store, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	s := &Store{path: filepath.Join(configHome, "quillctl", "config.json")}
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		s.config = &Config{Contexts: make(map[string]*Context)}
	case err != nil:
		return nil, err
	default:
		s.config = &Config{}
		if err := json.Unmarshal(data, s.config); err != nil {
			return nil, fmt.Errorf("corrupt credentials file %s: %w", s.path, err)
		}
		if s.config.Contexts == nil {
			s.config.Contexts = make(map[string]*Context)
		}
	}
	return s, nil
}

// save writes the file 0600 under a 0700 directory; it holds tokens.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// ConfigPath returns where the store persists.
func (s *Store) ConfigPath() string { return s.path }

// GetCurrentContext returns the active context.
func (s *Store) GetCurrentContext() (*Context, error) {
	if s.config.CurrentContext == "" {
		return nil, ErrNoCurrentContext
	}
	ctx, ok := s.config.Contexts[s.config.CurrentContext]
	if !ok {
		return nil, ErrContextNotFound
	}
	return ctx, nil
}

// GetCurrentContextName returns the active context's name, "" when none.
func (s *Store) GetCurrentContextName() string {
	return s.config.CurrentContext
}

// GetContext looks up a context by name.
func (s *Store) GetContext(name string) (*Context, error) {
	ctx, ok := s.config.Contexts[name]
	if !ok {
		return nil, ErrContextNotFound
	}
	return ctx, nil
}

// ListContexts returns all context names, sorted.
func (s *Store) ListContexts() []string {
	names := make([]string, 0, len(s.config.Contexts))
	for name := range s.config.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetContext creates or replaces a named context.
func (s *Store) SetContext(name string, ctx *Context) error {
	s.config.Contexts[name] = ctx
	return s.save()
}

// UseContext makes name the active context.
func (s *Store) UseContext(name string) error {
	if _, ok := s.config.Contexts[name]; !ok {
		return ErrContextNotFound
	}
	s.config.CurrentContext = name
	return s.save()
}

// RenameContext renames a context, following the active pointer along.
func (s *Store) RenameContext(oldName, newName string) error {
	ctx, ok := s.config.Contexts[oldName]
	if !ok {
		return ErrContextNotFound
	}
	delete(s.config.Contexts, oldName)
	s.config.Contexts[newName] = ctx
	if s.config.CurrentContext == oldName {
		s.config.CurrentContext = newName
	}
	return s.save()
}

// DeleteContext removes a context, unsetting the active pointer if it
// pointed there.
func (s *Store) DeleteContext(name string) error {
	if _, ok := s.config.Contexts[name]; !ok {
		return ErrContextNotFound
	}
	delete(s.config.Contexts, name)
	if s.config.CurrentContext == name {
		s.config.CurrentContext = ""
	}
	return s.save()
}

// UpdateToken replaces the active context's access token.
func (s *Store) UpdateToken(accessToken string, expiresAt time.Time) error {
	ctx, err := s.GetCurrentContext()
	if err != nil {
		return err
	}
	ctx.AccessToken = accessToken
	ctx.ExpiresAt = expiresAt
	return s.save()
}

// ClearCurrentContext drops the active context's credentials (logout)
// but keeps server URL and username so the next login is one password
// prompt.
func (s *Store) ClearCurrentContext() error {
	ctx, err := s.GetCurrentContext()
	if err != nil {
		return err
	}
	ctx.AccessToken = ""
	ctx.ExpiresAt = time.Time{}
	return s.save()
}

// GetPreferences returns the saved display preferences.
func (s *Store) GetPreferences() Preferences {
	return s.config.Preferences
}

// SetPreferences replaces the display preferences.
func (s *Store) SetPreferences(prefs Preferences) error {
	s.config.Preferences = prefs
	return s.save()
}
