package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Catalog sources.
const (
	SourceFile = "file"
	SourceHTTP = "http"
)

// Media modes.
const (
	MediaModeFS   = "fs"
	MediaModeHTTP = "http"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Media    MediaConfig       `yaml:"media"`
	Loader   LoaderConfig      `yaml:"loader"`
	Viewport ViewportConfig    `yaml:"viewport"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{&c.App, &c.Catalog, &c.Media, &c.Loader, &c.Viewport, &c.SQLite} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return c.Auth.Validate()
}

// httpURL accepts absolute http and https URLs.
func httpURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL")
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CatalogConfig selects where the catalog document comes from.
//
// With Source "file", Path is read from disk and, when Watch is set,
// reloaded on change. With Source "http", URL is fetched with Timeout.
type CatalogConfig struct {
	Source  string        `yaml:"source"`
	Path    string        `yaml:"path"`
	URL     string        `yaml:"url"`
	Watch   bool          `yaml:"watch"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required, validation.In(SourceFile, SourceHTTP)),
		validation.Field(&c.Path, validation.When(c.Source == SourceFile, validation.Required)),
		validation.Field(&c.URL, validation.When(c.Source == SourceHTTP, validation.Required, validation.By(httpURL))),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// MediaConfig selects how images are resolved. Root is the content root
// holding the images directory; BaseURL is used in http mode.
type MediaConfig struct {
	Mode    string        `yaml:"mode"`
	Root    string        `yaml:"root"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(MediaModeFS, MediaModeHTTP)),
		validation.Field(&c.Root, validation.When(c.Mode == MediaModeFS, validation.Required)),
		validation.Field(&c.BaseURL, validation.When(c.Mode == MediaModeHTTP, validation.Required, validation.By(httpURL))),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// LoaderConfig tunes the visibility-gated media loader.
type LoaderConfig struct {
	BatchSize        int           `yaml:"batch_size"`
	ThrottleDelay    time.Duration `yaml:"throttle_delay"`
	KickoffDelay     time.Duration `yaml:"kickoff_delay"`
	ViewportThrottle time.Duration `yaml:"viewport_throttle"`
	MaxIdlePasses    int           `yaml:"max_idle_passes"`
}

// Validate validates the loader configuration.
func (c *LoaderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.ThrottleDelay, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.KickoffDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.ViewportThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxIdlePasses, validation.Min(0)),
	)
}

// ViewportConfig describes the initial viewport and the card grid layout
// used until a client reports its own dimensions.
type ViewportConfig struct {
	Width            float64 `yaml:"width"`
	Height           float64 `yaml:"height"`
	CardHeight       float64 `yaml:"card_height"`
	Gap              float64 `yaml:"gap"`
	Top              float64 `yaml:"top"`
	MinColumnWidth   float64 `yaml:"min_column_width"`
	MobileBreakpoint float64 `yaml:"mobile_breakpoint"`
}

// Validate validates the viewport configuration.
func (c *ViewportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Height, validation.Required, validation.Min(1.0)),
		validation.Field(&c.CardHeight, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Gap, validation.Min(0.0)),
		validation.Field(&c.Top, validation.Min(0.0)),
		validation.Field(&c.MinColumnWidth, validation.Min(0.0)),
		validation.Field(&c.MobileBreakpoint, validation.Min(0.0)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Catalog: CatalogConfig{
			Source:  SourceFile,
			Path:    "./site/prompt.json",
			Watch:   true,
			Timeout: 15 * time.Second,
		},
		Media: MediaConfig{
			Mode:    MediaModeFS,
			Root:    "./site",
			Timeout: 30 * time.Second,
		},
		Loader: LoaderConfig{
			BatchSize:        20,
			ThrottleDelay:    200 * time.Millisecond,
			KickoffDelay:     100 * time.Millisecond,
			ViewportThrottle: 200 * time.Millisecond,
		},
		Viewport: ViewportConfig{
			Width:            1280,
			Height:           800,
			CardHeight:       320,
			Gap:              24,
			Top:              200,
			MinColumnWidth:   280,
			MobileBreakpoint: 768,
		},
		SQLite: SQLiteConfig{
			Path: "./vitrine.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
