package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/magiconair/properties"
	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/domain"
)

const (
	DefaultBaseURL           = "http://localhost:3000"
	DefaultImplicitWait      = 5 * time.Second
	DefaultVisibilityTimeout = 10 * time.Second
	DefaultScreenshotDir     = "screenshots"
)

// Properties keys
const (
	KeyBaseURL           = "base.url"
	KeyImplicitWait      = "implicit.wait.seconds"
	KeyVisibilityTimeout = "visibility.timeout.seconds"
	KeyScreenshotDir     = "screenshot.dir"
	KeyScreenshotUTC     = "screenshot.utc"
)

// CandidatePaths lists the properties files in precedence order, relative to the config root
var CandidatePaths = []string{
	filepath.Join("config", "application.properties"),
	"application.properties",
}

// RunConfig is the immutable configuration of a single test
type RunConfig struct {
	BaseURL           string
	Headless          bool
	ImplicitWait      time.Duration
	VisibilityTimeout time.Duration

	ScreenshotDir string
	ScreenshotUTC bool

	// Source is the properties file base.url was read from, empty for the built-in default
	Source string
}

// Default returns the configuration used when no properties file is found
func Default() RunConfig {
	return RunConfig{
		BaseURL:           DefaultBaseURL,
		ImplicitWait:      DefaultImplicitWait,
		VisibilityTimeout: DefaultVisibilityTimeout,
		ScreenshotDir:     DefaultScreenshotDir,
	}
}

// Validate validates the configuration
func (c RunConfig) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "base url is empty")
	}
	if c.ImplicitWait < 0 {
		errs = append(errs, "implicit wait must be >= 0")
	}
	if c.VisibilityTimeout <= 0 {
		errs = append(errs, "visibility timeout must be > 0")
	}

	if len(errs) > 0 {
		return domain.ConfigLoadError("run config", strings.Join(errs, "; "))
	}
	return nil
}

// EnvConfig holds settings read from the process environment
type EnvConfig struct {
	// Headless is kept raw: only a case-insensitive "true" enables it
	Headless string `envconfig:"headless" default:"false"`

	ConfigRoot             string `envconfig:"HARNESS_CONFIG_ROOT" default:""`
	LogLevel               string `envconfig:"HARNESS_LOG_LEVEL" default:"info"`
	MetricsTextfile        string `envconfig:"HARNESS_METRICS_TEXTFILE" default:""`
	PlaywrightPreinstalled bool   `envconfig:"PLAYWRIGHT_PREINSTALLED" default:"false"`

	S3 S3Config
}

// HeadlessEnabled reports whether the headless flag is set to true
func (e EnvConfig) HeadlessEnabled() bool {
	return parseFlag(e.Headless)
}

// S3Config holds the optional S3/MinIO settings for screenshot uploads
type S3Config struct {
	Endpoint        string `envconfig:"HARNESS_S3_ENDPOINT" default:""`
	AccessKeyID     string `envconfig:"HARNESS_S3_ACCESS_KEY_ID" default:"minioadmin"`
	SecretAccessKey string `envconfig:"HARNESS_S3_SECRET_ACCESS_KEY" default:"minioadmin"`
	Bucket          string `envconfig:"HARNESS_S3_BUCKET" default:"ui-screenshots"`
	Prefix          string `envconfig:"HARNESS_S3_PREFIX" default:"screenshots"`
	UseSSL          bool   `envconfig:"HARNESS_S3_USE_SSL" default:"false"`
}

// Enabled reports whether uploads are configured
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// LoadEnv loads .env (existing variables win) and decodes the process environment
func LoadEnv() (EnvConfig, error) {
	// A missing .env file is the normal case
	_ = godotenv.Load()

	var env EnvConfig
	if err := envconfig.Process("", &env); err != nil {
		return EnvConfig{}, domain.ConfigLoadError("environment", "processing environment").WithCause(err)
	}
	return env, nil
}

// Option configures Load
type Option func(*loader)

// WithRoot sets the directory the candidate paths are resolved against
func WithRoot(dir string) Option {
	return func(l *loader) {
		l.root = dir
	}
}

// WithLogger sets the logger used to report skipped candidates
func WithLogger(logger *zap.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithEnv supplies an already decoded environment instead of reading it
func WithEnv(env EnvConfig) Option {
	return func(l *loader) {
		l.env = &env
	}
}

type loader struct {
	root   string
	logger *zap.Logger
	env    *EnvConfig
}

type source struct {
	path  string
	props *properties.Properties
}

// Load resolves the RunConfig.
//
// base.url is taken from the first candidate file that exists and defines a non-empty
// value, falling back to DefaultBaseURL. Unreadable or unparsable files are skipped.
func Load(opts ...Option) (RunConfig, error) {
	l := &loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}

	if l.env == nil {
		env, err := LoadEnv()
		if err != nil {
			return RunConfig{}, err
		}
		l.env = &env
	}

	root := l.root
	if root == "" {
		root = l.env.ConfigRoot
	}
	if root == "" {
		root = "."
	}

	sources := l.readSources(root)

	cfg := Default()
	cfg.Headless = l.env.HeadlessEnabled()

	if value, path, ok := lookup(sources, KeyBaseURL); ok {
		cfg.BaseURL = value
		cfg.Source = path
	}

	if value, _, ok := lookup(sources, KeyImplicitWait); ok {
		d, err := parseSeconds(KeyImplicitWait, value)
		if err != nil {
			return RunConfig{}, err
		}
		cfg.ImplicitWait = d
	}

	if value, _, ok := lookup(sources, KeyVisibilityTimeout); ok {
		d, err := parseSeconds(KeyVisibilityTimeout, value)
		if err != nil {
			return RunConfig{}, err
		}
		cfg.VisibilityTimeout = d
	}

	if value, _, ok := lookup(sources, KeyScreenshotDir); ok {
		cfg.ScreenshotDir = value
	}

	if value, _, ok := lookup(sources, KeyScreenshotUTC); ok {
		cfg.ScreenshotUTC = parseFlag(value)
	}

	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}

	return cfg, nil
}

func (l *loader) readSources(root string) []source {
	var sources []source

	for _, candidate := range CandidatePaths {
		path := filepath.Join(root, candidate)

		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("Skipping unreadable properties file",
					zap.String("path", path),
					zap.Error(err),
				)
			}
			continue
		}

		props, err := properties.Load(data, properties.UTF8)
		if err != nil {
			l.logger.Debug("Skipping unparsable properties file",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}

		sources = append(sources, source{path: path, props: props})
	}

	return sources
}

// lookup returns the first non-empty value for key in precedence order
func lookup(sources []source, key string) (string, string, bool) {
	for _, src := range sources {
		value, ok := src.props.Get(key)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		return value, src.path, true
	}
	return "", "", false
}

func parseSeconds(key, value string) (time.Duration, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, domain.ConfigLoadError(key, fmt.Sprintf("invalid seconds value %q", value)).WithCause(err)
	}
	return time.Duration(n) * time.Second, nil
}

func parseFlag(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}
