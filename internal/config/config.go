package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/mstoykov/envconfig"
)

// DefaultPath is read when no config file is given. It may be missing.
const DefaultPath = "config.yaml"

// AppConfig holds the application configuration.
type AppConfig struct {
	Debug          bool             `yaml:"debug"`
	Engine         string           `yaml:"engine"`
	APIPort        string           `yaml:"api-port"`
	RequestTimeout time.Duration    `yaml:"request-timeout"`
	InstallDriver  bool             `yaml:"install-driver"`
	SuitesDir      string           `yaml:"suites-dir"`
	Browser        AppConfigBrowser `yaml:"browser"`
	Library        AppConfigLibrary `yaml:"library"`
}

// AppConfigBrowser configures how engines launch browsers.
type AppConfigBrowser struct {
	ExecPath    string   `yaml:"exec-path"`
	Args        []string `yaml:"args"`
	UserDataDir string   `yaml:"user-data-dir,omitempty"`
	// Headless forces every browser headless. When false the browser name
	// passed to Open Browser decides.
	Headless bool `yaml:"headless"`
}

// AppConfigLibrary carries the keyword library import options.
type AppConfigLibrary struct {
	Timeout                 time.Duration `yaml:"timeout"`
	ImplicitWait            time.Duration `yaml:"implicit-wait"`
	RunOnFailure            string        `yaml:"run-on-failure"`
	ScreenshotRootDirectory string        `yaml:"screenshot-root-directory"`
	BrowserArgs             []string      `yaml:"browser-args"`
}

// Engines that can back the keyword library.
const (
	EnginePlaywright = "playwright"
	EngineChrome     = "chrome"
)

// envOverlay lists the environment variables that override the file.
// Pointers stay nil for unset variables.
type envOverlay struct {
	Debug                   *bool          `envconfig:"SL2B_DEBUG"`
	Engine                  *string        `envconfig:"SL2B_ENGINE"`
	APIPort                 *string        `envconfig:"SL2B_API_PORT"`
	RequestTimeout          *time.Duration `envconfig:"SL2B_REQUEST_TIMEOUT"`
	InstallDriver           *bool          `envconfig:"SL2B_INSTALL_DRIVER"`
	SuitesDir               *string        `envconfig:"SL2B_SUITES_DIR"`
	ExecPath                *string        `envconfig:"SL2B_BROWSER_EXEC_PATH"`
	BrowserArgs             []string       `envconfig:"SL2B_BROWSER_ARGS"`
	UserDataDir             *string        `envconfig:"SL2B_BROWSER_USER_DATA_DIR"`
	Headless                *bool          `envconfig:"SL2B_BROWSER_HEADLESS"`
	Timeout                 *time.Duration `envconfig:"SL2B_TIMEOUT"`
	RunOnFailure            *string        `envconfig:"SL2B_RUN_ON_FAILURE"`
	ScreenshotRootDirectory *string        `envconfig:"SL2B_SCREENSHOT_ROOT_DIRECTORY"`
}

// Default returns the configuration used when nothing overrides it.
func Default() AppConfig {
	return AppConfig{
		Engine:         EnginePlaywright,
		APIPort:        "8270",
		RequestTimeout: 2 * time.Minute,
		SuitesDir:      "suites",
		Library: AppConfigLibrary{
			Timeout:      5 * time.Second,
			RunOnFailure: "Capture Page Screenshot",
		},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults, then loads
// the optional .env files and applies the SL2B_* environment variables. An
// empty path reads DefaultPath and tolerates its absence.
func LoadConfig(path string, envFiles ...string) (*AppConfig, error) {
	config := Default()

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// .env is optional when the variables come from the environment
	if err = godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	var env envOverlay
	if err = envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	env.apply(&config)

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (e envOverlay) apply(c *AppConfig) {
	setIf(&c.Debug, e.Debug)
	setIf(&c.Engine, e.Engine)
	setIf(&c.APIPort, e.APIPort)
	setIf(&c.RequestTimeout, e.RequestTimeout)
	setIf(&c.InstallDriver, e.InstallDriver)
	setIf(&c.SuitesDir, e.SuitesDir)
	setIf(&c.Browser.ExecPath, e.ExecPath)
	setIf(&c.Browser.UserDataDir, e.UserDataDir)
	setIf(&c.Browser.Headless, e.Headless)
	setIf(&c.Library.Timeout, e.Timeout)
	setIf(&c.Library.RunOnFailure, e.RunOnFailure)
	setIf(&c.Library.ScreenshotRootDirectory, e.ScreenshotRootDirectory)
	if len(e.BrowserArgs) > 0 {
		c.Browser.Args = e.BrowserArgs
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate reports configuration values no component can work with.
func (c *AppConfig) Validate() error {
	switch c.Engine {
	case EnginePlaywright, EngineChrome:
	default:
		return fmt.Errorf("unknown engine %q, want %s or %s", c.Engine, EnginePlaywright, EngineChrome)
	}
	if c.Library.Timeout <= 0 {
		return fmt.Errorf("library timeout must be positive, got %s", c.Library.Timeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
