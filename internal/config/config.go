package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFileNames are looked up, in order, by FindConfig.
var ProjectFileNames = []string{"iris.yaml", "iris.yml"}

// Config represents the top-level iris.yaml configuration.
type Config struct {
	// ModulePaths are extra directories searched for imports after the
	// directory of the importing file. Relative paths are resolved
	// against the directory holding iris.yaml.
	ModulePaths []string `yaml:"module_paths,omitempty"`

	// Mode forces the evaluation mode of main: "auto" (by declared
	// effect), "sync" or "async". Defaults to "auto".
	Mode string `yaml:"mode,omitempty"`

	// Profile is the capability profile functions are checked against
	// (pure, browser_playground, server_agent, iot_min). Empty disables
	// capability checking.
	Profile string `yaml:"profile,omitempty"`

	FS    FSConfig    `yaml:"fs,omitempty"`
	Tools ToolsConfig `yaml:"tools,omitempty"`
	HTTP  HTTPConfig  `yaml:"http,omitempty"`
	Log   LogConfig   `yaml:"log,omitempty"`
}

// FSConfig selects the file system behind io.* intrinsics.
type FSConfig struct {
	// Driver is one of "os", "memory" or "sqlite". Defaults to "os".
	Driver string `yaml:"driver,omitempty"`

	// Root confines the "os" driver to a directory.
	Root string `yaml:"root,omitempty"`

	// DSN is the database file of the "sqlite" driver.
	DSN string `yaml:"dsn,omitempty"`
}

// ToolsConfig binds deftool declarations to gRPC methods.
type ToolsConfig struct {
	// Target is the gRPC server address (e.g. "localhost:50051").
	Target string `yaml:"target,omitempty"`

	// Protos are the .proto files describing the services.
	Protos []string `yaml:"protos,omitempty"`

	// ImportPaths are passed to the proto parser. Defaults to ".".
	ImportPaths []string `yaml:"import_paths,omitempty"`

	// Bindings map tool names to fully qualified methods.
	Bindings []ToolBinding `yaml:"bindings,omitempty"`
}

// ToolBinding maps one deftool to a method "pkg.Service/Method".
// Tool arguments fill the request fields in declaration order.
type ToolBinding struct {
	Tool   string `yaml:"tool"`
	Method string `yaml:"method"`
}

type HTTPConfig struct {
	// Timeout bounds http.get and http.post, as a Go duration string.
	// Defaults to "30s".
	Timeout string `yaml:"timeout,omitempty"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to "warn".
	Level string `yaml:"level,omitempty"`
}

// Default returns the configuration used when no iris.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses an iris.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// ParseConfig parses iris.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for iris.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ProjectFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

var validModes = map[string]bool{"": true, "auto": true, "sync": true, "async": true}
var validDrivers = map[string]bool{"": true, "os": true, "memory": true, "sqlite": true}
var validLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if !validModes[c.Mode] {
		return fmt.Errorf("%s: mode must be auto, sync or async, got %q", path, c.Mode)
	}
	if c.Profile != "" {
		if _, ok := Profiles[c.Profile]; !ok {
			return fmt.Errorf("%s: unknown capability profile %q", path, c.Profile)
		}
	}
	if !validDrivers[c.FS.Driver] {
		return fmt.Errorf("%s: fs.driver must be os, memory or sqlite, got %q", path, c.FS.Driver)
	}
	if c.FS.Driver == "sqlite" && c.FS.DSN == "" {
		return fmt.Errorf("%s: fs.dsn is required for the sqlite driver", path)
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("%s: unknown log level %q", path, c.Log.Level)
	}
	if c.HTTP.Timeout != "" {
		if _, err := time.ParseDuration(c.HTTP.Timeout); err != nil {
			return fmt.Errorf("%s: http.timeout: %w", path, err)
		}
	}

	seen := make(map[string]bool)
	for i, b := range c.Tools.Bindings {
		if b.Tool == "" {
			return fmt.Errorf("%s: tools.bindings[%d]: tool is required", path, i)
		}
		if b.Method == "" {
			return fmt.Errorf("%s: tools.bindings[%d]: method is required", path, i)
		}
		if seen[b.Tool] {
			return fmt.Errorf("%s: tools.bindings[%d]: duplicate tool %q", path, i, b.Tool)
		}
		seen[b.Tool] = true
	}
	if len(c.Tools.Bindings) > 0 && c.Tools.Target == "" {
		return fmt.Errorf("%s: tools.target is required when bindings are set", path)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Mode == "" {
		c.Mode = "auto"
	}
	if c.FS.Driver == "" {
		c.FS.Driver = "os"
	}
	if c.HTTP.Timeout == "" {
		c.HTTP.Timeout = "30s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if len(c.Tools.ImportPaths) == 0 {
		c.Tools.ImportPaths = []string{"."}
	}
}

// resolvePaths makes relative paths relative to the config directory.
func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	for i, p := range c.ModulePaths {
		c.ModulePaths[i] = abs(p)
	}
	c.FS.Root = abs(c.FS.Root)
	if c.FS.Driver == "sqlite" && c.FS.DSN != ":memory:" {
		c.FS.DSN = abs(c.FS.DSN)
	}
	for i, p := range c.Tools.Protos {
		c.Tools.Protos[i] = abs(p)
	}
	for i, p := range c.Tools.ImportPaths {
		c.Tools.ImportPaths[i] = abs(p)
	}
}

// HTTPTimeout returns the parsed http.timeout.
func (c *Config) HTTPTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
