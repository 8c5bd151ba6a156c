package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ConfigFile = ".larder.yml"

// EnvPrefix is the prefix for environment variables that override file values.
const EnvPrefix = "LARDER_"

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Storage backends.
const (
	BackendFileSystem = "filesystem"
	BackendS3         = "s3"
)

const (
	DefaultPort          = 22880
	DefaultMaxUploadSize = 32 << 20
)

// Config holds the larder configuration.
type Config struct {
	Database Database `yaml:"database"`
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`

	// configDir is the directory containing the config file (not serialized).
	// Relative paths are resolved against it.
	configDir string `yaml:"-"`
}

// Database selects the gorm driver and its DSN.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Storage configures where uploaded banners are written.
type Storage struct {
	Backend string `yaml:"backend"`
	// Root is the media directory for the filesystem backend.
	Root string `yaml:"root,omitempty"`
	// Dir is the sub-directory (or key prefix segment) banners are stored under.
	Dir string `yaml:"dir,omitempty"`
	// BaseURL is the public URL assets are served from.
	BaseURL   string `yaml:"base_url,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// Server configures the HTTP listener.
type Server struct {
	Port          int   `yaml:"port"`
	MaxUploadSize int64 `yaml:"max_upload_size,omitempty"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Database: Database{
			Driver: DriverSQLite,
			DSN:    "larder.db",
		},
		Storage: Storage{
			Backend: BackendFileSystem,
			Root:    "media",
			Dir:     "banners",
			BaseURL: "/media",
		},
		Server: Server{
			Port:          DefaultPort,
			MaxUploadSize: DefaultMaxUploadSize,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// FindConfig searches upward from startDir for a .larder.yml file.
// Returns the path if found, or an empty string if not.
func FindConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads configuration from the given path.
// Returns default config (rooted at the file's directory) if the file doesn't exist.
// Environment variables prefixed with LARDER_ override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.configDir = filepath.Dir(absPath)

	data, err := os.ReadFile(absPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	loadDotEnv(cfg.configDir)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// LoadFromDirectory searches upward from startDir and loads the first config found.
// Falls back to defaults rooted at startDir.
func LoadFromDirectory(startDir string) (*Config, error) {
	path, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(startDir, ConfigFile)
	}
	return Load(path)
}

// loadDotEnv loads .env files next to the config; missing files are ignored.
func loadDotEnv(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"DATABASE_DRIVER":  &c.Database.Driver,
		"DATABASE_DSN":     &c.Database.DSN,
		"STORAGE_BACKEND":  &c.Storage.Backend,
		"STORAGE_ROOT":     &c.Storage.Root,
		"STORAGE_DIR":      &c.Storage.Dir,
		"STORAGE_BASE_URL": &c.Storage.BaseURL,
		"STORAGE_BUCKET":   &c.Storage.Bucket,
		"STORAGE_REGION":   &c.Storage.Region,
		"STORAGE_ENDPOINT": &c.Storage.Endpoint,
		"STORAGE_PREFIX":   &c.Storage.Prefix,
		"LOG_LEVEL":        &c.Log.Level,
		"LOG_FORMAT":       &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSERVER_PORT %q: %w", EnvPrefix, v, err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv(EnvPrefix + "STORAGE_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTORAGE_PATH_STYLE %q: %w", EnvPrefix, v, err)
		}
		c.Storage.PathStyle = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = def.Database.DSN
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = def.Storage.Dir
	}
	if c.Storage.Backend == BackendFileSystem {
		if c.Storage.Root == "" {
			c.Storage.Root = def.Storage.Root
		}
		if c.Storage.BaseURL == "" {
			c.Storage.BaseURL = def.Storage.BaseURL
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.MaxUploadSize == 0 {
		c.Server.MaxUploadSize = def.Server.MaxUploadSize
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Validate checks driver and backend names.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q (must be %s or %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for driver %s", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case BackendFileSystem:
	case BackendS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (must be %s or %s)", c.Storage.Backend, BackendFileSystem, BackendS3)
	}
	return nil
}

// Save writes the configuration to the given directory.
func (c *Config) Save(dir string) error {
	path := filepath.Join(dir, ConfigFile)

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetConfigDir sets the directory relative paths are resolved against.
func (c *Config) SetConfigDir(dir string) {
	c.configDir = dir
}

// ConfigDir returns the directory containing the config file.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// ResolvePath resolves p against the config directory unless it is absolute.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.configDir == "" {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// ResolveDSN returns the database DSN with SQLite file paths resolved against
// the config directory. In-memory and URI-style DSNs are returned unchanged.
func (c *Config) ResolveDSN() string {
	dsn := c.Database.DSN
	if c.Database.Driver != DriverSQLite {
		return dsn
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return c.ResolvePath(dsn)
}

// MediaRoot returns the absolute media directory for the filesystem backend.
func (c *Config) MediaRoot() string {
	return c.ResolvePath(c.Storage.Root)
}
