package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultLogLevel    = "info"
	DefaultBlobBackend = "local"
	DefaultReadRetries = 2

	DefaultConfigFileName = ".starterkit.toml"
	DefaultDataDirName    = ".starterkit"
	DefaultDBFileName     = "docs.db"
	DefaultBlobDirName    = "blobs"

	configDirEnvKey = "STARTERKIT_CONFIG_DIR"
	dataDirEnvKey   = "STARTERKIT_DATA_DIR"
	dbPathEnvKey    = "STARTERKIT_DB"
	authorEnvKey    = "STARTERKIT_AUTHOR"
	logLevelEnvKey  = "STARTERKIT_LOG_LEVEL"
	s3AccessEnvKey  = "STARTERKIT_S3_ACCESS_KEY"
	s3SecretEnvKey  = "STARTERKIT_S3_SECRET_KEY"
)

// BlobConfig selects and parameterizes the blob store backend.
type BlobConfig struct {
	Backend   string `toml:"backend"`
	Compress  bool   `toml:"compress"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

// NodeConfig carries the addressing details stamped into share tickets.
type NodeConfig struct {
	Addrs    []string `toml:"addrs"`
	RelayURL string   `toml:"relay_url"`
}

// Config defines runtime configuration for a starterkit node.
type Config struct {
	DataDir       string     `toml:"data_dir"`
	DBPath        string     `toml:"db_path"`
	DefaultAuthor string     `toml:"default_author"`
	LogLevel      string     `toml:"log_level"`
	ReadRetries   int        `toml:"read_retries"`
	Blobs         BlobConfig `toml:"blobs"`
	Node          NodeConfig `toml:"node"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		LogLevel:    DefaultLogLevel,
		ReadRetries: DefaultReadRetries,
		Blobs: BlobConfig{
			Backend:  DefaultBlobBackend,
			Compress: true,
		},
	}
}

// BlobDir is the local CAS directory, derived from the data dir.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, DefaultBlobDirName)
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, DefaultConfigFileName), true
}

var allowedKeys = []string{
	"data_dir",
	"db_path",
	"default_author",
	"log_level",
	"read_retries",
	"blobs.backend",
	"blobs.compress",
	"blobs.region",
	"blobs.bucket",
	"blobs.endpoint",
	"blobs.access_key",
	"blobs.secret_key",
	"node.addrs",
	"node.relay_url",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "data_dir":
		return c.DataDir, nil
	case "db_path":
		return c.DBPath, nil
	case "default_author":
		return c.DefaultAuthor, nil
	case "log_level":
		return c.LogLevel, nil
	case "read_retries":
		return strconv.Itoa(c.ReadRetries), nil
	case "blobs.backend":
		return c.Blobs.Backend, nil
	case "blobs.compress":
		return strconv.FormatBool(c.Blobs.Compress), nil
	case "blobs.region":
		return c.Blobs.Region, nil
	case "blobs.bucket":
		return c.Blobs.Bucket, nil
	case "blobs.endpoint":
		return c.Blobs.Endpoint, nil
	case "blobs.access_key":
		return c.Blobs.AccessKey, nil
	case "blobs.secret_key":
		return c.Blobs.SecretKey, nil
	case "node.addrs":
		return strings.Join(c.Node.Addrs, ","), nil
	case "node.relay_url":
		return c.Node.RelayURL, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from the global file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		if err := loadFile(filepath.Join(home, DefaultConfigFileName), &cfg); err != nil {
			return nil, err
		}
	}

	if dataDir := os.Getenv(dataDirEnvKey); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if author := os.Getenv(authorEnvKey); author != "" {
		cfg.DefaultAuthor = author
	}
	if level := os.Getenv(logLevelEnvKey); level != "" {
		cfg.LogLevel = level
	}
	if key := os.Getenv(s3AccessEnvKey); key != "" {
		cfg.Blobs.AccessKey = key
	}
	if key := os.Getenv(s3SecretEnvKey); key != "" {
		cfg.Blobs.SecretKey = key
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize fills derived defaults and validates closed-set values.
func (c *Config) normalize() error {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, DefaultDataDirName)
		} else if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			c.DataDir = filepath.Join(cwd, DefaultDataDirName)
		}
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, DefaultDBFileName)
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ReadRetries <= 0 {
		c.ReadRetries = DefaultReadRetries
	}

	switch c.Blobs.Backend {
	case "":
		c.Blobs.Backend = DefaultBlobBackend
	case "local", "s3":
	default:
		return fmt.Errorf("invalid blobs.backend: %s", c.Blobs.Backend)
	}
	if c.Blobs.Backend == "s3" && c.Blobs.Bucket == "" {
		return fmt.Errorf("blobs.backend s3 requires blobs.bucket")
	}

	c.Node.Addrs = normalizeAddrs(c.Node.Addrs)
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "read_retries":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "blobs.compress":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "blobs.backend":
		switch value {
		case "local", "s3":
			return value, nil
		default:
			return nil, fmt.Errorf("%s must be local or s3", key)
		}
	case "node.addrs":
		return splitCSV(value), nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func normalizeAddrs(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, addr := range raw {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
