package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultConfigTmpl = `# TabTab configuration file.

# SQLite database holding the saved tabs.
db_path = %q

# Directory for tabtab.log.
log_dir = %q

# Local WebSocket port the browser extension connects to.
port = %d

# Favicon lookup for imported tabs; the tab's host is appended.
favicon_service = %q

# Directory export writes into when --out is not given. Empty means the
# current directory.
export_dir = ""
`

const (
	DefaultPort           = 19192
	DefaultFaviconService = "https://www.google.com/s2/favicons?domain="
)

type Config struct {
	DBPath         string `toml:"db_path"`
	LogDir         string `toml:"log_dir"`
	Port           int    `toml:"port"`
	FaviconService string `toml:"favicon_service"`
	ExportDir      string `toml:"export_dir"`
}

// Dir returns the tabtab configuration directory (~/.config/tabtab).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tabtab"), nil
}

// Path returns the path to the tabtab config file.
func Path() string {
	dir, _ := Dir()
	return filepath.Join(dir, "tabtab.toml")
}

// Defaults returns the configuration used when no file sets a value.
func Defaults() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("could not determine home directory: %w", err)
	}
	dataDir := filepath.Join(home, ".local", "share", "tabtab")
	return Config{
		DBPath:         filepath.Join(dataDir, "tabtab.db"),
		LogDir:         dataDir,
		Port:           DefaultPort,
		FaviconService: DefaultFaviconService,
	}, nil
}

// Load reads the config from Path(), creating a default config file if one
// doesn't exist, then applies environment overrides.
func Load() (Config, error) {
	path := Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path); err != nil {
			return Config{}, err
		}
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Unset fields keep their defaults and
// TABTAB_DB, TABTAB_PORT and TABTAB_LOG_DIR override the file.
func LoadFile(path string) (Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return Config{}, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.DBPath, err = expandHome(cfg.DBPath); err != nil {
		return Config{}, err
	}
	if cfg.LogDir, err = expandHome(cfg.LogDir); err != nil {
		return Config{}, err
	}
	if cfg.ExportDir, err = expandHome(cfg.ExportDir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TABTAB_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("TABTAB_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("TABTAB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TABTAB_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}

func writeDefault(path string) error {
	def, err := Defaults()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	contents := fmt.Sprintf(defaultConfigTmpl, def.DBPath, def.LogDir, def.Port, def.FaviconService)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		return fmt.Errorf("could not write default config: %w", err)
	}
	return nil
}

// Expand ~ at the start of a path.
func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, p[2:]), nil
}
