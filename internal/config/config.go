package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jchantrell/quakefs/internal/filesys"
	"github.com/spf13/viper"
)

// Mission pack directories enabled by the rogue and hipnotic switches.
const (
	MissionPackRogue    = "rogue"
	MissionPackHipnotic = "hipnotic"
)

type Config struct {
	BaseDir   string   `mapstructure:"base_dir"`
	Game      string   `mapstructure:"game"`
	Rogue     bool     `mapstructure:"rogue"`
	Hipnotic  bool     `mapstructure:"hipnotic"`
	Path      []string `mapstructure:"path"`
	ProgHack  bool     `mapstructure:"proghack"`
	Database  string   `mapstructure:"database"`
	LogLevel  string   `mapstructure:"log_level"`
	LogFormat string   `mapstructure:"log_format"`
}

// Load reads configuration from defaults, an optional config file and
// QUAKEFS_* environment variables, in increasing precedence
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("base_dir", ".")
	v.SetDefault("database", "quakefs.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("quakefs")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Config file handling
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName("quakefs")
		v.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that cannot be checked by the type system.
// It is called by Load and again by the CLI after flag overrides.
func (c *Config) Validate() error {
	if err := validateGame(c.Game); err != nil {
		return fmt.Errorf("invalid game configuration: %w", err)
	}
	if err := validatePath(c.Path); err != nil {
		return fmt.Errorf("invalid path configuration: %w", err)
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}
	if err := validateLogFormat(c.LogFormat); err != nil {
		return fmt.Errorf("invalid log configuration: %w", err)
	}
	return nil
}

// MissionPacks returns the mission pack directories enabled by the config,
// in search path order.
func (c *Config) MissionPacks() []string {
	var packs []string
	if c.Rogue {
		packs = append(packs, MissionPackRogue)
	}
	if c.Hipnotic {
		packs = append(packs, MissionPackHipnotic)
	}
	return packs
}

// FileSysOptions converts the config into search path options.
func (c *Config) FileSysOptions() filesys.Options {
	return filesys.Options{
		BaseDir:      c.BaseDir,
		MissionPacks: c.MissionPacks(),
		Game:         c.Game,
		Path:         c.Path,
		SkipHighest:  c.ProgHack,
	}
}
