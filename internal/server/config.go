package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerSettings `hcl:"server,block"`
	Defaults TableDefaults  `hcl:"defaults,block"`
}

// ServerSettings contains process-level configuration.
type ServerSettings struct {
	Addr          string `hcl:"addr,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	JWTSecret     string `hcl:"jwt_secret,optional"`
	AllowedOrigin string `hcl:"allowed_origin,optional"`
}

// TableDefaults seeds rooms created without explicit settings.
type TableDefaults struct {
	SmallBlind         int `hcl:"small_blind,optional"`
	BigBlind           int `hcl:"big_blind,optional"`
	MinBuyIn           int `hcl:"min_buy_in,optional"`
	MaxBuyIn           int `hcl:"max_buy_in,optional"`
	MaxPlayers         int `hcl:"max_players,optional"`
	TurnTimeSeconds    int `hcl:"turn_time_seconds,optional"`
	WarningTimeSeconds int `hcl:"warning_time_seconds,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Addr:          ":8080",
			LogLevel:      "info",
			AllowedOrigin: "*",
		},
		Defaults: TableDefaults{
			SmallBlind:         5,
			BigBlind:           10,
			MinBuyIn:           500,
			MaxBuyIn:           2000,
			MaxPlayers:         10,
			TurnTimeSeconds:    30,
			WarningTimeSeconds: 15,
		},
	}
}

// LoadConfig loads the HCL configuration file, falling back to defaults
// when the file doesn't exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Addr == "" {
		config.Server.Addr = defaults.Server.Addr
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.AllowedOrigin == "" {
		config.Server.AllowedOrigin = defaults.Server.AllowedOrigin
	}
	if config.Defaults.SmallBlind == 0 {
		config.Defaults.SmallBlind = defaults.Defaults.SmallBlind
	}
	if config.Defaults.BigBlind == 0 {
		config.Defaults.BigBlind = defaults.Defaults.BigBlind
	}
	if config.Defaults.MinBuyIn == 0 {
		config.Defaults.MinBuyIn = config.Defaults.BigBlind * 50
	}
	if config.Defaults.MaxBuyIn == 0 {
		config.Defaults.MaxBuyIn = config.Defaults.BigBlind * 200
	}
	if config.Defaults.MaxPlayers == 0 {
		config.Defaults.MaxPlayers = defaults.Defaults.MaxPlayers
	}
	if config.Defaults.TurnTimeSeconds == 0 {
		config.Defaults.TurnTimeSeconds = defaults.Defaults.TurnTimeSeconds
	}
	if config.Defaults.WarningTimeSeconds == 0 {
		config.Defaults.WarningTimeSeconds = defaults.Defaults.WarningTimeSeconds
	}

	return &config, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Defaults.SmallBlind < 0 || c.Defaults.BigBlind < 0 {
		return fmt.Errorf("blinds must be non-negative")
	}
	if c.Defaults.SmallBlind > c.Defaults.BigBlind && c.Defaults.BigBlind != 0 {
		return fmt.Errorf("small blind %d exceeds big blind %d", c.Defaults.SmallBlind, c.Defaults.BigBlind)
	}
	if c.Defaults.MinBuyIn > c.Defaults.MaxBuyIn {
		return fmt.Errorf("min buy-in %d exceeds max buy-in %d", c.Defaults.MinBuyIn, c.Defaults.MaxBuyIn)
	}
	if c.Defaults.MaxPlayers < 2 || c.Defaults.MaxPlayers > 10 {
		return fmt.Errorf("max players must be between 2 and 10, got %d", c.Defaults.MaxPlayers)
	}
	return nil
}
