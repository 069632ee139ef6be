// Package config loads the server's TOML configuration file into a
// Config, falling back to built-in defaults for anything the file
// omits.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Config holds every setting the process needs at boot. Fields map
// directly onto the TOML config file's keys.
type Config struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	MaxPlayers     int    `toml:"max_players"`
	ServerName     string `toml:"server_name"`
	MOTD           string `toml:"motd"`
	Gamemode       string `toml:"gamemode"`
	ViewDistance   int    `toml:"view_distance"`
	ProtocolVersion int32  `toml:"protocol_version"`
	CompressionThreshold int `toml:"compression_threshold"`
	CompressionAlgorithm string `toml:"compression_algorithm"`
	TickRate       int    `toml:"tick_rate"`
	MaxUnackedFrames int  `toml:"max_unacked_frames"`
	WorldName      string `toml:"world_name"`
	WorldSeed      int64  `toml:"world_seed"`
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		Host:                 "0.0.0.0",
		Port:                 19132,
		MaxPlayers:           20,
		ServerName:           "Bedrock Server [Go]",
		MOTD:                 "A Bedrock Server",
		Gamemode:             "survival",
		ViewDistance:         12,
		ProtocolVersion:      766,
		CompressionThreshold: 256,
		CompressionAlgorithm: "deflate",
		TickRate:             20,
		MaxUnackedFrames:     1024,
		WorldName:            "world",
		WorldSeed:            0,
	}
}

// Load reads a TOML configuration file at path, starting from Default()
// so a partial file only overrides the fields it sets. A missing file is
// not an error; Load returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in TOML form, creating the file if needed.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
