package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Unverifiedd/m3u8XM/pkg/auth"
)

type AccountConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type GeoIPConfig struct {
	Database         string   `json:"database,omitempty"`
	Whitelist        []string `json:"whitelist,omitempty"`
	InternalNetworks []string `json:"internal_networks,omitempty"`
}

type SecurityConfig struct {
	GeoIP GeoIPConfig `json:"geoip,omitempty"`
}

type ConfigData struct {
	Host          string         `json:"host,omitempty"`
	Port          int            `json:"port"`
	Account       AccountConfig  `json:"account"`
	Timeout       int            `json:"default_timeout,omitempty"` // seconds, outbound backend calls
	SweepInterval int            `json:"sweep_interval,omitempty"`  // seconds
	LogFile       string         `json:"log_file,omitempty"`
	Security      SecurityConfig `json:"security,omitempty"`
	Auth          *auth.Config   `json:"auth,omitempty"`
}

func defaultConfig() ConfigData {
	return ConfigData{
		Port:          8888,
		Timeout:       20,
		SweepInterval: 600,
	}
}

// LoadConfig reads the JSON config file. A missing file is populated with a
// template so the account credentials can be filled in.
func LoadConfig(path string) (ConfigData, error) {
	cfg := defaultConfig()

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		if writeErr := writeConfig(path, cfg); writeErr != nil {
			return cfg, writeErr
		}
		return cfg, fmt.Errorf("config template written to %s, fill in the account credentials", path)
	}
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8888
	}
	if cfg.Timeout < 1 {
		cfg.Timeout = 20
	}
	if cfg.SweepInterval < 1 {
		cfg.SweepInterval = 600
	}
	if cfg.Account.Username == "" || cfg.Account.Password == "" {
		return cfg, errors.New("account credentials are required")
	}
	return cfg, nil
}

func writeConfig(path string, cfg ConfigData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
