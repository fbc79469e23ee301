package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings. Precedence: flags > environment > YAML
// file > defaults.
type Config struct {
	Port               int     `yaml:"port"`
	DBPath             string  `yaml:"db_path"`
	CompanyName        string  `yaml:"company_name"`
	LowMaterialLevel   float64 `yaml:"low_material_level"`
	LowFinishedLevel   int     `yaml:"low_finished_level"`
	SessionHours       int     `yaml:"session_hours"`
	DashboardTrendDays int     `yaml:"dashboard_trend_days"`
}

func defaultConfig() Config {
	return Config{
		Port:               9000,
		DBPath:             "packinv.db",
		CompanyName:        "SS Packaging",
		LowMaterialLevel:   50,
		LowFinishedLevel:   1000,
		SessionHours:       24,
		DashboardTrendDays: 7,
	}
}

// loadConfig resolves the full configuration from defaults, an optional YAML
// file, PACKINV_* environment variables and command-line flags.
func loadConfig(args []string) (Config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("packinv", flag.ContinueOnError)
	cfgFile := fs.String("config", "", "Path to YAML config file")
	port := fs.Int("port", 0, "HTTP port")
	dbPath := fs.String("db", "", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	path := *cfgFile
	if path == "" {
		path = os.Getenv("PACKINV_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PACKINV_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("PACKINV_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PACKINV_COMPANY_NAME"); v != "" {
		cfg.CompanyName = v
	}

	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	return cfg, nil
}
