package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"os"
	"time"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"prod"`
	HistoryPath string `yaml:"history_path" env:"HISTORY_PATH" env-default:"./data/history.db"`
	HTTPServer  `yaml:"http_server"`
	Database    `yaml:"database"`
	Refresh     `yaml:"refresh"`
	KPI         `yaml:"kpi"`

	// DiscountTablesPath points to an optional YAML file replacing the built-in discount tables.
	DiscountTablesPath string `yaml:"discount_tables_path" env:"DISCOUNT_TABLES_PATH"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout        time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env-default:"http://localhost:5173"`
}

type Database struct {
	User     string `yaml:"user" env:"DB_USER" env-required:"true"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"3306"`
	Name     string `yaml:"name" env:"DB_NAME" env-required:"true"`
	Location string `yaml:"location" env:"DB_LOCATION" env-default:"America/Sao_Paulo"`
}

type Refresh struct {
	Interval       time.Duration `yaml:"interval" env:"REFRESH_INTERVAL" env-default:"10m"`
	DailyAt        string        `yaml:"daily_at" env-default:"03:00"`
	LookbackMonths int           `yaml:"lookback_months" env-default:"6"`
}

type KPI struct {
	IdealCycle     float64  `yaml:"ideal_cycle" env-default:"10.6"`
	FuzzyThreshold int      `yaml:"fuzzy_threshold" env-default:"88"`
	Holidays       []string `yaml:"holidays"`
}

// Loc returns the time zone the shop floor runs on.
func (c *Config) Loc() *time.Location {
	loc, err := time.LoadLocation(c.Database.Location)
	if err != nil {
		return time.Local
	}
	return loc
}

// HolidayDates parses the configured holidays as local calendar days.
func (c *Config) HolidayDates() ([]time.Time, error) {
	const op = "config.HolidayDates"

	dates := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := time.ParseInLocation(time.DateOnly, h, c.Loc())
		if err != nil {
			return nil, fmt.Errorf("%s: holiday %q: %w", op, h, err)
		}
		dates = append(dates, d)
	}

	return dates, nil
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

func MustConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
