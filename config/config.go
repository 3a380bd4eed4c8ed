package config

import (
	"fmt"
	"time"

	"github.com/jinzhu/configor"
)

const DefaultPath = "config/config.dev.json"

type Config struct {
	AppConfig    AppConfig    `env:"APPCONFIG"`
	LocalConfig  LocalConfig  `env:"LOCALCONFIG"`
	RemoteConfig RemoteConfig `env:"REMOTECONFIG"`
	SyncConfig   SyncConfig   `env:"SYNCCONFIG"`
	LogConfig    LogConfig    `env:"LOGCONFIG"`
}

type AppConfig struct {
	APPName    string `default:"wellness-sync"`
	Version    string `default:"x.x.x" env:"VERSION"`
	HealthPort int    `default:"8080" env:"WS_HEALTH_PORT"`
}

// LocalConfig points at the per-device SQLite file.
type LocalConfig struct {
	Path string `default:"data/local.db" env:"WS_LOCAL_PATH"`
}

type RemoteConfig struct {
	// Driver is "badger" (embedded document store), "postgres", or "memory"
	// (in-process, lost on exit).
	Driver     string `default:"badger" env:"WS_REMOTE_DRIVER"`
	BadgerPath string `default:"data/remote" env:"WS_REMOTE_BADGER_PATH"`

	Host     string `default:"localhost" env:"WS_REMOTE_DBHOST"`
	DataBase string `default:"wellness" env:"WS_REMOTE_DBNAME"`
	User     string `default:"postgres" env:"WS_REMOTE_DBUSERNAME"`
	Password string `default:"mysecretpassword" env:"WS_REMOTE_DBPASSWORD"`
	Port     uint   `default:"5432" env:"WS_REMOTE_DBPORT"`
	SSLMode  string `default:"disable" env:"WS_REMOTE_DBSSL"`
}

// DSN renders the Postgres connection string for the postgres driver.
func (c RemoteConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.DataBase, c.Port, c.SSLMode)
}

type SyncConfig struct {
	TimeZone          string        `default:"Local" env:"WS_TIMEZONE"`
	RecheckInterval   time.Duration `default:"15m" env:"WS_RECHECK_INTERVAL"`
	StreakResetOnMiss bool          `default:"false" env:"WS_STREAK_RESET_ON_MISS"`
}

// Location resolves TimeZone. Unknown zones fall back to time.Local.
func (c SyncConfig) Location() *time.Location {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

type LogConfig struct {
	Level      string `default:"info" env:"WS_LOG_LEVEL"`
	File       string `env:"WS_LOG_FILE"`
	MaxSizeMB  int    `default:"10" env:"WS_LOG_MAX_SIZE_MB"`
	MaxBackups int    `default:"3" env:"WS_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `default:"28" env:"WS_LOG_MAX_AGE_DAYS"`
}

// LoadConfig reads the given files (missing files are skipped by configor)
// and applies env overrides.
func LoadConfig(files ...string) (Config, error) {
	var config = Config{}
	if len(files) == 0 {
		files = []string{DefaultPath}
	}
	if err := configor.New(&configor.Config{Silent: true}).Load(&config, files...); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return config, nil
}

func LoadConfigOrPanic() Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}
