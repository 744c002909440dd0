package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Database struct {
	// Primary is required; the engine refuses to start without it.
	Primary string `yaml:"primary"`

	// Replica DSNs are optional. An empty value means reads for that
	// region are served by the primary (logged once at startup).
	ReplicaNorth string `yaml:"replica_north"`
	ReplicaSouth string `yaml:"replica_south"`

	MaxOpenConns       int `yaml:"max_open_conns"`
	MaxIdleConns       int `yaml:"max_idle_conns"`
	ConnLifetimeMins   int `yaml:"conn_lifetime_mins"`
	QueryTimeoutMillis int `yaml:"query_timeout_ms"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Database Database `yaml:"database"`

	Health struct {
		ProbeSeconds int `yaml:"probe_seconds"`
	} `yaml:"health"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (d Database) QueryTimeout() time.Duration {
	if d.QueryTimeoutMillis <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.QueryTimeoutMillis) * time.Millisecond
}

func (d Database) ConnLifetime() time.Duration {
	if d.ConnLifetimeMins <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(d.ConnLifetimeMins) * time.Minute
}
