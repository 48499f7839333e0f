// Package config loads process configuration the way the teacher does: a
// single YAML file read through cleanenv into a package-level singleton.
package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type StoreConfig struct {
	Path string `yaml:"path" env-default:"./data/botfleet.db"`
}

type AdminConfig struct {
	SeedEmail    string `yaml:"seed_email" env-default:"admin@admin.com"`
	SeedPassword string `yaml:"seed_password" env-default:"admin123"`
	BcryptCost   int    `yaml:"bcrypt_cost" env-default:"10"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name" env-default:"botfleet_session"`
	TTLHours   int    `yaml:"ttl_hours" env-default:"168"`
}

// CacheConfig configures the optional intent-classification cache
// (spec.md Design Note 9). When RedisURL is empty the cache runs
// in-process instead.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" env-default:""`
	TTLSec   int    `yaml:"ttl_sec" env-default:"30"`
}

type Config struct {
	Listen  Listen        `yaml:"listen"`
	Store   StoreConfig   `yaml:"store"`
	Admin   AdminConfig   `yaml:"admin"`
	Session SessionConfig `yaml:"session"`
	Cache   CacheConfig   `yaml:"cache"`
	Env     string        `yaml:"env" env-default:"local"`
}

var (
	instance *Config
	once     sync.Once
)

func MustLoad(path string) *Config {
	once.Do(func() {
		instance = &Config{}
		if err := cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			log.Fatal(fmt.Errorf("config: %w; %s", err, desc))
		}
	})
	return instance
}
