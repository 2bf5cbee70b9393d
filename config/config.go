package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Service names, used as keys under services.
const (
	ServiceInventory = "inventory"
	ServiceItem      = "item"
	ServicePlayer    = "player"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Services ServicesConfig `mapstructure:"services"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Launcher LauncherConfig `mapstructure:"launcher"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Mode       string        `mapstructure:"mode"` // mysql | sqlite
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	Database   string        `mapstructure:"database"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	MaxOpen    int           `mapstructure:"max_open"`
	MaxIdle    int           `mapstructure:"max_idle"`
	MaxLife    time.Duration `mapstructure:"max_life"`
}

type ServiceConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Port        int           `mapstructure:"port"`
	CacheSize   int           `mapstructure:"cache_size"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type ServicesConfig struct {
	Inventory ServiceConfig `mapstructure:"inventory"`
	Item      ServiceConfig `mapstructure:"item"`
	Player    ServiceConfig `mapstructure:"player"`
}

// Get returns the settings of the named service.
func (s ServicesConfig) Get(name string) (ServiceConfig, bool) {
	switch name {
	case ServiceInventory:
		return s.Inventory, true
	case ServiceItem:
		return s.Item, true
	case ServicePlayer:
		return s.Player, true
	}
	return ServiceConfig{}, false
}

// Names lists the service names in launch order.
func (ServicesConfig) Names() []string {
	return []string{ServiceItem, ServicePlayer, ServiceInventory}
}

type CacheConfig struct {
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	LocalPubSubBuf int    `mapstructure:"local_pubsub_buf"`
}

type CatalogConfig struct {
	RefinedStackSize int64 `mapstructure:"refined_stack_size"`
}

type AdminConfig struct {
	Port           int     `mapstructure:"port"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type LauncherConfig struct {
	Grace time.Duration `mapstructure:"grace"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads config from the given YAML file path. An empty path reads no
// file and yields defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SPACEMMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("database.mode", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "space_mmo")
	v.SetDefault("database.sqlite_path", "./data/space_mmo.db")
	v.SetDefault("database.max_open", 10)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.max_life", "1h")
	setServiceDefaults(v, ServiceInventory, 9090)
	setServiceDefaults(v, ServiceItem, 9091)
	setServiceDefaults(v, ServicePlayer, 9092)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("catalog.refined_stack_size", 100)
	v.SetDefault("admin.port", 8080)
	v.SetDefault("admin.rate_limit_rps", 20)
	v.SetDefault("admin.rate_limit_burst", 40)
	v.SetDefault("launcher.grace", "5s")
	v.SetDefault("log.debug", false)

	// The shared DB_* names predate the SPACEMMO_ prefix.
	for key, env := range map[string]string{
		"database.host":     "DB_HOST",
		"database.port":     "DB_PORT",
		"database.user":     "DB_USER",
		"database.password": "DB_PASSWORD",
		"database.database": "DB_DATABASE",
	} {
		if err := v.BindEnv(key, env, "SPACEMMO_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setServiceDefaults(v *viper.Viper, name string, port int) {
	prefix := "services." + name + "."
	v.SetDefault(prefix+"enabled", true)
	v.SetDefault(prefix+"port", port)
	v.SetDefault(prefix+"cache_size", 128)
	v.SetDefault(prefix+"idle_timeout", "0s")
}
