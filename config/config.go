package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	World    WorldConfig    `mapstructure:"world"`
	Economy  EconomyConfig  `mapstructure:"economy"`
	Events   EventsConfig   `mapstructure:"events"`
	Market   MarketConfig   `mapstructure:"market"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
	// AdminIPs restricts /api/admin to these client IPs. Empty allows any.
	AdminIPs []string `mapstructure:"admin_ips"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`
	// PassphraseHash is the bcrypt hash players log in with.
	PassphraseHash string  `mapstructure:"passphrase_hash"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the WebSocket/SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type WorldConfig struct {
	Seed        int64         `mapstructure:"seed"` // 0 picks one from the clock
	NodeCount   int           `mapstructure:"node_count"`
	AgentCount  int           `mapstructure:"agent_count"`
	Bound       float64       `mapstructure:"bound"`
	AgentTick   time.Duration `mapstructure:"agent_tick"`
	LogSize     int           `mapstructure:"log_size"`
	EventBuffer int           `mapstructure:"event_buffer"`
}

type EconomyConfig struct {
	MaxPot         float64       `mapstructure:"max_pot"`
	InitialPot     float64       `mapstructure:"initial_pot"`
	BaseRate       float64       `mapstructure:"base_rate"`
	OwnerFee       float64       `mapstructure:"owner_fee"`
	AdRevenue      float64       `mapstructure:"ad_revenue"`
	Tick           time.Duration `mapstructure:"tick"`
	DepletedFactor float64       `mapstructure:"depleted_factor"`
}

type EventsConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	StormChance   float64       `mapstructure:"storm_chance"`
	StormDuration time.Duration `mapstructure:"storm_duration"`
	AdDuration    time.Duration `mapstructure:"ad_duration"`
}

type MarketConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.admin_key", "")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/ledger.db")
	v.SetDefault("database.mysql_max_open", 20)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.passphrase_hash", "")
	v.SetDefault("security.jwt_ttl", "24h")
	v.SetDefault("security.rate_limit_rps", 50)
	v.SetDefault("security.rate_limit_burst", 100)

	v.SetDefault("world.seed", 0)
	v.SetDefault("world.node_count", 150)
	v.SetDefault("world.agent_count", 5)
	v.SetDefault("world.bound", 98)
	v.SetDefault("world.agent_tick", "100ms")
	v.SetDefault("world.log_size", 5)
	v.SetDefault("world.event_buffer", 512)

	v.SetDefault("economy.max_pot", 10000)
	v.SetDefault("economy.initial_pot", 5000)
	v.SetDefault("economy.base_rate", 0.05)
	v.SetDefault("economy.owner_fee", 0.1)
	v.SetDefault("economy.ad_revenue", 1000)
	v.SetDefault("economy.tick", "1s")
	v.SetDefault("economy.depleted_factor", 0.1)

	v.SetDefault("events.check_interval", "30s")
	v.SetDefault("events.storm_chance", 0.15)
	v.SetDefault("events.storm_duration", "20s")
	v.SetDefault("events.ad_duration", "4s")

	v.SetDefault("market.endpoint", "")
	v.SetDefault("market.api_key", "")
	v.SetDefault("market.interval", "30s")
	v.SetDefault("market.timeout", "5s")
	v.SetDefault("market.min_interval", "10s")
	v.SetDefault("market.cache_ttl", "10m")
}

// Load reads config from the given YAML file path. Environment variables
// prefixed RIGWORLD_ override file values (RIGWORLD_MARKET_API_KEY).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("rigworld")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading a file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}
