package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"title-party/internal/game"
)

type Config struct {
	Port                     int
	PublicURL                string
	DatabaseURL              string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	LogLevel                 string
	LogFormat                string
	CORSOrigins              []string
	CatalogPath              string
	HandSize                 int
	ReloadHandSize           int
	FreeWordMaxLength        int
	MinPlayers               int
	MaxPlayers               int
	MaxRounds                int
	RoundSeconds             int
	ThemeRevealSeconds       int
	CountdownSeconds         int
	SweepIntervalSeconds     int
	RateLimitPerSecond       float64
	RateLimitBurst           int
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	rules := game.DefaultRules()
	return Config{
		Port:                     8080,
		PublicURL:                "http://localhost:8080",
		LogLevel:                 "info",
		LogFormat:                "json",
		CORSOrigins:              []string{"*"},
		CatalogPath:              "catalog.csv",
		HandSize:                 rules.HandSize,
		ReloadHandSize:           rules.ReloadHandSize,
		FreeWordMaxLength:        rules.FreeWordMaxLength,
		MinPlayers:               rules.MinPlayers,
		MaxPlayers:               rules.MaxPlayers,
		MaxRounds:                rules.MaxRounds,
		RoundSeconds:             int(rules.RoundDuration / time.Second),
		ThemeRevealSeconds:       int(rules.ThemeRevealDuration / time.Second),
		CountdownSeconds:         int(rules.CountdownDuration / time.Second),
		SweepIntervalSeconds:     2,
		RateLimitPerSecond:       10,
		RateLimitBurst:           20,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

// NewViper returns a viper instance reading every key from the environment,
// upper-cased with dashes turned into underscores (database-url is
// DATABASE_URL).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cfg := Default()
	v.SetDefault("port", cfg.Port)
	v.SetDefault("public_url", cfg.PublicURL)
	v.SetDefault("database_url", cfg.DatabaseURL)
	v.SetDefault("redis_addr", cfg.RedisAddr)
	v.SetDefault("redis_password", cfg.RedisPassword)
	v.SetDefault("redis_db", cfg.RedisDB)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("cors_origins", strings.Join(cfg.CORSOrigins, ","))
	v.SetDefault("catalog_path", cfg.CatalogPath)
	v.SetDefault("hand_size", cfg.HandSize)
	v.SetDefault("reload_hand_size", cfg.ReloadHandSize)
	v.SetDefault("free_word_max_length", cfg.FreeWordMaxLength)
	v.SetDefault("min_players", cfg.MinPlayers)
	v.SetDefault("max_players", cfg.MaxPlayers)
	v.SetDefault("max_rounds", cfg.MaxRounds)
	v.SetDefault("round_seconds", cfg.RoundSeconds)
	v.SetDefault("theme_reveal_seconds", cfg.ThemeRevealSeconds)
	v.SetDefault("countdown_seconds", cfg.CountdownSeconds)
	v.SetDefault("sweep_interval_seconds", cfg.SweepIntervalSeconds)
	v.SetDefault("rate_limit_per_second", cfg.RateLimitPerSecond)
	v.SetDefault("rate_limit_burst", cfg.RateLimitBurst)
	v.SetDefault("db_max_open_conns", cfg.DBMaxOpenConns)
	v.SetDefault("db_max_idle_conns", cfg.DBMaxIdleConns)
	v.SetDefault("db_conn_max_lifetime_seconds", cfg.DBConnMaxLifetimeSeconds)
	v.SetDefault("db_conn_max_idle_seconds", cfg.DBConnMaxIdleTimeSeconds)
	return v
}

// Load reads the configuration from the environment.
func Load() Config {
	return FromViper(NewViper())
}

func FromViper(v *viper.Viper) Config {
	return Config{
		Port:                     v.GetInt("port"),
		PublicURL:                strings.TrimRight(v.GetString("public_url"), "/"),
		DatabaseURL:              v.GetString("database_url"),
		RedisAddr:                v.GetString("redis_addr"),
		RedisPassword:            v.GetString("redis_password"),
		RedisDB:                  v.GetInt("redis_db"),
		LogLevel:                 v.GetString("log_level"),
		LogFormat:                v.GetString("log_format"),
		CORSOrigins:              splitList(v.GetString("cors_origins")),
		CatalogPath:              v.GetString("catalog_path"),
		HandSize:                 v.GetInt("hand_size"),
		ReloadHandSize:           v.GetInt("reload_hand_size"),
		FreeWordMaxLength:        v.GetInt("free_word_max_length"),
		MinPlayers:               v.GetInt("min_players"),
		MaxPlayers:               v.GetInt("max_players"),
		MaxRounds:                v.GetInt("max_rounds"),
		RoundSeconds:             v.GetInt("round_seconds"),
		ThemeRevealSeconds:       v.GetInt("theme_reveal_seconds"),
		CountdownSeconds:         v.GetInt("countdown_seconds"),
		SweepIntervalSeconds:     v.GetInt("sweep_interval_seconds"),
		RateLimitPerSecond:       v.GetFloat64("rate_limit_per_second"),
		RateLimitBurst:           v.GetInt("rate_limit_burst"),
		DBMaxOpenConns:           v.GetInt("db_max_open_conns"),
		DBMaxIdleConns:           v.GetInt("db_max_idle_conns"),
		DBConnMaxLifetimeSeconds: v.GetInt("db_conn_max_lifetime_seconds"),
		DBConnMaxIdleTimeSeconds: v.GetInt("db_conn_max_idle_seconds"),
	}
}

// BindFlags binds every flag in fs to the viper key of the same name, so a
// flag set on the command line wins over the environment.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("%w: invalid port %d", game.ErrConfiguration, c.Port)
	case c.MinPlayers < 2 || c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("%w: player limits %d-%d", game.ErrConfiguration, c.MinPlayers, c.MaxPlayers)
	case c.MaxRounds < 1:
		return fmt.Errorf("%w: max rounds must be positive", game.ErrConfiguration)
	case c.HandSize < 2 || c.ReloadHandSize < 2 || c.ReloadHandSize > c.HandSize:
		return fmt.Errorf("%w: hand sizes %d/%d", game.ErrConfiguration, c.HandSize, c.ReloadHandSize)
	case c.FreeWordMaxLength < 1:
		return fmt.Errorf("%w: free word length must be positive", game.ErrConfiguration)
	case c.RoundSeconds < 1 || c.ThemeRevealSeconds < 0 || c.CountdownSeconds < 0:
		return fmt.Errorf("%w: invalid phase durations", game.ErrConfiguration)
	case c.SweepIntervalSeconds < 1:
		return fmt.Errorf("%w: sweep interval must be positive", game.ErrConfiguration)
	case c.RateLimitPerSecond < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: invalid rate limit", game.ErrConfiguration)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format must be json or console", game.ErrConfiguration)
	}
	return nil
}

func (c Config) GameRules() game.Rules {
	rules := game.DefaultRules()
	rules.HandSize = c.HandSize
	rules.ReloadHandSize = c.ReloadHandSize
	rules.FreeWordMaxLength = c.FreeWordMaxLength
	rules.MinPlayers = c.MinPlayers
	rules.MaxPlayers = c.MaxPlayers
	rules.MaxRounds = c.MaxRounds
	rules.RoundDuration = time.Duration(c.RoundSeconds) * time.Second
	rules.ThemeRevealDuration = time.Duration(c.ThemeRevealSeconds) * time.Second
	rules.CountdownDuration = time.Duration(c.CountdownSeconds) * time.Second
	return rules
}

func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
