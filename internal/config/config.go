// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Env-only operation is supported.
package config

import (
    "os"
    "strconv"

    "gopkg.in/yaml.v3"
)

type Config struct {
    Addr        string `yaml:"addr"`
    DatabaseURL string `yaml:"databaseUrl"`
    RedisURL    string `yaml:"redisUrl"`

    Market struct {
        BaseURL string `yaml:"baseUrl"`
        Token   string `yaml:"token"`
    } `yaml:"market"`

    Auth struct {
        Mode       string `yaml:"mode"`
        HMACSecret string `yaml:"hmacSecret"`
        JWKSURL    string `yaml:"jwksUrl"`
    } `yaml:"auth"`

    Webhooks struct {
        MaxAttempts int `yaml:"maxAttempts"`
    } `yaml:"webhooks"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// is missing) and then applies environment overrides.
func Load(path string) (Config, error) {
    var c Config
    c.Addr = ":8080"
    c.Auth.Mode = "dev"
    c.Webhooks.MaxAttempts = 10

    if path != "" {
        data, err := os.ReadFile(path)
        if err == nil {
            if err := yaml.Unmarshal(data, &c); err != nil {
                return Config{}, err
            }
        } else if !os.IsNotExist(err) {
            return Config{}, err
        }
    }

    overrideString(&c.Addr, "ADDR")
    overrideString(&c.DatabaseURL, "DATABASE_URL")
    overrideString(&c.RedisURL, "REDIS_URL")
    overrideString(&c.Market.BaseURL, "MARKET_BASE_URL")
    overrideString(&c.Market.Token, "MARKET_TOKEN")
    overrideString(&c.Auth.Mode, "AUTH_MODE")
    overrideString(&c.Auth.HMACSecret, "AUTH_HMAC_SECRET")
    overrideString(&c.Auth.JWKSURL, "AUTH_JWKS_URL")
    overrideInt(&c.Webhooks.MaxAttempts, "WEBHOOK_MAX_ATTEMPTS")
    return c, nil
}

func overrideString(dst *string, key string) {
    if v := os.Getenv(key); v != "" {
        *dst = v
    }
}

func overrideInt(dst *int, key string) {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            *dst = n
        }
    }
}
