package config

import (
	"os"
	"strconv"
	"time"
)

// Config 病历录入客户端配置
type Config struct {
	// 远端病历服务
	API struct {
		BaseURL        string
		TimeoutSeconds int // 所有远端调用的统一超时（秒）
	}

	// 去抖延迟
	Debounce struct {
		SearchMillis  int // 姓名/电话搜索输入去抖，默认 300ms
		SimilarMillis int // 九宫格变更触发相似病例检索去抖，默认 1000ms
	}

	// Redis（可选，仅用于医师名册缓存；未启用时退化为内存缓存）
	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	Roster struct {
		CacheTTLSeconds int // 医师名册缓存 TTL，默认 300 秒
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.API.BaseURL = getEnv("API_BASE_URL", "http://localhost:8000")
	cfg.API.TimeoutSeconds = getEnvInt("API_TIMEOUT_SECONDS", 10)

	cfg.Debounce.SearchMillis = getEnvInt("SEARCH_DEBOUNCE_MS", 300)
	cfg.Debounce.SimilarMillis = getEnvInt("SIMILAR_DEBOUNCE_MS", 1000)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Roster.CacheTTLSeconds = getEnvInt("ROSTER_CACHE_TTL_SECONDS", 300)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// APITimeout 远端调用超时
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// SearchDelay 搜索输入去抖延迟
func (c *Config) SearchDelay() time.Duration {
	return time.Duration(c.Debounce.SearchMillis) * time.Millisecond
}

// SimilarDelay 相似病例检索去抖延迟
func (c *Config) SimilarDelay() time.Duration {
	return time.Duration(c.Debounce.SimilarMillis) * time.Millisecond
}

// RosterTTL 医师名册缓存 TTL
func (c *Config) RosterTTL() time.Duration {
	return time.Duration(c.Roster.CacheTTLSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}
