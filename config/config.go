package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Server
	ServerPort string

	// 通话记录持久化文件路径（为空时根据环境自动选择）
	RecordsFile string

	// Redis（可选，用于记录快照缓存）
	RedisHost string
	RedisPort string
	RedisDB   int

	// MQTT 事件桥（可选，broker 地址为空时禁用）
	MQTTBrokerURL  string
	MQTTClientID   string
	MQTTUsername   string
	MQTTPassword   string
	MQTTSSLEnabled bool
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		// Environment type
		EnvType: envType,

		// Server config
		ServerPort: getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "3001")),

		// Records file config
		RecordsFile: getEnv(prefix+"RECORDS_FILE", getEnv("RECORDS_FILE", "")),

		// Redis config
		RedisHost: getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "")),
		RedisPort: getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		// MQTT config
		MQTTBrokerURL:  getEnv(prefix+"MQTT_BROKER_URL", getEnv("MQTT_BROKER_URL", "")),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "vphone-server"),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTSSLEnabled: getEnvAsBool("MQTT_SSL_ENABLED", false),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// RedisEnabled 判断是否配置了Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// GetRecordsFilePath 返回通话记录文件路径
// 开发环境写工作目录，SERVER环境写系统临时目录（宿主磁盘通常只读）
func (c *Config) GetRecordsFilePath() string {
	if c.RecordsFile != "" {
		return c.RecordsFile
	}
	if strings.ToUpper(c.EnvType) == "SERVER" {
		return filepath.Join(os.TempDir(), "call_records.json")
	}
	return "call_records.json"
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
