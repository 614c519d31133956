package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Queue     QueueConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Retrieval RetrievalConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type QueueConfig struct {
	Stream string
	// Group and Consumer identify this process within the stream's
	// consumer group; pending entries idle longer than ClaimMinIdle are
	// reclaimed from dead consumers.
	Group        string
	Consumer     string
	ClaimMinIdle time.Duration
	BlockTimeout time.Duration
}

type LLMConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type EmbeddingConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	CacheTTL   time.Duration
}

type RetrievalConfig struct {
	// ScoreDropEpsilon is the minimum adjacent score drop the adaptive
	// threshold reacts to.
	ScoreDropEpsilon float64
	MaxTopK          int
}

type LoggerConfig struct {
	Level string
	Env   string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 20)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("queue.stream", "quizforge:tasks")
	viper.SetDefault("queue.group", "quiz-workers")
	viper.SetDefault("queue.claim_min_idle", 60)
	viper.SetDefault("queue.block_timeout", 5)
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", 120)
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.cache_ttl", 168)
	viper.SetDefault("retrieval.score_drop_epsilon", 0.05)
	viper.SetDefault("retrieval.max_top_k", 100)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; environment variables cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	hostname, _ := os.Hostname()

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
			SSLMode:  viper.GetString("db.sslmode"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Queue: QueueConfig{
			Stream:       viper.GetString("queue.stream"),
			Group:        viper.GetString("queue.group"),
			Consumer:     viper.GetString("queue.consumer"),
			ClaimMinIdle: viper.GetDuration("queue.claim_min_idle") * time.Second,
			BlockTimeout: viper.GetDuration("queue.block_timeout") * time.Second,
		},
		LLM: LLMConfig{
			APIKey:  viper.GetString("llm.api_key"),
			Model:   viper.GetString("llm.model"),
			Timeout: viper.GetDuration("llm.timeout") * time.Second,
		},
		Embedding: EmbeddingConfig{
			APIKey:     viper.GetString("embedding.api_key"),
			Model:      viper.GetString("embedding.model"),
			Dimensions: viper.GetInt("embedding.dimensions"),
			CacheTTL:   viper.GetDuration("embedding.cache_ttl") * time.Hour,
		},
		Retrieval: RetrievalConfig{
			ScoreDropEpsilon: viper.GetFloat64("retrieval.score_drop_epsilon"),
			MaxTopK:          viper.GetInt("retrieval.max_top_k"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
	}

	if config.Queue.Consumer == "" {
		config.Queue.Consumer = hostname
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}

	return config, nil
}

// GetDSN builds the Postgres connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
