package config

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	AI        AIConfig
	Knowledge KnowledgeConfig
	Archive   ArchiveConfig
}

type ServerConfig struct {
	Port          string `validate:"required"`
	Env           string
	MaxUploadSize int64 `validate:"gt=0"`
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// 查询响应缓存TTL（秒）
	CacheTTL int `validate:"gt=0"`
}

type AIConfig struct {
	OpenAIAPIKey   string
	ChatModel      string  `validate:"required"`
	EmbeddingModel string  `validate:"required"`
	MaxTokens      int     `validate:"gt=0"`
	Temperature    float64 `validate:"gte=0"`
}

type KnowledgeConfig struct {
	ChunkSize          int     `validate:"gt=0"`
	ChunkOverlap       int     `validate:"gte=0"`
	TopK               int     `validate:"gt=0"`
	RelevanceThreshold float64 `validate:"gte=-1,lte=1"`
	MaxContextChars    int     `validate:"gt=0"`
	SourceSnippetChars int     `validate:"gt=0"`
	// 外部调用超时（秒），对嵌入、向量检索、生成统一生效
	CallTimeoutSeconds int `validate:"gt=0"`
	VectorStore        VectorStoreConfig
}

type VectorStoreConfig struct {
	Provider string `validate:"oneof=milvus memory"`
	Milvus   MilvusConfig
}

type MilvusConfig struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Database   string
	TLS        bool
	VectorSize int `validate:"gt=0"`
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// 全局配置指针由fsnotify回调goroutine替换，请求侧并发读取，必须原子交换
var appConfig atomic.Pointer[Config]

// GetAppConfig 获取全局配置快照
// 返回的指针指向一份完整且校验过的配置，热更新只替换指针不改写字段
func GetAppConfig() *Config {
	return appConfig.Load()
}

func storeAppConfig(cfg *Config) {
	appConfig.Store(cfg)
}

// CallTimeout 返回外部调用超时时长
func (c *KnowledgeConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// CacheTTLDuration 返回缓存TTL时长
func (c *RedisConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// LoadConfig 加载配置：默认值 < 配置文件 < 环境变量
func LoadConfig() error {
	// 设置默认值
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.max_upload_size", 104857600) // 100MB
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.cache_ttl", 3600)

	// AI配置默认值
	viper.SetDefault("ai.chat_model", "gpt-3.5-turbo")
	viper.SetDefault("ai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("ai.max_tokens", 150)
	viper.SetDefault("ai.temperature", 0.7)

	// 检索配置默认值
	viper.SetDefault("knowledge.chunk_size", 500)
	viper.SetDefault("knowledge.chunk_overlap", 50)
	viper.SetDefault("knowledge.top_k", 5)
	viper.SetDefault("knowledge.relevance_threshold", 0.3)
	viper.SetDefault("knowledge.max_context_chars", 4000)
	viper.SetDefault("knowledge.source_snippet_chars", 500)
	viper.SetDefault("knowledge.call_timeout_seconds", 30)
	viper.SetDefault("knowledge.vector_store.provider", "milvus")
	viper.SetDefault("knowledge.vector_store.milvus.address", "localhost:19530")
	viper.SetDefault("knowledge.vector_store.milvus.collection", "document_chunks")
	viper.SetDefault("knowledge.vector_store.milvus.database", "default")
	viper.SetDefault("knowledge.vector_store.milvus.tls", false)
	viper.SetDefault("knowledge.vector_store.milvus.vector_size", 1536)

	// 文档归档默认值
	viper.SetDefault("archive.enabled", false)
	viper.SetDefault("archive.bucket", "chatdoc-documents")
	viper.SetDefault("archive.use_ssl", false)

	// 可选的配置文件
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./conf")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 读取环境变量
	viper.SetEnvPrefix("CHATDOC")
	viper.AutomaticEnv()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		viper.Set("redis.host", redisHost)
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		viper.Set("redis.port", redisPort)
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		viper.Set("redis.password", redisPassword)
	}
	if openaiKey := os.Getenv("OPENAI_API_KEY"); openaiKey != "" {
		viper.Set("ai.openai_api_key", openaiKey)
	}
	if chatModel := os.Getenv("CHAT_MODEL"); chatModel != "" {
		viper.Set("ai.chat_model", chatModel)
	}
	if embeddingModel := os.Getenv("EMBEDDING_MODEL"); embeddingModel != "" {
		viper.Set("ai.embedding_model", embeddingModel)
	}
	if milvusAddress := os.Getenv("MILVUS_ADDRESS"); milvusAddress != "" {
		viper.Set("knowledge.vector_store.milvus.address", milvusAddress)
	}
	if provider := os.Getenv("VECTOR_STORE_PROVIDER"); provider != "" {
		viper.Set("knowledge.vector_store.provider", provider)
	}
	if minioEndpoint := os.Getenv("MINIO_ENDPOINT"); minioEndpoint != "" {
		viper.Set("archive.endpoint", minioEndpoint)
		viper.Set("archive.enabled", true)
	}
	if minioAccessKey := os.Getenv("MINIO_ACCESS_KEY"); minioAccessKey != "" {
		viper.Set("archive.access_key", minioAccessKey)
	}
	if minioSecretKey := os.Getenv("MINIO_SECRET_KEY"); minioSecretKey != "" {
		viper.Set("archive.secret_key", minioSecretKey)
	}
	if minioBucket := os.Getenv("MINIO_BUCKET"); minioBucket != "" {
		viper.Set("archive.bucket", minioBucket)
	}

	cfg := buildConfig()
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	storeAppConfig(cfg)

	// 配置文件热更新（仅在存在配置文件时有效）
	// 只对每次请求重新读取的字段生效（如server.max_upload_size）；
	// 分块、检索、TTL等参数在服务构造时拷贝，改动需要重启进程
	viper.OnConfigChange(func(e fsnotify.Event) {
		reloaded := buildConfig()
		if err := ValidateConfig(reloaded); err != nil {
			return
		}
		storeAppConfig(reloaded)
	})
	viper.WatchConfig()

	return nil
}

// ValidateConfig 校验配置合法性
func ValidateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// 分块重叠必须小于分块大小，否则窗口无法前进
	if cfg.Knowledge.ChunkOverlap >= cfg.Knowledge.ChunkSize {
		return fmt.Errorf("invalid configuration: chunk_overlap (%d) must be less than chunk_size (%d)",
			cfg.Knowledge.ChunkOverlap, cfg.Knowledge.ChunkSize)
	}
	return nil
}

func buildConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          viper.GetString("server.port"),
			Env:           viper.GetString("server.env"),
			MaxUploadSize: viper.GetInt64("server.max_upload_size"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetString("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
			CacheTTL: viper.GetInt("redis.cache_ttl"),
		},
		AI: AIConfig{
			OpenAIAPIKey:   viper.GetString("ai.openai_api_key"),
			ChatModel:      viper.GetString("ai.chat_model"),
			EmbeddingModel: viper.GetString("ai.embedding_model"),
			MaxTokens:      viper.GetInt("ai.max_tokens"),
			Temperature:    viper.GetFloat64("ai.temperature"),
		},
		Knowledge: KnowledgeConfig{
			ChunkSize:          viper.GetInt("knowledge.chunk_size"),
			ChunkOverlap:       viper.GetInt("knowledge.chunk_overlap"),
			TopK:               viper.GetInt("knowledge.top_k"),
			RelevanceThreshold: viper.GetFloat64("knowledge.relevance_threshold"),
			MaxContextChars:    viper.GetInt("knowledge.max_context_chars"),
			SourceSnippetChars: viper.GetInt("knowledge.source_snippet_chars"),
			CallTimeoutSeconds: viper.GetInt("knowledge.call_timeout_seconds"),
			VectorStore: VectorStoreConfig{
				Provider: viper.GetString("knowledge.vector_store.provider"),
				Milvus: MilvusConfig{
					Address:    viper.GetString("knowledge.vector_store.milvus.address"),
					Username:   viper.GetString("knowledge.vector_store.milvus.username"),
					Password:   viper.GetString("knowledge.vector_store.milvus.password"),
					Collection: viper.GetString("knowledge.vector_store.milvus.collection"),
					Database:   viper.GetString("knowledge.vector_store.milvus.database"),
					TLS:        viper.GetBool("knowledge.vector_store.milvus.tls"),
					VectorSize: viper.GetInt("knowledge.vector_store.milvus.vector_size"),
				},
			},
		},
		Archive: ArchiveConfig{
			Enabled:   viper.GetBool("archive.enabled"),
			Endpoint:  viper.GetString("archive.endpoint"),
			AccessKey: viper.GetString("archive.access_key"),
			SecretKey: viper.GetString("archive.secret_key"),
			Bucket:    viper.GetString("archive.bucket"),
			UseSSL:    viper.GetBool("archive.use_ssl"),
		},
	}
}
