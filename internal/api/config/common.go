package config

import "time"

// Config 配置主体
type Config struct {
	Server               ServerConfig         `mapstructure:"server"`
	DB                   DBConfig             `mapstructure:"database"`
	Redis                RedisConfig          `mapstructure:"redis"`
	Mongo                MongoConfig          `mapstructure:"mongo"`
	MinIO                MinIOConfig          `mapstructure:"minio"`
	Media                MediaConfig          `mapstructure:"media"`
	Kafka                KafkaConfig          `mapstructure:"kafka"`
	KafkaMessageConsumer KafkaMessageConsumer `mapstructure:"kafka_message_consumer"`
	Realtime             RealtimeConfig       `mapstructure:"realtime"`
	Logstash             LogstashConfig       `mapstructure:"logstash"`
	LibPath              LibPathConfig        `mapstructure:"lib_path"`
	N8N                  N8NConfig            `mapstructure:"n8n"`
	Security             SecurityConfig       `mapstructure:"security"`
	Client               ClientConfig         `mapstructure:"client"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	ExternalUseSSL   bool   `mapstructure:"external_use_ssl"`
}

// MediaConfig 聊天媒体的临时记录与清理
type MediaConfig struct {
	TempTTL     time.Duration `mapstructure:"temp_ttl"`
	CleanupSpec string        `mapstructure:"cleanup_spec"`
}

// LibPathConfig 库路径
type LibPathConfig struct {
	FFprobe string `mapstructure:"ffprobe"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaMessageConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

const (
	RealtimeDirect = "direct"
	RealtimeCanal  = "canal"
)

// RealtimeConfig 变更推送的来源：业务层直接发布或 Canal 中转
type RealtimeConfig struct {
	Source  string `mapstructure:"source"`
	Channel string `mapstructure:"channel"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type N8NConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SecurityConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
}

// ClientConfig 终端客户端配置
type ClientConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	WSURL        string        `mapstructure:"ws_url"`
	Token        string        `mapstructure:"token"`
	ChatID       string        `mapstructure:"chat_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	LogFile      string        `mapstructure:"log_file"`
	Permissions  []string      `mapstructure:"permissions"`
	WebPush      WebPushConfig `mapstructure:"webpush"`
}

type WebPushConfig struct {
	Subscriber      string `mapstructure:"subscriber"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscription    string `mapstructure:"subscription"`
}
