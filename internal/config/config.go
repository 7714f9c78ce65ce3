// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Deposition    DepositionConfig    `mapstructure:"deposition"`
	GitHub        GitHubConfig        `mapstructure:"github"`
	Download      DownloadConfig      `mapstructure:"download"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AppConfig 存储 UVLHub 自身的运行参数。
type AppConfig struct {
	// WorkingDir 是 uploads/ 目录所在的根目录。
	WorkingDir string `mapstructure:"working_dir"`
	// Domain 用于拼接对外展示的 DOI 地址。
	Domain string `mapstructure:"domain"`
}

// UploadsDir 返回 uploads 根目录。
func (c AppConfig) UploadsDir() string {
	return filepath.Join(c.WorkingDir, "uploads")
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	// Driver 可选 mysql、postgres、sqlite。
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
	// VerificationMaxAgeSeconds 是邮箱验证 token 的有效期。
	VerificationMaxAgeSeconds int `mapstructure:"verification_max_age_seconds"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// DepositionConfig 控制数据集同步到存档服务的方式。
type DepositionConfig struct {
	// Async 为 true 时通过 Kafka 异步同步，否则在请求内同步执行。
	Async bool `mapstructure:"async"`
}

// GitHubConfig 存储从 GitHub 导入文件的配置。
type GitHubConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DownloadConfig 存储批量下载与格式转换的配置。
type DownloadConfig struct {
	Concurrency              int    `mapstructure:"concurrency"`
	ConversionTimeoutSeconds int    `mapstructure:"conversion_timeout_seconds"`
	ConverterCommand         string `mapstructure:"converter_command"`
}

// Init 初始化配置加载：先尝试读取 .env，再从指定路径读取 YAML 文件，
// 环境变量（如 APP_DOMAIN）可覆盖文件中的值。
func Init(configPath string) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := v.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("app.domain", "localhost")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("jwt.access_token_expire_hours", 24)
	v.SetDefault("jwt.refresh_token_expire_days", 7)
	v.SetDefault("jwt.verification_max_age_seconds", 3600)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("kafka.topic", "uvlhub-dataset-sync")
	v.SetDefault("kafka.group_id", "uvlhub-sync-consumer")
	v.SetDefault("elasticsearch.index_name", "uvlhub_datasets")
	v.SetDefault("minio.bucket_name", "uvlhub")
	v.SetDefault("github.timeout_seconds", 15)
	v.SetDefault("download.concurrency", 4)
	v.SetDefault("download.conversion_timeout_seconds", 30)
}
