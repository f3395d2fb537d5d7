package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

const envPrefix = "CHATWAVE"

// LoadConfig 从文件加载配置并填充到 Cfg，path 为空时读取 ./configs/config.yaml
func LoadConfig(path string) error {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("realtime.source", RealtimeDirect)
	v.SetDefault("realtime.channel", "im:table:messages")
	v.SetDefault("security.jwt_secret", "chatwave-dev-secret")
	v.SetDefault("security.jwt_expiration", "24h")
	v.SetDefault("n8n.timeout", "30s")
	v.SetDefault("media.temp_ttl", "24h")
	v.SetDefault("media.cleanup_spec", "@every 10m")
	v.SetDefault("client.base_url", "http://localhost:8080/api")
	v.SetDefault("client.ws_url", "ws://localhost:8080/api/im/ws")
	v.SetDefault("client.poll_interval", "3s")
	v.SetDefault("client.permissions", []string{"microphone", "media_library", "camera"})
	v.SetDefault("lib_path.ffprobe", "ffprobe")
}
