// Package config 从XDG路径加载TOML配置，缺省值兜底。
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSocketPath    = "/tmp/miaudioplay.sock"
	DefaultCheckInterval = 2 * time.Second
)

func getDefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "miaudioplay", "lyrics")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lyrics_cache"
	}
	return filepath.Join(homeDir, ".cache", "miaudioplay", "lyrics")
}

// TomlConfig TOML配置文件结构
type TomlConfig struct {
	App struct {
		SocketPath    string `toml:"socket_path"`
		CheckInterval string `toml:"check_interval"`
		CacheDir      string `toml:"cache_dir"`
	} `toml:"app"`

	Player struct {
		MPRISService string `toml:"mpris_service"`
	} `toml:"player"`

	AI struct {
		ModuleName string `toml:"module_name"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI
	} `toml:"ai"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`

	Providers struct {
		NetEaseCookie string `toml:"netease_cookie"`
		QQMusicCookie string `toml:"qqmusic_cookie"`
		HappiAPIKey   string `toml:"happi_api_key"`
	} `toml:"providers"`
}

// AppConfig 应用配置
type AppConfig struct {
	SocketPath    string
	CheckInterval time.Duration
	CacheDir      string
}

// PlayerConfig 播放器配置，MPRISService为空时自动发现
type PlayerConfig struct {
	MPRISService string
}

// AIConfig AI配置，APIKey为空时禁用元数据提取
type AIConfig struct {
	ModuleName string
	APIKey     string
	BaseURL    string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ProvidersConfig 各歌词来源的凭据
type ProvidersConfig struct {
	NetEaseCookie string
	QQMusicCookie string
	HappiAPIKey   string
}

// Config 主配置结构
type Config struct {
	App       AppConfig
	Player    PlayerConfig
	AI        AIConfig
	Redis     RedisConfig
	Providers ProvidersConfig
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "miaudioplay", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("cannot get user home directory")
		return "config.toml"
	}
	return filepath.Join(homeDir, ".config", "miaudioplay", "config.toml")
}

// loadTomlConfig 加载TOML配置文件，不存在时返回空配置
func loadTomlConfig() (*TomlConfig, error) {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Info().Str("path", configPath).Msg("config file not found, using defaults")
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Info().Str("path", configPath).Msg("loaded config")
	return &config, nil
}

// Load 加载配置，文件里的值覆盖默认值
func Load() *Config {
	tomlConfig, err := loadTomlConfig()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config file, using defaults")
		tomlConfig = &TomlConfig{}
	}

	config := &Config{
		App: AppConfig{
			SocketPath:    DefaultSocketPath,
			CheckInterval: DefaultCheckInterval,
			CacheDir:      getDefaultCacheDir(),
		},
		AI: AIConfig{
			ModuleName: "gemini",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}

	if tomlConfig.App.SocketPath != "" {
		config.App.SocketPath = tomlConfig.App.SocketPath
	}
	if tomlConfig.App.CheckInterval != "" {
		if duration, err := time.ParseDuration(tomlConfig.App.CheckInterval); err == nil {
			config.App.CheckInterval = duration
		} else {
			log.Warn().Str("check_interval", tomlConfig.App.CheckInterval).Msg("invalid check_interval format, using default")
		}
	}
	if tomlConfig.App.CacheDir != "" {
		config.App.CacheDir = tomlConfig.App.CacheDir
	}

	config.Player.MPRISService = tomlConfig.Player.MPRISService

	if tomlConfig.AI.ModuleName != "" {
		config.AI.ModuleName = tomlConfig.AI.ModuleName
	}
	config.AI.APIKey = tomlConfig.AI.APIKey
	config.AI.BaseURL = tomlConfig.AI.BaseURL

	config.Redis.Enabled = tomlConfig.Redis.Enabled
	if tomlConfig.Redis.Addr != "" {
		config.Redis.Addr = tomlConfig.Redis.Addr
	}
	config.Redis.Password = tomlConfig.Redis.Password
	config.Redis.DB = tomlConfig.Redis.DB

	config.Providers.NetEaseCookie = tomlConfig.Providers.NetEaseCookie
	config.Providers.QQMusicCookie = tomlConfig.Providers.QQMusicCookie
	config.Providers.HappiAPIKey = tomlConfig.Providers.HappiAPIKey

	return config
}
