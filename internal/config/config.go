package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	MySQL   MySQLConfig
	Redis   RedisConfig
	Auth    AuthConfig
	AI      AIConfig
	Voice   VoiceConfig
	Storage StorageConfig
}

// fileConfig 对应可选的 config.toml，环境变量优先于文件。
type fileConfig struct {
	Server  map[string]string `toml:"server"`
	MySQL   map[string]string `toml:"mysql"`
	Redis   map[string]string `toml:"redis"`
	Auth    map[string]string `toml:"auth"`
	AI      map[string]string `toml:"ai"`
	Voice   map[string]string `toml:"voice"`
	Storage map[string]string `toml:"storage"`
}

var fileValues map[string]string

// Load 从环境变量加载配置，缺失项回退到可选的 config.toml。
func Load() (*Config, error) {
	if err := loadFile(getEnvOrDefault("CONFIG_FILE", "config.toml")); err != nil {
		return nil, err
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	mysqlCfg, err := loadMySQLConfig()
	if err != nil {
		return nil, err
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		MySQL:   mysqlCfg,
		Redis:   redisCfg,
		Auth:    auth,
		AI:      ai,
		Voice:   voice,
		Storage: storage,
	}, nil
}

func loadFile(path string) error {
	fileValues = map[string]string{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, section := range []map[string]string{fc.Server, fc.MySQL, fc.Redis, fc.Auth, fc.AI, fc.Voice, fc.Storage} {
		for key, val := range section {
			fileValues[strings.ToUpper(key)] = val
		}
	}
	return nil
}

// lookup 先查环境变量，再查配置文件。
func lookup(key string) (string, bool) {
	if raw, ok := os.LookupEnv(key); ok && strings.TrimSpace(raw) != "" {
		return strings.TrimSpace(raw), true
	}
	if val, ok := fileValues[key]; ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val), true
	}
	return "", false
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	PublicURL      string
	AllowedOrigins []string
	TempDir        string
}

func loadServerConfig() (ServerConfig, error) {
	port := getEnvOrDefault("PORT", "8082")

	var addr string
	switch {
	case strings.Contains(port, ":"):
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		addr = port
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	default:
		addr = ":" + port
	}

	publicURL := getEnvOrDefault("SERVER_PUBLIC_URL", "http://localhost:"+strings.TrimPrefix(addr, ":"))

	var origins []string
	for _, origin := range strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "*"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return ServerConfig{
		Addr:           addr,
		PublicURL:      strings.TrimRight(publicURL, "/"),
		AllowedOrigins: origins,
		TempDir:        getEnvOrDefault("TEMP_DIR", "temp"),
	}, nil
}

// MySQLConfig 描述持久化存储配置，未提供 Host 时服务退化为内存存储。
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	MaxConns int
}

// Enabled 表示是否配置了数据库。
func (c MySQLConfig) Enabled() bool { return c.Host != "" }

// DSN 构造 gorm mysql 驱动使用的连接串。
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

func loadMySQLConfig() (MySQLConfig, error) {
	port := 3306
	if override, err := parseOptionalIntEnv("DB_PORT"); err != nil {
		return MySQLConfig{}, err
	} else if override != nil {
		port = *override
	}

	maxConns := 10
	if override, err := parseOptionalIntEnv("DB_CONNECTION_LIMIT"); err != nil {
		return MySQLConfig{}, err
	} else if override != nil {
		maxConns = *override
	}

	host, _ := lookup("DB_HOST")

	return MySQLConfig{
		Host:     host,
		Port:     port,
		User:     getEnvOrDefault("DB_USER", "root"),
		Password: getEnvOrDefault("DB_PASSWORD", ""),
		Database: getEnvOrDefault("DB_DATABASE", "rolesystem"),
		MaxConns: maxConns,
	}, nil
}

// RedisConfig 描述历史缓存配置，可选。
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	HistoryTTL time.Duration
}

// Enabled 表示是否配置了 Redis。
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

func loadRedisConfig() (RedisConfig, error) {
	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return RedisConfig{}, err
	} else if override != nil {
		db = *override
	}

	ttlSeconds := 600
	if override, err := parseOptionalIntEnv("REDIS_HISTORY_TTL"); err != nil {
		return RedisConfig{}, err
	} else if override != nil && *override > 0 {
		ttlSeconds = *override
	}

	addr, _ := lookup("REDIS_ADDR")

	return RedisConfig{
		Addr:       addr,
		Password:   getEnvOrDefault("REDIS_PASSWORD", ""),
		DB:         db,
		HistoryTTL: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// AuthConfig 描述认证相关配置。
type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	RememberTTL time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	secret, ok := lookup("JWT_SECRET")
	if !ok {
		return AuthConfig{}, fmt.Errorf("缺少必要配置：JWT_SECRET（可通过环境变量或 config.toml 提供）")
	}

	tokenDays := 7
	if override, err := parseOptionalIntEnv("JWT_EXPIRES_DAYS"); err != nil {
		return AuthConfig{}, err
	} else if override != nil && *override > 0 {
		tokenDays = *override
	}

	return AuthConfig{
		JWTSecret:   secret,
		TokenTTL:    time.Duration(tokenDays) * 24 * time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey        string
	AccessKey     string
	SecretKey     string
	Model         string
	BaseURL       string
	Region        string
	Temperature   *float64
	TopP          *float64
	MaxTokens     *int
	HistoryLimit  int
	FallbackReply string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		defaultTokens := 1000
		maxTokens = &defaultTokens
	}

	historyLimit := 4
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	apiKey, _ := lookup("ARK_API_KEY")
	accessKey, _ := lookup("ARK_ACCESS_KEY")
	secretKey, _ := lookup("ARK_SECRET_KEY")
	model, _ := lookup("ARK_MODEL")

	return AIConfig{
		APIKey:        apiKey,
		AccessKey:     accessKey,
		SecretKey:     secretKey,
		Model:         model,
		BaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
		HistoryLimit:  historyLimit,
		FallbackReply: getEnvOrDefault("AI_FALLBACK_REPLY", "抱歉，我现在无法回答您的问题，请稍后再试。"),
	}, nil
}

// VoiceConfig 描述语音网关（识别与合成）相关配置。
type VoiceConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	ASRRetries   int
	ASRBackoff   time.Duration
	DefaultVoice string
	SpeedRatio   float64
	MaxTextLen   int
}

// Enabled 表示是否配置了语音网关密钥。
func (c VoiceConfig) Enabled() bool { return c.APIKey != "" }

func loadVoiceConfig() (VoiceConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("VOICE_TIMEOUT"); err != nil {
		return VoiceConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	retries := 3
	if override, err := parseOptionalIntEnv("VOICE_ASR_RETRIES"); err != nil {
		return VoiceConfig{}, err
	} else if override != nil && *override >= 0 {
		retries = *override
	}

	speed := 1.0
	if override, err := parseOptionalFloatEnv("VOICE_TTS_SPEED"); err != nil {
		return VoiceConfig{}, err
	} else if override != nil && *override > 0 {
		speed = *override
	}

	apiKey, _ := lookup("QINIU_API_KEY")

	return VoiceConfig{
		BaseURL:      getEnvOrDefault("QINIU_BASE_URL", "https://openai.qiniu.com/v1"),
		APIKey:       apiKey,
		Timeout:      time.Duration(timeoutSeconds) * time.Second,
		ASRRetries:   retries,
		ASRBackoff:   2 * time.Second,
		DefaultVoice: getEnvOrDefault("VOICE_DEFAULT_TYPE", "qiniu_zh_female_wwxkjx"),
		SpeedRatio:   speed,
		MaxTextLen:   500,
	}, nil
}

// StorageConfig 描述对象存储配置，未配置时上传直接走本地回退。
type StorageConfig struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
	KeyPrefix string
	Retries   int
	Backoff   time.Duration
	SweepTTL  time.Duration
	LocalTTL  time.Duration
}

// Enabled 表示是否配置了对象存储。
func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func loadStorageConfig() (StorageConfig, error) {
	retries := 3
	if override, err := parseOptionalIntEnv("OSS_UPLOAD_RETRIES"); err != nil {
		return StorageConfig{}, err
	} else if override != nil && *override > 0 {
		retries = *override
	}

	bucket, _ := lookup("OSS_BUCKET")
	accessKey, _ := lookup("OSS_ACCESS_KEY_ID")
	secretKey, _ := lookup("OSS_ACCESS_KEY_SECRET")
	endpoint, _ := lookup("OSS_ENDPOINT")

	region := getEnvOrDefault("OSS_REGION", "cn-shenzhen")
	publicURL := getEnvOrDefault("OSS_PUBLIC_URL", "")
	if publicURL == "" && bucket != "" && endpoint != "" {
		publicURL = fmt.Sprintf("https://%s.%s", bucket, endpoint)
	}

	return StorageConfig{
		Region:    region,
		Bucket:    bucket,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		PublicURL: strings.TrimRight(publicURL, "/"),
		KeyPrefix: "audio/",
		Retries:   retries,
		Backoff:   time.Second,
		SweepTTL:  24 * time.Hour,
		LocalTTL:  time.Hour,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := lookup(key); ok {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	value, ok := lookup(key)
	if !ok {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	value, ok := lookup(key)
	if !ok {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
