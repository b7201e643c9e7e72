package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	AI        AIConfig
	Inference InferenceConfig `mapstructure:"inference"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// InferenceConfig 关键点/信号推理边车服务（MediaPipe/Praat 模型封装）
type InferenceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	TimeoutSeconds time.Duration `mapstructure:"timeout_seconds"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AnalysisConfig 多模态分析管线的可调参数。阈值来源于模型标定，改动需谨慎
type AnalysisConfig struct {
	RunTimeout     time.Duration `mapstructure:"run_timeout_seconds"`     // 整次分析的超时
	ExtractTimeout time.Duration `mapstructure:"extract_timeout_seconds"` // 单模态提取的超时
	SampleFPS      float64       `mapstructure:"sample_fps"`              // 视频抽帧频率
	MinFrames      int           `mapstructure:"min_frames"`              // 低于此帧数判定信号不足
	MinIntervalSec float64       `mapstructure:"min_interval_seconds"`    // 问题区间最短时长
	MergeGapSec    float64       `mapstructure:"merge_gap_seconds"`       // 相邻区间合并容差
	CacheTTL       time.Duration `mapstructure:"cache_ttl_seconds"`       // 就绪结果的Redis缓存时长

	RatingGood    float64 `mapstructure:"rating_good"`    // >= 为 good
	RatingAverage float64 `mapstructure:"rating_average"` // >= 为 average，否则 poor

	Pose       PoseConfig       `mapstructure:"pose"`
	Vocal      VocalConfig      `mapstructure:"vocal"`
	Expression ExpressionConfig `mapstructure:"expression"`
}

type PoseConfig struct {
	ShoulderThreshold float64 `mapstructure:"shoulder_threshold"`
	HeadThreshold     float64 `mapstructure:"head_threshold"`
	Slope             float64 `mapstructure:"slope"` // 超阈值后的线性扣分斜率
	VisibilityMin     float64 `mapstructure:"visibility_min"`

	ShoulderWeight float64 `mapstructure:"shoulder_weight"`
	HeadWeight     float64 `mapstructure:"head_weight"`
	HandWeight     float64 `mapstructure:"hand_weight"`
}

type VocalConfig struct {
	PitchVarLo  float64 `mapstructure:"pitch_var_lo"` // 音高变化目标区间（半音）
	PitchVarHi  float64 `mapstructure:"pitch_var_hi"`
	SpeechLo    float64 `mapstructure:"speech_lo"` // 语速目标区间（音节/秒）
	SpeechHi    float64 `mapstructure:"speech_hi"`
	SpeechFast  float64 `mapstructure:"speech_fast"` // 过快/过慢判定
	SpeechSlow  float64 `mapstructure:"speech_slow"`
	PauseLo     float64 `mapstructure:"pause_lo"` // 停顿占比目标区间
	PauseHi     float64 `mapstructure:"pause_hi"`
	PauseHigh   float64 `mapstructure:"pause_high"` // 停顿占比高于此值直接判冷场
	TremorLimit float64 `mapstructure:"tremor_limit"`

	ToneWeight  float64 `mapstructure:"tone_weight"`
	PaceWeight  float64 `mapstructure:"pace_weight"`
	PauseWeight float64 `mapstructure:"pause_weight"`
}

type ExpressionConfig struct {
	GazeOffAbs  float64 `mapstructure:"gaze_off_abs"`  // 视线偏移判定
	BlinkRatio  float64 `mapstructure:"blink_ratio"`   // EAR低于基线比例算闭眼
	BlinkLimit  float64 `mapstructure:"blink_limit"`   // 每分钟眨眼上限
	MouthDelta  float64 `mapstructure:"mouth_delta"`   // 嘴角位移判定
	GazeWeight  float64 `mapstructure:"gaze_weight"`
	BlinkWeight float64 `mapstructure:"blink_weight"`
	MouthWeight float64 `mapstructure:"mouth_weight"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("INTERVIEW_COACH")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")

	// Inference sidecar
	viper.BindEnv("inference.base_url", "INFERENCE_BASE_URL")

	// Storage / OSS
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	viper.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	viper.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	viper.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setAnalysisDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Analysis.RunTimeout = cfg.Analysis.RunTimeout * time.Second
	cfg.Analysis.ExtractTimeout = cfg.Analysis.ExtractTimeout * time.Second
	cfg.Analysis.CacheTTL = cfg.Analysis.CacheTTL * time.Second
	cfg.Inference.TimeoutSeconds = cfg.Inference.TimeoutSeconds * time.Second

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// 阈值默认值来自模型侧标定（MediaPipe姿态/Praat韵律），配置文件可覆盖
func setAnalysisDefaults() {
	viper.SetDefault("analysis.run_timeout_seconds", 300)
	viper.SetDefault("analysis.extract_timeout_seconds", 180)
	viper.SetDefault("analysis.sample_fps", 10)
	viper.SetDefault("analysis.min_frames", 10)
	viper.SetDefault("analysis.min_interval_seconds", 1.0)
	viper.SetDefault("analysis.merge_gap_seconds", 1.0)
	viper.SetDefault("analysis.cache_ttl_seconds", 600)
	viper.SetDefault("analysis.rating_good", 90)
	viper.SetDefault("analysis.rating_average", 70)

	viper.SetDefault("analysis.pose.shoulder_threshold", 0.04399)
	viper.SetDefault("analysis.pose.head_threshold", 0.01017)
	viper.SetDefault("analysis.pose.slope", 5.0)
	viper.SetDefault("analysis.pose.visibility_min", 0.5)
	viper.SetDefault("analysis.pose.shoulder_weight", 0.34)
	viper.SetDefault("analysis.pose.head_weight", 0.33)
	viper.SetDefault("analysis.pose.hand_weight", 0.33)

	viper.SetDefault("analysis.vocal.pitch_var_lo", 1.2)
	viper.SetDefault("analysis.vocal.pitch_var_hi", 4.0)
	viper.SetDefault("analysis.vocal.speech_lo", 3.5)
	viper.SetDefault("analysis.vocal.speech_hi", 5.0)
	viper.SetDefault("analysis.vocal.speech_fast", 6.1)
	viper.SetDefault("analysis.vocal.speech_slow", 2.6)
	viper.SetDefault("analysis.vocal.pause_lo", 0.15)
	viper.SetDefault("analysis.vocal.pause_hi", 0.35)
	viper.SetDefault("analysis.vocal.pause_high", 0.5)
	viper.SetDefault("analysis.vocal.tremor_limit", 0.6)
	viper.SetDefault("analysis.vocal.tone_weight", 0.4)
	viper.SetDefault("analysis.vocal.pace_weight", 0.3)
	viper.SetDefault("analysis.vocal.pause_weight", 0.3)

	viper.SetDefault("analysis.expression.gaze_off_abs", 0.12)
	viper.SetDefault("analysis.expression.blink_ratio", 0.75)
	viper.SetDefault("analysis.expression.blink_limit", 30)
	viper.SetDefault("analysis.expression.mouth_delta", 0.02)
	viper.SetDefault("analysis.expression.gaze_weight", 0.7)
	viper.SetDefault("analysis.expression.blink_weight", 0.2)
	viper.SetDefault("analysis.expression.mouth_weight", 0.1)

	viper.SetDefault("inference.timeout_seconds", 120)
}
