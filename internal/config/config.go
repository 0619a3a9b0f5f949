package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type STTConfig struct {
	Provider   string `mapstructure:"provider"` // whisper | gemini
	Model      string `mapstructure:"model"`
	Language   string `mapstructure:"language"`
	NoiseFloor int    `mapstructure:"noise_floor"`
	MinFirst   int    `mapstructure:"min_first"`
	MinDelta   int    `mapstructure:"min_delta"`
	MaxBuffer  int    `mapstructure:"max_buffer"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"` // signaling heartbeat
	IdleProbe  time.Duration `mapstructure:"idle_probe"`  // transcript liveness probe
	Secret     string        `mapstructure:"secret"`

	STT STTConfig `mapstructure:"stt"`

	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ReportModel  string `mapstructure:"report_model"`

	SupabaseURL        string `mapstructure:"supabase_url"`
	SupabaseServiceKey string `mapstructure:"supabase_service_key"`

	ICEServers []string `mapstructure:"ice_servers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8000)
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "25s")
	v.SetDefault("idle_probe", "30s")
	v.SetDefault("stt.provider", "whisper")
	v.SetDefault("stt.language", "tr")
	v.SetDefault("stt.noise_floor", 100)
	v.SetDefault("stt.min_first", 40000)
	v.SetDefault("stt.min_delta", 20000)
	v.SetDefault("stt.max_buffer", 8<<20)
	v.SetDefault("report_model", "gemini-2.5-flash")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})

	// Secrets come from the environment on the hosting platform.
	v.AutomaticEnv()
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("supabase_url", "SUPABASE_URL")
	_ = v.BindEnv("supabase_service_key", "SUPABASE_SERVICE_KEY")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
