package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	GRPC          GRPCConfig          `yaml:"grpc"`
	LLM           LLMConfig           `yaml:"llm"`
	Devices       DevicesConfig       `yaml:"devices"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	Pushover      PushoverConfig      `yaml:"pushover"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Voice         VoiceConfig         `yaml:"voice"`
	Session       SessionConfig       `yaml:"session"`
	Log           LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" env:"SERVER_ADDR" env-default:":8080"`
	AuthToken string `yaml:"auth_token" env:"SERVER_AUTH_TOKEN"`
	// RateLimit is requests per minute per client on mutating endpoints.
	RateLimit int `yaml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"30"`
}

type GRPCConfig struct {
	Enabled bool   `yaml:"enabled" env:"GRPC_ENABLED"`
	Addr    string `yaml:"addr" env:"GRPC_ADDR" env-default:":50051"`
}

// LLMConfig selects the model provider used for intent resolution and
// translation.
type LLMConfig struct {
	Provider string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	APIKey   string        `yaml:"api_key" env:"LLM_API_KEY"`
	Model    string        `yaml:"model" env:"LLM_MODEL"`
	BaseURL  string        `yaml:"base_url" env:"LLM_BASE_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"10s"`
	// TranslationTimeout bounds each translation call before the
	// untranslated text is used instead.
	TranslationTimeout time.Duration `yaml:"translation_timeout" env:"LLM_TRANSLATION_TIMEOUT" env-default:"8s"`
}

type DevicesConfig struct {
	Lamps           []string `yaml:"lamps" env:"DEVICES_LAMPS" env-default:"Kitchen,Bathroom,Room 1,Room 2"`
	AirConditioners []string `yaml:"air_conditioners" env:"DEVICES_AIR_CONDITIONERS" env-default:"Room 1,Kitchen"`
	Televisions     []string `yaml:"televisions" env:"DEVICES_TELEVISIONS" env-default:"Living Room"`
}

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled" env:"MQTT_ENABLED" env-default:"false"`
	Host     string `yaml:"host" env:"MQTT_BROKER_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"MQTT_BROKER_PORT" env-default:"1883"`
	Username string `yaml:"username" env:"MQTT_BROKER_USERNAME"`
	Password string `yaml:"password" env:"MQTT_BROKER_PASSWORD"`
	ClientID string `yaml:"client_id" env:"MQTT_CLIENT_ID" env-default:"smart-home-assistant"`
	Topic    string `yaml:"topic" env:"MQTT_TOPIC" env-default:"smarthome"`
	Retain   bool   `yaml:"retain" env:"MQTT_RETAIN"`
}

type PushoverConfig struct {
	Enabled bool   `yaml:"enabled" env:"PUSHOVER_ENABLED" env-default:"false"`
	Token   string `yaml:"token" env:"PUSHOVER_TOKEN"`
	UserKey string `yaml:"user_key" env:"PUSHOVER_USER_KEY"`
	Title   string `yaml:"title" env:"PUSHOVER_TITLE" env-default:"Smart Home"`
}

type HomeAssistantConfig struct {
	Enabled bool   `yaml:"enabled" env:"HOMEASSISTANT_ENABLED" env-default:"false"`
	URL     string `yaml:"url" env:"HOMEASSISTANT_URL"`
	Token   string `yaml:"token" env:"HOMEASSISTANT_TOKEN"`
}

// VoiceConfig points at the directory shared with the speech pipeline.
type VoiceConfig struct {
	Enabled      bool          `yaml:"enabled" env:"VOICE_ENABLED" env-default:"false"`
	InboxDir     string        `yaml:"inbox_dir" env:"VOICE_INBOX_DIR" env-default:"./voice"`
	PollInterval time.Duration `yaml:"poll_interval" env:"VOICE_POLL_INTERVAL" env-default:"500ms"`
}

type SessionConfig struct {
	MaxHistory int `yaml:"max_history" env:"SESSION_MAX_HISTORY" env-default:"10"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Load reads the YAML file at path, expanding ${VAR} references, then
// overlays environment variables and fills defaults. An empty path loads
// from the environment only.
func Load(path string) (*Config, error) {
	// cleanenv treats false as unset, so defaults of true are preset here
	// where an explicit false in the file can still override them.
	cfg := Config{
		GRPC: GRPCConfig{Enabled: true},
		MQTT: MQTTConfig{Retain: true},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the assistant cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini":
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q (want openai, anthropic or gemini)", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}
	if len(c.Devices.Lamps)+len(c.Devices.AirConditioners)+len(c.Devices.Televisions) == 0 {
		errs = append(errs, errors.New("devices: at least one device location is required"))
	}
	if c.Session.MaxHistory < 0 {
		errs = append(errs, errors.New("session.max_history must not be negative"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, errors.New("pushover: token and user_key are required when enabled"))
	}
	if c.HomeAssistant.Enabled && (c.HomeAssistant.URL == "" || c.HomeAssistant.Token == "") {
		errs = append(errs, errors.New("homeassistant: url and token are required when enabled"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
