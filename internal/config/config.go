package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`
	Places     PlacesConfig     `yaml:"places" mapstructure:"places"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig holds the paths of the datasets loaded at startup.
type DataConfig struct {
	MasterXLSX   string `yaml:"master_xlsx" mapstructure:"master_xlsx"`
	ShapefileDir string `yaml:"shapefile_dir" mapstructure:"shapefile_dir"`
	GeneralesCSV string `yaml:"generales_csv" mapstructure:"generales_csv"`
	AurreraCSV   string `yaml:"aurrera_csv" mapstructure:"aurrera_csv"`
	VectorsJSON  string `yaml:"vectors_json" mapstructure:"vectors_json"`
}

// EvaluationConfig holds the per-site evaluation settings.
type EvaluationConfig struct {
	CompetitionRadiusM int `yaml:"competition_radius_m" mapstructure:"competition_radius_m"`
	PlacesRadiusM      int `yaml:"places_radius_m" mapstructure:"places_radius_m"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXPANSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("data.master_xlsx", "data/master_tiendas.xlsx")
	v.SetDefault("data.shapefile_dir", "data/inegi")
	v.SetDefault("data.generales_csv", "data/competencia_generales.csv")
	v.SetDefault("data.aurrera_csv", "data/bodega_aurrera.csv")
	v.SetDefault("data.vectors_json", "data/region_vectors.json")
	v.SetDefault("evaluation.competition_radius_m", 500)
	v.SetDefault("evaluation.places_radius_m", 500)
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api/place/nearbysearch/json")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkRadius := func(name string, v int) {
		if v < 1 || v > 5000 {
			problems = append(problems, name+" must be between 1 and 5000")
		}
	}
	checkRadius("evaluation.competition_radius_m", c.Evaluation.CompetitionRadiusM)
	checkRadius("evaluation.places_radius_m", c.Evaluation.PlacesRadiusM)

	switch mode {
	case "evaluate":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
