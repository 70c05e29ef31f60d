package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Gemini struct {
		Model          string `mapstructure:"model"`
		EmbeddingModel string `mapstructure:"embeddingModel"`
	} `mapstructure:"gemini"`
	Retriever struct {
		TopK           int     `mapstructure:"topK"`
		ScoreThreshold float64 `mapstructure:"scoreThreshold"`
	} `mapstructure:"retriever"`
	LiveData struct {
		GeocodeURL      string        `mapstructure:"geocodeURL"`
		ForecastURL     string        `mapstructure:"forecastURL"`
		OverpassURL     string        `mapstructure:"overpassURL"`
		FlightsURL      string        `mapstructure:"flightsURL"`
		FixturesURL     string        `mapstructure:"fixturesURL"`
		GeocodeTimeout  time.Duration `mapstructure:"geocodeTimeout"`
		ForecastTimeout time.Duration `mapstructure:"forecastTimeout"`
		OverpassTimeout time.Duration `mapstructure:"overpassTimeout"`
		FlightsTimeout  time.Duration `mapstructure:"flightsTimeout"`
		FixturesTimeout time.Duration `mapstructure:"fixturesTimeout"`
	} `mapstructure:"livedata"`
	Cache struct {
		FlightsTTL time.Duration `mapstructure:"flightsTTL"`
		EventsTTL  time.Duration `mapstructure:"eventsTTL"`
	} `mapstructure:"cache"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config first, fall back to the embedded copy
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}
