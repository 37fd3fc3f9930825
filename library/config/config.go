package config

import (
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/bookstore/pkg/auth"
	"github.com/Astemirdum/bookstore/pkg/kafka"
	"github.com/Astemirdum/bookstore/pkg/logger"
	"github.com/Astemirdum/bookstore/pkg/postgres"
	"github.com/Astemirdum/bookstore/pkg/supervisor"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type Sweeper struct {
	Interval     time.Duration `envconfig:"SWEEPER_INTERVAL" default:"1h"`
	InitialDelay time.Duration `envconfig:"SWEEPER_INITIAL_DELAY" default:"5s"`
	Window       time.Duration `envconfig:"SWEEPER_WINDOW" default:"24h"`
}

type Storage struct {
	ImagesDir string `envconfig:"IMAGES_DIR" default:"./images"`
	// MaxUploadBytes caps a single cover image.
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`
}

type Config struct {
	Server     HTTPServer        `yaml:"server"`
	Database   postgres.DB       `yaml:"db"`
	Log        logger.Log        `yaml:"log"`
	JWT        auth.Config       `yaml:"jwt"`
	Kafka      kafka.Config      `yaml:"kafka"`
	Sweeper    Sweeper           `yaml:"sweeper"`
	Storage    Storage           `yaml:"storage"`
	Supervisor supervisor.Config `yaml:"supervisor"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		for _, op := range ops {
			op(&config)
		}
		cfg = &config
	})

	return cfg
}
