package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "GOPHAUTH"

type envConfig struct {
	ServerEndpointAddr string        `envconfig:"SERVER_ADDR"`
	RequestTimeout     time.Duration `envconfig:"TIMEOUT"`
	AccessToken        string        `envconfig:"ACCESS_TOKEN"`
}

func parseEnv(cfg *Config) error {
	e := envConfig(*cfg)
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return err
	}
	*cfg = Config(e)
	return nil
}
