package config

import "time"

type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	AccessToken        string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig builds a Config from args (usually os.Args[1:]) and returns
// the positional arguments left after the flags.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, nil, err
	}

	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
