package config

import (
	"flag"
	"io"
	"time"
)

// parseFlags owns every client flag, so no filtering is needed. Parsing
// stops at the first non-flag argument.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("gophauth-client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath string
	fs.StringVar(&configPath, "c", "", "path to JSON config")
	fs.StringVar(&configPath, "config", "", "path to JSON config")

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "token", cfg.AccessToken, "access token for me and validate")
	timeout := fs.Int("timeout", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *timeout > 0 {
		cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	}

	return fs.Args(), nil
}
