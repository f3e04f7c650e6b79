package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
//	-a string       gRPC bind address (e.g. ":50051")
//	-w string       HTTP bind address (e.g. ":8000")
//	-d string       database DSN (postgres://..., sqlite://..., empty for memory)
//	-s string       JWT HMAC secret key
//	-t int          access token validity, minutes
//	-alg string     JWT signing algorithm (HS256, HS384, HS512)
//	-hash string    password hash algorithm (bcrypt, argon2id)
//	-cost int       bcrypt cost
//	-otlp string    OTLP/gRPC trace collector endpoint
//	-log-format     json or text
//	-log-level      debug, info, warn or error
//	-demo           seed the demo user
//
// Args are filtered with flagx.FilterArgs first so flags owned by the JSON
// loader do not trip the parser.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-w", "-d", "-s", "-t", "-alg", "-hash", "-cost", "-otlp", "-log-format", "-log-level", "-demo",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.SigningAlgorithm, "alg", config.SigningAlgorithm, "JWT signing algorithm")
	fs.StringVar(&config.HashAlgorithm, "hash", config.HashAlgorithm, "password hash algorithm")
	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.OTLPEndpoint, "otlp", config.OTLPEndpoint, "OTLP trace collector endpoint")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (json, text)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.BoolVar(&config.SeedDemoUser, "demo", config.SeedDemoUser, "seed the demo user")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
}
