// Package config handles configuration for the server component: defaults,
// a .env file and the environment, an optional JSON overlay, and finally
// command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the auth server.
//
// An empty DatabaseDSN selects the in-memory directory. SecretKey has no
// default; the server refuses to start without one.
type Config struct {
	EndpointAddrGRPC            string
	EndpointAddrHTTP            string
	DatabaseDSN                 string
	SecretKey                   string
	SigningAlgorithm            string
	AccessTokenValidityDuration time.Duration
	HashAlgorithm               string
	BcryptCost                  int
	Argon2Time                  uint32
	Argon2MemoryKiB             uint32
	Argon2Threads               uint8
	OTLPEndpoint                string
	LogFormat                   string
	LogLevel                    string
	SeedDemoUser                bool
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	argon := hashing.DefaultArgon2Params()

	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8000"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.SigningAlgorithm = "HS256"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.HashAlgorithm = string(hashing.AlgorithmBcrypt)
	c.BcryptCost = hashing.DefaultBcryptCost
	c.Argon2Time = argon.Time
	c.Argon2MemoryKiB = argon.Memory
	c.Argon2Threads = argon.Threads
	c.OTLPEndpoint = ""
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.SeedDemoUser = false
}

// LoadConfig builds a Config by applying defaults, then the environment,
// then an optional JSON file and finally command-line flags. Malformed
// sources panic; semantic checks are left to Validate.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}

// HashOptions converts the hashing settings for hashing.New.
func (c *Config) HashOptions() hashing.Options {
	argon := hashing.DefaultArgon2Params()
	argon.Time = c.Argon2Time
	argon.Memory = c.Argon2MemoryKiB
	argon.Threads = c.Argon2Threads

	return hashing.Options{
		Algorithm:  hashing.Algorithm(strings.ToLower(c.HashAlgorithm)),
		BcryptCost: c.BcryptCost,
		Argon2:     argon,
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret key is not set", common.ErrorValidation)
	}
	switch strings.ToUpper(c.SigningAlgorithm) {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("%w: unsupported signing algorithm %q", common.ErrorValidation, c.SigningAlgorithm)
	}
	if c.AccessTokenValidityDuration < time.Second {
		return fmt.Errorf("%w: access token validity %s is below one second", common.ErrorValidation, c.AccessTokenValidityDuration)
	}
	switch hashing.Algorithm(strings.ToLower(c.HashAlgorithm)) {
	case hashing.AlgorithmBcrypt, hashing.AlgorithmArgon2id:
	default:
		return fmt.Errorf("%w: unsupported hash algorithm %q", common.ErrorValidation, c.HashAlgorithm)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]", common.ErrorValidation, c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unsupported log format %q", common.ErrorValidation, c.LogFormat)
	}
	return nil
}
