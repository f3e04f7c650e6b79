package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Pointer fields distinguish an
// absent key from a zero value, so a file may override any subset.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	SigningAlgorithm            *string         `json:"signing_algorithm"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	HashAlgorithm               *string         `json:"hash_algorithm"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	Argon2Time                  *uint32         `json:"argon2_time"`
	Argon2MemoryKiB             *uint32         `json:"argon2_memory_kib"`
	Argon2Threads               *uint8          `json:"argon2_threads"`
	OTLPEndpoint                *string         `json:"otlp_endpoint"`
	LogFormat                   *string         `json:"log_format"`
	LogLevel                    *string         `json:"log_level"`
	SeedDemoUser                *bool           `json:"seed_demo_user"`
}

// parseJson overlays the JSON file named by -c or -config in args. Without
// either flag nothing is loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigPath(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	set(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	set(&config.SigningAlgorithm, c.SigningAlgorithm)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	set(&config.HashAlgorithm, c.HashAlgorithm)
	set(&config.BcryptCost, c.BcryptCost)
	set(&config.Argon2Time, c.Argon2Time)
	set(&config.Argon2MemoryKiB, c.Argon2MemoryKiB)
	set(&config.Argon2Threads, c.Argon2Threads)
	set(&config.OTLPEndpoint, c.OTLPEndpoint)
	set(&config.LogFormat, c.LogFormat)
	set(&config.LogLevel, c.LogLevel)
	set(&config.SeedDemoUser, c.SeedDemoUser)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
