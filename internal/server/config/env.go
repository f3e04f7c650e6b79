package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. GOPHAUTH_HTTP_ADDR.
// A variable is also read without the prefix when the prefixed one is unset,
// so plain SECRET_KEY and DATABASE_URL work too.
const EnvPrefix = "GOPHAUTH"

type envConfig struct {
	EndpointAddrGRPC            string        `envconfig:"GRPC_ADDR"`
	EndpointAddrHTTP            string        `envconfig:"HTTP_ADDR"`
	DatabaseDSN                 string        `envconfig:"DATABASE_URL"`
	SecretKey                   string        `envconfig:"SECRET_KEY"`
	SigningAlgorithm            string        `envconfig:"ALGORITHM"`
	AccessTokenValidityDuration time.Duration `envconfig:"ACCESS_TOKEN_TTL"`
	HashAlgorithm               string        `envconfig:"HASH_ALGORITHM"`
	BcryptCost                  int           `envconfig:"BCRYPT_COST"`
	Argon2Time                  uint32        `envconfig:"ARGON2_TIME"`
	Argon2MemoryKiB             uint32        `envconfig:"ARGON2_MEMORY_KIB"`
	Argon2Threads               uint8         `envconfig:"ARGON2_THREADS"`
	OTLPEndpoint                string        `envconfig:"OTLP_ENDPOINT"`
	LogFormat                   string        `envconfig:"LOG_FORMAT"`
	LogLevel                    string        `envconfig:"LOG_LEVEL"`
	SeedDemoUser                bool          `envconfig:"SEED_DEMO_USER"`
}

// parseEnv loads .env when present and overlays variables that are set.
// Unset variables leave the current value alone. It panics on values that
// do not parse.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	e := envConfig(*config)
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		panic(err)
	}
	*config = Config(e)
}
