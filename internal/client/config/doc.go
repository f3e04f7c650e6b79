// Package config loads runtime configuration for the auth CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: GOPHAUTH_SERVER_ADDR, GOPHAUTH_TIMEOUT, GOPHAUTH_ACCESS_TOKEN.
//  4. Command-line flags.
//
// Flags must come before the command name; whatever follows is returned to
// the caller untouched:
//
//	gophauth-client -a 127.0.0.1:50051 login johndoe
//
// JSON example:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config
