// Package config loads runtime configuration for the trade console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables prefixed with CONSOLE_ (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   gateway base URL
//	-t int      gateway request timeout (seconds)
//	-d string   path to the SQLite credential database
//	-l string   listen address of the local web surface ("" disables it)
//	-k string   passphrase sealing the stored token ("" stores it as is)
//	-v string   log level (debug, info, warn, error)
//	-admin-only reject non-admin accounts in the credential dialog
//
// # JSON schema
//
// Timeouts use timex.Duration, so they may be strings like "15s" or integer
// nanoseconds:
//
//	{
//	  "backend_url": "http://localhost:5000/api",
//	  "request_timeout": "15s",
//	  "database_path": "console.db",
//	  "http_addr": "127.0.0.1:8080",
//	  "admin_only_login": true,
//	  "log_level": "info"
//	}
//
// # Environment
//
//	CONSOLE_BACKEND_URL, CONSOLE_REQUEST_TIMEOUT, CONSOLE_DB_PATH,
//	CONSOLE_HTTP_ADDR, CONSOLE_STORE_KEY, CONSOLE_ADMIN_ONLY, CONSOLE_LOG_LEVEL
package config
