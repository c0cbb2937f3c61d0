// Package config loads the CadSocial client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/cadsocial/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. Secrets in the environment override the file
//
// # Default Values
//
//   - Config file: ~/.config/cadsocial/config.toml
//   - Session file: ~/.config/cadsocial/session.toml
//   - Data directory: ~/.local/share/cadsocial (queue storage, logs)
//   - Storage backend: file
//   - Probe interval: 5 seconds
//   - Log file: <data_dir>/logs/cadsocial.log
//   - Webhook bind: 127.0.0.1:8787
//
// # TOML Format
//
//	api_url = "https://abc.supabase.co"
//	api_key = "public-anon-key"
//	storage = "file"          # file, sqlite, redis or memory
//	redis_url = "redis://localhost:6379/0"
//	database_url = ""         # direct postgres instead of api_url
//	probe_interval_seconds = 5
//	log_level = "info"
//	log_format = "console"    # console or json
//	jwt_secret = ""           # verify session tokens when set
//	email_api_key = ""
//	email_from = "CadSocial <nao-responda@cadsocial.com.br>"
//	portal_url = "https://cadsocial.com.br/dashboard"
//	webhook_bind = "127.0.0.1:8787"
//	webhook_secret = ""
//
// # Environment
//
//   - CADSOCIAL_API_KEY overrides api_key
//   - CADSOCIAL_EMAIL_API_KEY overrides email_api_key
//   - CADSOCIAL_DATABASE_URL overrides database_url
//   - CADSOCIAL_WEBHOOK_SECRET overrides webhook_secret
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than a
// missing file, TOML parse errors and values that fail Validate. A missing
// config file is not an error; commands that need the remote store call
// RequireRemote.
package config
