// Package config loads the client's TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/yum/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # TOML Format
//
//	api_base = "https://api.example.com"
//	token_env = "YUM_TOKEN"
//	token_file = "~/.config/yum/token"
//	job_poll_seconds = 2
//	display_poll_seconds = 5
//	feed_page_size = 10
//	prefetch_target = 10
//	prefetch_threshold = 3
//	max_empty_pages = 3
//	search_api_key = "..."
//	search_page_size = 50
//	cache_dir = "~/.local/share/yum"
//	redis_url = "redis://localhost:6379/0"
//	log_level = "info"
//	log_format = "console"
//
// Every field is optional. Tilde expansion applies to token_file and
// cache_dir. Numeric fields keep an explicit zero so that Validate can
// reject it; only an absent key takes the default.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, TOML parse errors and Validate failures. A missing file is
// not an error.
package config
