// Package config handles configuration loading for the chat portal client.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and working defaults, so the
// client runs with no configuration file at all.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from PORTAL_CONFIG environment variable
//  2. ~/.config/chat-portal/portal.yaml (XDG_CONFIG_HOME respected)
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	server:
//	  base_url: "${PORTAL_API_URL}"
//
// # Example
//
//	server:
//	  base_url: "http://localhost:8000/api"
//	  timeout: "30s"
//
//	session:
//	  max_message_length: 4000
//	  title_window_min: 4
//	  title_window_max: 6
//	  title_refresh_delay: "2s"
//
//	querylog:
//	  enabled: true
//	  path: "~/.config/chat-portal/queries.db"
//
//	logging:
//	  level: "info"
//	  format: "text"
package config
