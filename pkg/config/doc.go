// Package config provides configuration for mockapp outside the core
// controller: routes files and tunable settings.
//
// # Routes files
//
// A routes file lists canned responses, in YAML or JSON:
//
//	routes:
//	  - path: /api/v1/status
//	    response:
//	      data:
//	        status: all_good
//
// Files are validated against an embedded JSON Schema before use. JSON files
// keep each response byte for byte; YAML responses are re-encoded as JSON.
// LoadRoutes accepts plain paths and glob patterns, including "**".
//
// # Settings
//
// Settings carries the readiness-probe budget and logging options. The CLI and
// the testing helpers start from DefaultSettings and apply MOCKAPP_*
// environment overrides with LoadEnv.
package config
