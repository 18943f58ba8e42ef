// Package config provides configuration management for the dagrunner workflow engine.
//
// # Overview
//
// The config package centralizes all configuration for the workflow engine
// in a single struct with validation and preset constructors.
//
// # Features
//
//   - Centralized configuration: Single source of truth
//   - Type-safe: Strongly typed configuration options
//   - Validation: Automatic validation of configuration values
//   - Defaults: Sensible default values per environment
//
// # Configuration Structure
//
// The configuration is organized into logical sections:
//
//   - Execution limits: Timeouts and iteration limits
//   - HTTP settings: HTTP request configuration
//   - Security: Network access control and restrictions
//   - Cache settings: Cache TTL and size limits
//   - Resource limits: Memory and size constraints
//   - Retry settings: Retry and backoff configuration
//
// # Basic Usage
//
//import "github.com/flowcraft/dagrunner/pkg/config"
//
//// Create default configuration
//cfg := config.Default()
//
//// Or pick a preset and adjust a field directly
//cfg := config.Production()
//cfg.MaxWorkers = 8
//if err := cfg.Validate(); err != nil {
//    // handle invalid configuration
//}
//
// # Default Configuration
//
// The default configuration provides secure, production-ready defaults:
//
//MaxExecutionTime: 5 minutes
//MaxNodeExecutionTime: 30 seconds
//MaxIterations: 10000
//HTTPTimeout: 30 seconds
//MaxHTTPRedirects: 10
//MaxResponseSize: 10MB
//AllowHTTP: false (HTTPS only)
//AllowPrivateIPs: false (blocked)
//AllowLocalhost: false (blocked)
//AllowCloudMetadata: false (blocked)
//DefaultCacheTTL: 1 hour
//MaxCacheSize: 1000
//MaxNodes: 1000
//MaxEdges: 5000
//DefaultMaxAttempts: 3
//DefaultBackoff: 1 second
//
// # Thread Safety
//
// Configuration objects are safe for concurrent read access.
package config
