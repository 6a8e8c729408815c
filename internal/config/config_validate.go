// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateAPI,
		c.validateSecurity,
		c.validateAudit,
		c.validateNATS,
		c.validateDirectory,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Database.SeedFixtures && c.IsProduction() {
		return fmt.Errorf("SEED_FIXTURES is not allowed when ENVIRONMENT=production")
	}
	if c.Database.SeedFixtures && (c.Database.FixtureCount < 1 || c.Database.FixtureCount > 99999) {
		return fmt.Errorf("FIXTURE_COUNT must be between 1 and 99999")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.PageSize < 1 {
		return fmt.Errorf("API_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.PageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must be at least API_PAGE_SIZE (%d)", c.API.MaxPageSize, c.API.PageSize)
	}
	if c.API.MaxPageSize > 1000 {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be at most 1000")
	}
	if c.API.ExportMaxRows < 1 {
		return fmt.Errorf("EXPORT_MAX_ROWS must be at least 1")
	}
	return nil
}

// validAuthModes defines the allowed authentication modes
var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

// validRoles mirrors the roles known to the authorization policy.
var validRoles = map[string]bool{
	"viewer":       true,
	"reviewer":     true,
	"investigator": true,
	"admin":        true,
}

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	// Refuse to start unauthenticated in production.
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}

	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled")
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	if c.Security.AuthMode == "jwt" {
		return c.validateJWTAuth()
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateJWTAuth() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if !validRoles[c.Security.AdminRole] {
		return fmt.Errorf("ADMIN_ROLE must be one of: viewer, reviewer, investigator, admin")
	}

	// Admin credentials are optional: without them only externally issued
	// tokens are accepted.
	if c.Security.AdminUsername == "" && c.Security.AdminPassword == "" {
		return nil
	}
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when ADMIN_PASSWORD is set")
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value - set a secure password")
	}
	if err := DefaultPasswordPolicy().Validate(c.Security.AdminPassword, c.Security.AdminUsername); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

func (c *Config) validateAudit() error {
	switch c.Audit.Store {
	case "memory":
		return nil
	case "badger":
		if c.Audit.Path == "" {
			return fmt.Errorf("AUDIT_PATH is required when AUDIT_STORE is badger")
		}
		return nil
	default:
		return fmt.Errorf("AUDIT_STORE must be one of: badger, memory")
	}
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
		return fmt.Errorf("NATS_URL is required when NATS is enabled without an embedded server")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required for the embedded server")
	}
	if c.NATS.Topic == "" {
		return fmt.Errorf("NATS_TOPIC is required when NATS is enabled")
	}
	if c.NATS.Stream == "" || strings.ContainsAny(c.NATS.Stream, ".*> ") {
		return fmt.Errorf("NATS_STREAM must be a plain stream name")
	}
	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS_COUNT must be at least 1")
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be at least 1")
	}
	return nil
}

// validateDirectory checks referential integrity of a configured catalog.
func (c *Config) validateDirectory() error {
	d := &c.Directory
	for _, z := range d.Zones {
		if _, ok := d.Site(z.SiteID); !ok {
			return fmt.Errorf("directory: zone %s references unknown site %s", z.ID, z.SiteID)
		}
	}
	for _, cam := range d.Cameras {
		if _, ok := d.Zone(cam.ZoneID); !ok {
			return fmt.Errorf("directory: camera %s references unknown zone %s", cam.ID, cam.ZoneID)
		}
	}
	return nil
}

// HasDirectory reports whether a site/zone/camera catalog was configured.
func (c *Config) HasDirectory() bool {
	return len(c.Directory.Sites) > 0
}

// DirectoryOrDefault returns the configured catalog or fallback.
func (c *Config) DirectoryOrDefault(fallback *models.Directory) *models.Directory {
	if c.HasDirectory() {
		d := c.Directory
		return &d
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns are values that indicate the operator forgot to set a
// real secret.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
