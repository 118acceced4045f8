package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags holds the service toggles. Each flag is read from
// FEATURE_<NAME> at startup and may be flipped at runtime by tests.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// FeatureRedisCache caches reference panels (scholarship lists, dashboard
	// totals) in Redis. Application figures are never cached.
	FeatureRedisCache = "redis_cache"

	// FeatureRateLimit limits notification polls per admin.
	FeatureRateLimit = "rate_limit"

	// FeatureAutoMigrate applies pending migrations at server start.
	FeatureAutoMigrate = "auto_migrate"

	// FeatureDocumentPaths accepts document paths on submission.
	FeatureDocumentPaths = "document_paths"
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureRedisCache] = &Feature{
		Name:        FeatureRedisCache,
		Description: "Cache reference panels in Redis",
		Enabled:     false,
	}
	ff.features[FeatureRateLimit] = &Feature{
		Name:        FeatureRateLimit,
		Description: "Limit notification polls per admin",
		Enabled:     true,
	}
	ff.features[FeatureAutoMigrate] = &Feature{
		Name:        FeatureAutoMigrate,
		Description: "Apply database migrations on startup",
		Enabled:     true,
	}
	ff.features[FeatureDocumentPaths] = &Feature{
		Name:        FeatureDocumentPaths,
		Description: "Accept stored document paths on submission",
		Enabled:     true,
	}
}

// loadFromEnvironment reads FEATURE_<NAME>=true|false. Unparseable values
// keep the default.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "redis_cache" -> "FEATURE_REDIS_CACHE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether a feature is on. Unknown features are off.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// Set flips a known feature.
func (ff *FeatureFlags) Set(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return &FeatureFlagError{Feature: featureName, Message: "unknown feature"}
	}
	feature.Enabled = enabled
	return nil
}

// Enabled returns the names of enabled features, sorted. Used for the startup log.
func (ff *FeatureFlags) Enabled() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	names := make([]string, 0, len(ff.features))
	for name, f := range ff.features {
		if f.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FeatureFlagError represents a feature flag operation error.
type FeatureFlagError struct {
	Feature string
	Message string
}

func (e *FeatureFlagError) Error() string {
	return "feature flag " + e.Feature + ": " + e.Message
}
