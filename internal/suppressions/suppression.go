// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leakguard/internal/detector"
	"leakguard/internal/paths"

	"gopkg.in/yaml.v3"
)

// DefaultExpiry is how long a generated suppression stays valid
const DefaultExpiry = 7 * 24 * time.Hour

// SuppressionRule represents a single suppression rule
type SuppressionRule struct {
	ID         string            `yaml:"id"`
	Hash       string            `yaml:"hash"`
	Reason     string            `yaml:"reason"`
	Enabled    bool              `yaml:"enabled"`
	CreatedBy  string            `yaml:"created_by,omitempty"`
	CreatedAt  time.Time         `yaml:"created_at"`
	LastSeenAt *time.Time        `yaml:"last_seen_at,omitempty"`
	ExpiresAt  *time.Time        `yaml:"expires_at,omitempty"`
	ReviewedBy string            `yaml:"reviewed_by,omitempty"`
	ReviewedAt *time.Time        `yaml:"reviewed_at,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`
}

// Active reports whether the rule suppresses findings at time now
func (r SuppressionRule) Active(now time.Time) bool {
	return r.Enabled && (r.ExpiresAt == nil || now.Before(*r.ExpiresAt))
}

// SuppressionConfig represents the suppression configuration file
type SuppressionConfig struct {
	Version string            `yaml:"version"`
	Rules   []SuppressionRule `yaml:"rules"`
}

// SuppressionManager matches findings against fingerprint rules
type SuppressionManager struct {
	configPath string
	config     *SuppressionConfig
	enabled    bool
	loadErr    error
}

// NewSuppressionManager creates a new suppression manager. A missing file
// yields an empty rule set; a malformed one is reported by LoadError.
func NewSuppressionManager(configPath string) *SuppressionManager {
	if configPath == "" {
		configPath = paths.GetSuppressionsFile()
	}

	manager := &SuppressionManager{
		configPath: configPath,
		enabled:    true,
	}

	manager.loadConfig()
	return manager
}

func emptyConfig() *SuppressionConfig {
	return &SuppressionConfig{
		Version: "1.0",
		Rules:   []SuppressionRule{},
	}
}

// loadConfig loads the suppression configuration
func (sm *SuppressionManager) loadConfig() {
	sm.config = emptyConfig()
	if sm.configPath == "" {
		return
	}

	data, err := os.ReadFile(filepath.Clean(sm.configPath))
	if err != nil {
		if !os.IsNotExist(err) {
			sm.loadErr = fmt.Errorf("failed to read suppression file: %w", err)
		}
		return
	}

	var config SuppressionConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		sm.loadErr = fmt.Errorf("failed to parse suppression file %s: %w", sm.configPath, err)
		return
	}
	if config.Rules == nil {
		config.Rules = []SuppressionRule{}
	}
	sm.config = &config
}

// LoadError returns the error encountered reading the rules file, if any
func (sm *SuppressionManager) LoadError() error {
	return sm.loadErr
}

// IsSuppressed checks if a finding should be suppressed
func (sm *SuppressionManager) IsSuppressed(finding detector.Finding) (bool, *SuppressionRule) {
	if !sm.enabled || sm.config == nil || finding.Fingerprint == "" {
		return false, nil
	}

	now := time.Now()
	for i := range sm.config.Rules {
		rule := sm.config.Rules[i]
		if rule.Hash == finding.Fingerprint && rule.Active(now) {
			return true, &rule
		}
	}
	return false, nil
}

// Apply splits findings into those kept and those suppressed, preserving order
func (sm *SuppressionManager) Apply(findings []detector.Finding) (kept, suppressed []detector.Finding) {
	for _, f := range findings {
		if ok, _ := sm.IsSuppressed(f); ok {
			suppressed = append(suppressed, f)
			continue
		}
		kept = append(kept, f)
	}
	return kept, suppressed
}

func (sm *SuppressionManager) nextID(offset int) string {
	maxID := 0
	for _, existingRule := range sm.config.Rules {
		var num int
		if _, err := fmt.Sscanf(existingRule.ID, "SUP-%08d", &num); err == nil && num > maxID {
			maxID = num
		}
	}
	return fmt.Sprintf("SUP-%08d", maxID+offset+1)
}

func ruleMetadata(f detector.Finding) map[string]string {
	return map[string]string{
		"category":    f.Category,
		"rule_id":     f.RuleID,
		"filename":    f.Path,
		"line_number": fmt.Sprintf("%d", f.Line),
		"severity":    f.Severity.String(),
	}
}

// AddSuppression adds a new suppression rule for finding. Without expiresAt
// the rule expires after DefaultExpiry.
func (sm *SuppressionManager) AddSuppression(finding detector.Finding, reason, createdBy string, expiresAt *time.Time) error {
	for _, rule := range sm.config.Rules {
		if rule.Hash == finding.Fingerprint {
			return fmt.Errorf("suppression rule already exists for this finding")
		}
	}

	now := time.Now()
	if expiresAt == nil {
		defaultExpiry := now.Add(DefaultExpiry)
		expiresAt = &defaultExpiry
	}

	sm.config.Rules = append(sm.config.Rules, SuppressionRule{
		ID:        sm.nextID(0),
		Hash:      finding.Fingerprint,
		Reason:    reason,
		Enabled:   true,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Metadata:  ruleMetadata(finding),
	})
	return sm.saveConfig()
}

// RemoveSuppression removes a suppression rule by ID
func (sm *SuppressionManager) RemoveSuppression(id string) error {
	for i, rule := range sm.config.Rules {
		if rule.ID == id {
			sm.config.Rules = append(sm.config.Rules[:i], sm.config.Rules[i+1:]...)
			return sm.saveConfig()
		}
	}
	return fmt.Errorf("suppression rule with ID %s not found", id)
}

// ListSuppressions returns all suppression rules
func (sm *SuppressionManager) ListSuppressions() []SuppressionRule {
	return sm.config.Rules
}

// saveConfig saves the suppression configuration to file
func (sm *SuppressionManager) saveConfig() error {
	if sm.configPath == "" {
		sm.configPath = paths.GetSuppressionsFile()
	}

	data, err := yaml.Marshal(sm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal suppression config: %w", err)
	}

	dir := filepath.Dir(sm.configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write with restrictive permissions
	if err := os.WriteFile(sm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write suppression config: %w", err)
	}
	return nil
}

// CleanupExpired removes expired suppression rules and returns how many
// were removed
func (sm *SuppressionManager) CleanupExpired() (int, error) {
	now := time.Now()
	originalCount := len(sm.config.Rules)

	activeRules := []SuppressionRule{}
	for _, rule := range sm.config.Rules {
		if rule.ExpiresAt == nil || now.Before(*rule.ExpiresAt) {
			activeRules = append(activeRules, rule)
		}
	}

	sm.config.Rules = activeRules
	removed := originalCount - len(activeRules)
	if removed > 0 {
		return removed, sm.saveConfig()
	}
	return 0, nil
}

// GetExpiredRule returns the enabled but expired rule for finding, if any
func (sm *SuppressionManager) GetExpiredRule(finding detector.Finding) *SuppressionRule {
	if !sm.enabled {
		return nil
	}

	now := time.Now()
	for i := range sm.config.Rules {
		rule := sm.config.Rules[i]
		if rule.Hash == finding.Fingerprint && rule.Enabled && rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
			return &rule
		}
	}
	return nil
}

// SetEnabled enables or disables the suppression manager
func (sm *SuppressionManager) SetEnabled(enabled bool) {
	sm.enabled = enabled
}

// IsEnabled returns whether the suppression manager is enabled
func (sm *SuppressionManager) IsEnabled() bool {
	return sm.enabled
}

// GetConfigPath returns the path to the suppression config file
func (sm *SuppressionManager) GetConfigPath() string {
	return sm.configPath
}

// GenerateSuppressionRules records a rule for every finding. Existing rules
// only get their last-seen time refreshed. Generated rules are disabled unless
// enabled is set, so they can be reviewed before taking effect.
func (sm *SuppressionManager) GenerateSuppressionRules(findings []detector.Finding, reason string, enabled bool) (int, error) {
	existing := make(map[string]*SuppressionRule, len(sm.config.Rules))
	for i := range sm.config.Rules {
		existing[sm.config.Rules[i].Hash] = &sm.config.Rules[i]
	}

	added, updated := 0, 0
	now := time.Now()
	expiry := now.Add(DefaultExpiry)

	var fresh []SuppressionRule
	seen := make(map[string]bool)
	for _, f := range findings {
		if rule, ok := existing[f.Fingerprint]; ok {
			rule.LastSeenAt = &now
			updated++
			continue
		}
		if seen[f.Fingerprint] {
			continue
		}
		seen[f.Fingerprint] = true
		rule := SuppressionRule{
			ID:         sm.nextID(added),
			Hash:       f.Fingerprint,
			Reason:     reason,
			Enabled:    enabled,
			CreatedAt:  now,
			LastSeenAt: &now,
			ExpiresAt:  &expiry,
			Metadata:   ruleMetadata(f),
		}
		fresh = append(fresh, rule)
		added++
	}
	sm.config.Rules = append(sm.config.Rules, fresh...)

	if added > 0 || updated > 0 {
		return added, sm.saveConfig()
	}
	return 0, nil
}

// EnableSuppressionByHash enables a reviewed rule. hash may be the full
// fingerprint or a unique prefix of at least eight characters.
func (sm *SuppressionManager) EnableSuppressionByHash(hash, reason string) error {
	if len(hash) < 8 {
		return fmt.Errorf("hash %q is too short, need at least 8 characters", hash)
	}

	match := -1
	for i, rule := range sm.config.Rules {
		if !strings.HasPrefix(rule.Hash, hash) {
			continue
		}
		if match >= 0 {
			return fmt.Errorf("hash %q matches more than one suppression rule", hash)
		}
		match = i
	}
	if match < 0 {
		return fmt.Errorf("no suppression rule for hash %s", hash)
	}

	rule := &sm.config.Rules[match]
	rule.Enabled = true
	if reason != "" {
		rule.Reason = reason
	}
	return sm.saveConfig()
}
