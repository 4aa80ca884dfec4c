// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"leakguard/internal/detector"
)

func newTestFinding(category, fingerprint, path string) detector.Finding {
	return detector.Finding{
		Path:        path,
		Line:        1,
		Category:    category,
		Severity:    detector.SeverityCritical,
		Confidence:  1.0,
		Fingerprint: fingerprint,
	}
}

func TestNewSuppressionManager_NoFile(t *testing.T) {
	sm := NewSuppressionManager("/nonexistent/path.yaml")
	if sm == nil {
		t.Fatal("expected non-nil manager")
	}
	if !sm.IsEnabled() {
		t.Error("suppression manager should be enabled by default")
	}
	if sm.LoadError() != nil {
		t.Errorf("a missing file is not an error, got %v", sm.LoadError())
	}
}

func TestNewSuppressionManager_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	if err := os.WriteFile(path, []byte("rules: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}

	sm := NewSuppressionManager(path)
	if sm.LoadError() == nil {
		t.Fatal("expected a load error for malformed YAML")
	}
	if len(sm.ListSuppressions()) != 0 {
		t.Error("malformed file should yield no rules")
	}
}

func TestAddAndIsSuppressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")

	sm := NewSuppressionManager(path)
	finding := newTestFinding("AWS Access Key", "abc123", "config/app.env")

	if err := sm.AddSuppression(finding, "test reason", "tester", nil); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	suppressed, rule := sm.IsSuppressed(finding)
	if !suppressed {
		t.Fatal("finding should be suppressed")
	}
	if rule.Reason != "test reason" {
		t.Errorf("expected reason 'test reason', got %q", rule.Reason)
	}
	if rule.Metadata["category"] != "AWS Access Key" {
		t.Errorf("expected category metadata, got %v", rule.Metadata)
	}
	if rule.ExpiresAt == nil || rule.ExpiresAt.Before(time.Now().Add(DefaultExpiry-time.Minute)) {
		t.Error("expected default expiry to be applied")
	}

	if err := sm.AddSuppression(finding, "again", "tester", nil); err == nil {
		t.Error("adding a duplicate rule should fail")
	}
}

func TestIsSuppressed_NotSuppressed(t *testing.T) {
	sm := NewSuppressionManager(filepath.Join(t.TempDir(), "none.yaml"))
	suppressed, rule := sm.IsSuppressed(newTestFinding("GitHub Token", "ffff", "main.go"))
	if suppressed {
		t.Error("finding should not be suppressed")
	}
	if rule != nil {
		t.Error("expected nil rule for unsuppressed finding")
	}
}

func TestApply(t *testing.T) {
	sm := NewSuppressionManager(filepath.Join(t.TempDir(), "suppressions.yaml"))
	a := newTestFinding("AWS Access Key", "aaa", "a.go")
	b := newTestFinding("GitHub Token", "bbb", "b.go")
	c := newTestFinding("Slack Token", "ccc", "c.go")

	if err := sm.AddSuppression(b, "known", "tester", nil); err != nil {
		t.Fatal(err)
	}

	kept, suppressed := sm.Apply([]detector.Finding{a, b, c})
	if len(kept) != 2 || kept[0].Fingerprint != "aaa" || kept[1].Fingerprint != "ccc" {
		t.Errorf("unexpected kept findings: %+v", kept)
	}
	if len(suppressed) != 1 || suppressed[0].Fingerprint != "bbb" {
		t.Errorf("unexpected suppressed findings: %+v", suppressed)
	}

	sm.SetEnabled(false)
	kept, suppressed = sm.Apply([]detector.Finding{a, b, c})
	if len(kept) != 3 || len(suppressed) != 0 {
		t.Error("a disabled manager suppresses nothing")
	}
}

func TestRemoveSuppression(t *testing.T) {
	sm := NewSuppressionManager(filepath.Join(t.TempDir(), "suppressions.yaml"))
	finding := newTestFinding("Password in URL", "p4ss", "docker-compose.yml")

	if err := sm.AddSuppression(finding, "false positive", "tester", nil); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	rules := sm.ListSuppressions()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].ID != "SUP-00000001" {
		t.Errorf("unexpected rule id %q", rules[0].ID)
	}

	if err := sm.RemoveSuppression(rules[0].ID); err != nil {
		t.Fatalf("RemoveSuppression failed: %v", err)
	}
	if suppressed, _ := sm.IsSuppressed(finding); suppressed {
		t.Error("finding should no longer be suppressed after removal")
	}
	if err := sm.RemoveSuppression("SUP-99999999"); err == nil {
		t.Error("removing an unknown rule should fail")
	}
}

func TestCleanupExpired(t *testing.T) {
	sm := NewSuppressionManager(filepath.Join(t.TempDir(), "suppressions.yaml"))
	finding := newTestFinding("JSON Web Token", "jwt1", "auth.go")

	past := time.Now().Add(-time.Hour)
	if err := sm.AddSuppression(finding, "expired", "tester", &past); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	if sm.GetExpiredRule(finding) == nil {
		t.Error("expected the expired rule to be reported")
	}
	if suppressed, _ := sm.IsSuppressed(finding); suppressed {
		t.Error("expired suppression should not suppress the finding")
	}

	removed, err := sm.CleanupExpired()
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 expired rule removed, got %d", removed)
	}
}

func TestGenerateSuppressionRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	sm := NewSuppressionManager(path)
	findings := []detector.Finding{
		newTestFinding("AWS Access Key", "one", "f.txt"),
		newTestFinding("GitHub Token", "two", "f.txt"),
		newTestFinding("GitHub Token", "two", "f.txt"),
	}

	added, err := sm.GenerateSuppressionRules(findings, "bulk suppress", false)
	if err != nil {
		t.Fatalf("GenerateSuppressionRules failed: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 rules added, got %d", added)
	}

	// generated rules are disabled until reviewed
	if suppressed, _ := sm.IsSuppressed(findings[0]); suppressed {
		t.Error("disabled rules must not suppress")
	}

	added, err = sm.GenerateSuppressionRules(findings[:1], "again", false)
	if err != nil {
		t.Fatal(err)
	}
	if added != 0 {
		t.Errorf("existing rules should only be refreshed, got %d added", added)
	}
	if rules := sm.ListSuppressions(); len(rules) != 2 || rules[0].LastSeenAt == nil {
		t.Errorf("unexpected rules after refresh: %+v", rules)
	}
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "suppressions.yaml")

	sm1 := NewSuppressionManager(path)
	finding := newTestFinding("Stripe API Key", "stripe", "billing.go")
	if err := sm1.AddSuppression(finding, "test key", "tester", nil); err != nil {
		t.Fatalf("AddSuppression failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("suppression file should have been created")
	}

	sm2 := NewSuppressionManager(path)
	if suppressed, _ := sm2.IsSuppressed(finding); !suppressed {
		t.Error("suppression should persist across manager instances")
	}
	if sm2.GetConfigPath() != path {
		t.Errorf("expected config path %q, got %q", path, sm2.GetConfigPath())
	}
}

func TestEnableSuppressionByHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	sm := NewSuppressionManager(path)
	findings := []detector.Finding{
		newTestFinding("AWS Access Key", "0123456789abcdef", "f.txt"),
		newTestFinding("GitHub Token", "01234567ffffffff", "g.txt"),
	}
	if _, err := sm.GenerateSuppressionRules(findings, "generated", false); err != nil {
		t.Fatal(err)
	}

	if err := sm.EnableSuppressionByHash("0123", ""); err == nil {
		t.Error("short hash prefix should be rejected")
	}
	if err := sm.EnableSuppressionByHash("01234567", ""); err == nil {
		t.Error("ambiguous hash prefix should be rejected")
	}
	if err := sm.EnableSuppressionByHash("deadbeef", ""); err == nil {
		t.Error("unknown hash should be rejected")
	}

	if err := sm.EnableSuppressionByHash("0123456789", "reviewed test key"); err != nil {
		t.Fatalf("EnableSuppressionByHash failed: %v", err)
	}
	if suppressed, rule := sm.IsSuppressed(findings[0]); !suppressed || rule.Reason != "reviewed test key" {
		t.Errorf("expected enabled rule with new reason, got %v %+v", suppressed, rule)
	}
	if suppressed, _ := sm.IsSuppressed(findings[1]); suppressed {
		t.Error("other rule must stay disabled")
	}

	reloaded := NewSuppressionManager(path)
	if suppressed, _ := reloaded.IsSuppressed(findings[0]); !suppressed {
		t.Error("enabled state should be persisted")
	}
}
