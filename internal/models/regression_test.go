package models

import (
	"testing"
)

func TestSeedReviewStatus(t *testing.T) {
	if got := SeedReviewStatus(true); got != ReviewStatusPending {
		t.Errorf("significant comparison should seed pending, got %s", got)
	}
	if got := SeedReviewStatus(false); got != ReviewStatusApproved {
		t.Errorf("insignificant comparison should seed approved, got %s", got)
	}
}

func TestReviewStatus_IsValid(t *testing.T) {
	valid := []ReviewStatus{
		ReviewStatusPending,
		ReviewStatusApproved,
		ReviewStatusBugReported,
		ReviewStatusInvestigating,
		ReviewStatusFalsePositive,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if ReviewStatus("rejected").IsValid() {
		t.Error("expected rejected to be invalid")
	}
}

func TestIgnoreRegion_AppliesTo(t *testing.T) {
	tests := []struct {
		name     string
		region   IgnoreRegion
		testName string
		viewport string
		expected bool
	}{
		{
			name:     "suite-wide region applies everywhere",
			region:   IgnoreRegion{SuiteID: "checkout"},
			testName: "login",
			viewport: "mobile",
			expected: true,
		},
		{
			name:     "test-scoped region applies to matching test",
			region:   IgnoreRegion{SuiteID: "checkout", TestName: "login"},
			testName: "login",
			viewport: "desktop",
			expected: true,
		},
		{
			name:     "test-scoped region skips other tests",
			region:   IgnoreRegion{SuiteID: "checkout", TestName: "login"},
			testName: "payment",
			viewport: "desktop",
			expected: false,
		},
		{
			name:     "viewport-scoped region skips other viewports",
			region:   IgnoreRegion{SuiteID: "checkout", Viewport: "mobile"},
			testName: "login",
			viewport: "desktop",
			expected: false,
		},
		{
			name:     "fully scoped region requires both matches",
			region:   IgnoreRegion{SuiteID: "checkout", TestName: "login", Viewport: "mobile"},
			testName: "login",
			viewport: "mobile",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.region.AppliesTo(tt.testName, tt.viewport); got != tt.expected {
				t.Errorf("AppliesTo(%q, %q) = %v, want %v", tt.testName, tt.viewport, got, tt.expected)
			}
		})
	}
}

func TestThresholdKey(t *testing.T) {
	if got := ThresholdKey("checkout", ""); got != "checkout" {
		t.Errorf("suite-wide key = %s, want checkout", got)
	}
	if got := ThresholdKey("checkout", "mobile"); got != "checkout/mobile" {
		t.Errorf("viewport key = %s, want checkout/mobile", got)
	}
}
