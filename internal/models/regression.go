package models

import (
	"time"
)

// ReviewStatus is the human review workflow state of a visual regression,
// independent of the numeric significance verdict.
type ReviewStatus string

const (
	ReviewStatusPending       ReviewStatus = "pending"
	ReviewStatusApproved      ReviewStatus = "approved"
	ReviewStatusBugReported   ReviewStatus = "bug_reported"
	ReviewStatusInvestigating ReviewStatus = "investigating"
	ReviewStatusFalsePositive ReviewStatus = "false_positive"
)

// IsValid reports whether the status is one of the known workflow states
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusBugReported,
		ReviewStatusInvestigating, ReviewStatusFalsePositive:
		return true
	}
	return false
}

// SeedReviewStatus returns the initial workflow state for a fresh comparison:
// pending when the difference is significant, approved otherwise.
func SeedReviewStatus(isSignificant bool) ReviewStatus {
	if isSignificant {
		return ReviewStatusPending
	}
	return ReviewStatusApproved
}

// ComparisonResult is the Visual Diff Engine verdict for one image pair.
// Threshold is a fraction of pixels in [0,1]; PercentageDifferent is 0-100.
// IsSignificant is true when PercentageDifferent exceeds Threshold*100.
type ComparisonResult struct {
	PixelsDifferent     int     `json:"pixels_different"`
	PercentageDifferent float64 `json:"percentage_different"`
	Width               int     `json:"width"`  // Normalized comparison width (max of the pair)
	Height              int     `json:"height"` // Normalized comparison height (max of the pair)
	Threshold           float64 `json:"threshold"`
	IsSignificant       bool    `json:"is_significant"`
	BaselineURL         string  `json:"baseline_url"`
	CurrentURL          string  `json:"current_url"`
	DiffURL             string  `json:"diff_url,omitempty"`
}

// VisualRegression binds one comparison result to its run/baseline context
// and carries the human review workflow state.
type VisualRegression struct {
	ID            string           `json:"id" badgerhold:"key"`
	RunID         string           `json:"run_id" badgerhold:"index"`
	BaselineRunID string           `json:"baseline_run_id"`
	SuiteID       string           `json:"suite_id" badgerhold:"index"`
	ScenarioName  string           `json:"scenario_name"`
	Viewport      string           `json:"viewport"`
	StepName      string           `json:"step_name,omitempty"`
	Comparison    ComparisonResult `json:"comparison"`
	ReviewStatus  ReviewStatus     `json:"review_status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Baseline is a per-suite pointer to the historical run used as the visual
// reference. Set and cleared explicitly, never inferred.
type Baseline struct {
	SuiteID string    `json:"suite_id" badgerhold:"key"`
	RunID   string    `json:"run_id"`
	SetAt   time.Time `json:"set_at"`
}

// ThresholdOverride is a per-(suite, viewport) significance cutoff.
// Value is a fraction of pixels in [0,1]. An empty viewport scopes the
// override to the whole suite.
type ThresholdOverride struct {
	ID       string  `json:"id" badgerhold:"key"` // suiteID or suiteID/viewport
	SuiteID  string  `json:"suite_id" badgerhold:"index"`
	Viewport string  `json:"viewport,omitempty"`
	Value    float64 `json:"value"`
}

// ThresholdKey builds the store key for a threshold override
func ThresholdKey(suiteID, viewport string) string {
	if viewport == "" {
		return suiteID
	}
	return suiteID + "/" + viewport
}

// IgnoreRegion is a rectangle excluded from visual comparison, optionally
// scoped to a suite, test name, and/or viewport. Pixels inside are
// neutralized to mid-gray in both images before diffing.
type IgnoreRegion struct {
	ID       string `json:"id" badgerhold:"key"`
	SuiteID  string `json:"suite_id" badgerhold:"index"`
	TestName string `json:"test_name,omitempty"`
	Viewport string `json:"viewport,omitempty"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Reason   string `json:"reason"`
}

// AppliesTo reports whether the region's optional scopes match the given
// test name and viewport. An empty scope field matches everything.
func (r IgnoreRegion) AppliesTo(testName, viewport string) bool {
	if r.TestName != "" && r.TestName != testName {
		return false
	}
	if r.Viewport != "" && r.Viewport != viewport {
		return false
	}
	return true
}

// RegressionReport aggregates one regression analysis batch. A missing
// baseline yields Success=false with a message, never an error.
type RegressionReport struct {
	Success            bool               `json:"success"`
	Message            string             `json:"message,omitempty"`
	RunID              string             `json:"run_id"`
	BaselineRunID      string             `json:"baseline_run_id,omitempty"`
	SuiteID            string             `json:"suite_id,omitempty"`
	TotalComparisons   int                `json:"total_comparisons"`
	SignificantCount   int                `json:"significant_count"`
	MeanPercentage     float64            `json:"mean_percentage"`
	Regressions        []VisualRegression `json:"regressions,omitempty"`
	SkippedComparisons int                `json:"skipped_comparisons,omitempty"`
}
