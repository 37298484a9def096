package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique test run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewResultID generates a unique scenario result ID with the "res_" prefix
// Format: res_<uuid>
func NewResultID() string {
	return "res_" + uuid.New().String()
}

// NewRegressionID generates a unique visual regression ID with the "reg_" prefix
// Format: reg_<uuid>
func NewRegressionID() string {
	return "reg_" + uuid.New().String()
}

// NewRegionID generates a unique ignore region ID with the "ign_" prefix
// Format: ign_<uuid>
func NewRegionID() string {
	return "ign_" + uuid.New().String()
}
