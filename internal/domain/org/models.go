package org

import "time"

const (
	LevelStaff   = "staff"
	LevelManager = "manager"
	LevelAdmin   = "admin"
)

// ManagementLevels are excluded from department-wide KPI assignment fan-out.
var ManagementLevels = []string{LevelManager, LevelAdmin}

type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Department struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branchId"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type Employee struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Code                string    `json:"code"`
	Level               string    `json:"level"`
	DepartmentID        string    `json:"departmentId,omitempty"` // legacy direct link
	PrimaryDepartmentID string    `json:"primaryDepartmentId,omitempty"`
	DepartmentIDs       []string  `json:"departmentIds,omitempty"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"createdAt"`
}

// IsManagement reports whether the employee is excluded from assignee pools.
func (e Employee) IsManagement() bool {
	for _, level := range ManagementLevels {
		if e.Level == level {
			return true
		}
	}
	return false
}
