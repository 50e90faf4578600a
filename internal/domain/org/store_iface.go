package org

import "context"

type StoreAPI interface {
	ListBranches(ctx context.Context) ([]Branch, error)
	GetBranch(ctx context.Context, branchID string) (*Branch, error)
	CreateBranch(ctx context.Context, name string) (string, error)

	ListDepartments(ctx context.Context, branchID string) ([]Department, error)
	GetDepartment(ctx context.Context, departmentID string) (*Department, error)
	CreateDepartment(ctx context.Context, branchID, name, code string) (string, error)
	DeactivateDepartment(ctx context.Context, departmentID string) error

	ListEmployees(ctx context.Context, branchID string) ([]Employee, error)
	ListDepartmentMembers(ctx context.Context, departmentID string) ([]Employee, error)
	GetEmployee(ctx context.Context, employeeID string) (*Employee, error)
	CreateEmployee(ctx context.Context, emp Employee) (string, error)
	SetMemberships(ctx context.Context, employeeID string, departmentIDs []string, primaryID string) error
	DeactivateEmployee(ctx context.Context, employeeID string) error
}
