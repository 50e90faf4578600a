package org

import "context"

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListBranches(ctx context.Context) ([]Branch, error) {
	return s.store.ListBranches(ctx)
}

func (s *Service) CreateBranch(ctx context.Context, name string) (string, error) {
	return s.store.CreateBranch(ctx, name)
}

func (s *Service) ListDepartments(ctx context.Context, branchID string) ([]Department, error) {
	return s.store.ListDepartments(ctx, branchID)
}

func (s *Service) CreateDepartment(ctx context.Context, branchID, name, code string) (string, error) {
	return s.store.CreateDepartment(ctx, branchID, name, code)
}

func (s *Service) DeactivateDepartment(ctx context.Context, departmentID string) error {
	return s.store.DeactivateDepartment(ctx, departmentID)
}

func (s *Service) ListEmployees(ctx context.Context, branchID string) ([]Employee, error) {
	return s.store.ListEmployees(ctx, branchID)
}

func (s *Service) ListDepartmentMembers(ctx context.Context, departmentID string) ([]Employee, error) {
	return s.store.ListDepartmentMembers(ctx, departmentID)
}

func (s *Service) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	return s.store.CreateEmployee(ctx, emp)
}

func (s *Service) SetMemberships(ctx context.Context, employeeID string, departmentIDs []string, primaryID string) error {
	return s.store.SetMemberships(ctx, employeeID, departmentIDs, primaryID)
}

func (s *Service) DeactivateEmployee(ctx context.Context, employeeID string) error {
	return s.store.DeactivateEmployee(ctx, employeeID)
}

// AssignablePool returns the department members eligible for KPI fan-out,
// excluding management levels.
func (s *Service) AssignablePool(ctx context.Context, departmentID string) ([]Employee, error) {
	members, err := s.store.ListDepartmentMembers(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	pool := members[:0]
	for _, member := range members {
		if !member.IsManagement() {
			pool = append(pool, member)
		}
	}
	return pool, nil
}
