package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

var ErrNotFound = errors.New("not found")

func (s *Store) ListBranches(ctx context.Context) ([]Branch, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, created_at
    FROM branches
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBranch(ctx context.Context, branchID string) (*Branch, error) {
	var b Branch
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, created_at
    FROM branches
    WHERE id = $1
  `, branchID).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBranch(ctx context.Context, name string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO branches (name)
    VALUES ($1)
    RETURNING id
  `, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListDepartments(ctx context.Context, branchID string) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, branch_id, name, code, active, created_at
    FROM departments
    WHERE branch_id = $1 AND active
    ORDER BY name
  `, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.BranchID, &d.Name, &d.Code, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, departmentID string) (*Department, error) {
	var d Department
	err := s.DB.QueryRow(ctx, `
    SELECT id, branch_id, name, code, active, created_at
    FROM departments
    WHERE id = $1 AND active
  `, departmentID).Scan(&d.ID, &d.BranchID, &d.Name, &d.Code, &d.Active, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateDepartment(ctx context.Context, branchID, name, code string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (branch_id, name, code)
    VALUES ($1,$2,$3)
    RETURNING id
  `, branchID, name, code).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) DeactivateDepartment(ctx context.Context, departmentID string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE departments SET active = FALSE WHERE id = $1", departmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListEmployees(ctx context.Context, branchID string) ([]Employee, error) {
	// Branch membership comes from either the legacy direct department link
	// or the membership table.
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT e.id, e.name, e.code, e.level, COALESCE(e.department_id::text, ''), e.active, e.created_at
    FROM employees e
    LEFT JOIN employee_departments ed ON ed.employee_id = e.id
    LEFT JOIN departments d ON d.id = ed.department_id OR d.id = e.department_id
    WHERE e.active AND d.active AND d.branch_id = $1
    ORDER BY e.name
  `, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Code, &e.Level, &e.DepartmentID, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachMemberships(ctx, out)
}

func (s *Store) ListDepartmentMembers(ctx context.Context, departmentID string) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT e.id, e.name, e.code, e.level, COALESCE(e.department_id::text, ''), e.active, e.created_at
    FROM employees e
    LEFT JOIN employee_departments ed ON ed.employee_id = e.id
    WHERE e.active AND (ed.department_id = $1 OR e.department_id = $1)
    ORDER BY e.name
  `, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Code, &e.Level, &e.DepartmentID, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return s.attachMemberships(ctx, out)
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, code, level, COALESCE(department_id::text, ''), active, created_at
    FROM employees
    WHERE id = $1 AND active
  `, employeeID).Scan(&e.ID, &e.Name, &e.Code, &e.Level, &e.DepartmentID, &e.Active, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	enriched, err := s.attachMemberships(ctx, []Employee{e})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (name, code, level, department_id)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, emp.Name, emp.Code, emp.Level, nullIfEmpty(emp.DepartmentID)).Scan(&id); err != nil {
		return "", err
	}
	if len(emp.DepartmentIDs) > 0 {
		if err := s.SetMemberships(ctx, id, emp.DepartmentIDs, emp.PrimaryDepartmentID); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (s *Store) SetMemberships(ctx context.Context, employeeID string, departmentIDs []string, primaryID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM employee_departments WHERE employee_id = $1", employeeID); err != nil {
		return err
	}
	for _, departmentID := range departmentIDs {
		isPrimary := departmentID == primaryID || (primaryID == "" && len(departmentIDs) == 1)
		if _, err := tx.Exec(ctx, `
      INSERT INTO employee_departments (employee_id, department_id, is_primary)
      VALUES ($1,$2,$3)
    `, employeeID, departmentID, isPrimary); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) DeactivateEmployee(ctx context.Context, employeeID string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE employees SET active = FALSE WHERE id = $1", employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) attachMemberships(ctx context.Context, employees []Employee) ([]Employee, error) {
	if len(employees) == 0 {
		return employees, nil
	}
	ids := make([]string, 0, len(employees))
	index := make(map[string]int, len(employees))
	for i, e := range employees {
		ids = append(ids, e.ID)
		index[e.ID] = i
	}

	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, department_id, is_primary
    FROM employee_departments
    WHERE employee_id = ANY($1)
  `, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID, departmentID string
		var isPrimary bool
		if err := rows.Scan(&employeeID, &departmentID, &isPrimary); err != nil {
			return nil, err
		}
		i, ok := index[employeeID]
		if !ok {
			continue
		}
		employees[i].DepartmentIDs = append(employees[i].DepartmentIDs, departmentID)
		if isPrimary {
			employees[i].PrimaryDepartmentID = departmentID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fall back to the direct link for display when no membership is primary.
	for i := range employees {
		if employees[i].PrimaryDepartmentID == "" {
			employees[i].PrimaryDepartmentID = employees[i].DepartmentID
		}
	}
	return employees, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
