package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed provisions a demo branch with departments, employees, and a couple of
// KPI definitions so a fresh install has something to assign against. It is a
// no-op when a branch already exists.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM branches").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var branchID string
	if err := pool.QueryRow(ctx, "INSERT INTO branches (name) VALUES ($1) RETURNING id", "Head Office").Scan(&branchID); err != nil {
		return err
	}

	departments := []struct {
		name string
		code string
	}{
		{"Sales", "SAL"},
		{"Customer Support", "SUP"},
	}
	deptIDs := make([]string, 0, len(departments))
	for _, dept := range departments {
		var id string
		if err := pool.QueryRow(ctx, `
      INSERT INTO departments (branch_id, name, code)
      VALUES ($1,$2,$3)
      RETURNING id
    `, branchID, dept.name, dept.code).Scan(&id); err != nil {
			return err
		}
		deptIDs = append(deptIDs, id)
	}

	employees := []struct {
		name  string
		code  string
		level string
		dept  int
	}{
		{"Alice Nguyen", "EMP-001", "staff", 0},
		{"Bob Tran", "EMP-002", "staff", 0},
		{"Carol Pham", "EMP-003", "manager", 0},
		{"Dan Le", "EMP-004", "staff", 1},
	}
	for _, emp := range employees {
		var id string
		if err := pool.QueryRow(ctx, `
      INSERT INTO employees (name, code, level)
      VALUES ($1,$2,$3)
      RETURNING id
    `, emp.name, emp.code, emp.level).Scan(&id); err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO employee_departments (employee_id, department_id, is_primary)
      VALUES ($1,$2,TRUE)
    `, id, deptIDs[emp.dept]); err != nil {
			return err
		}
	}

	kpis := []struct {
		name    string
		unit    string
		target  float64
		freq    string
		bonus   int64
		penalty int64
		dept    int
	}{
		{"New contracts signed", "contracts", 10, "monthly", 500000, 200000, 0},
		{"Tickets resolved", "tickets", 120, "monthly", 250000, 100000, 1},
	}
	for _, kpi := range kpis {
		if _, err := pool.Exec(ctx, `
      INSERT INTO kpi_definitions (name, description, unit, target, frequency, bonus_amount, penalty_amount, department_id)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, kpi.name, "", kpi.unit, kpi.target, kpi.freq, kpi.bonus, kpi.penalty, deptIDs[kpi.dept]); err != nil {
			return err
		}
	}

	return nil
}
