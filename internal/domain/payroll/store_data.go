package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps posted results in PostgreSQL. The full result is stored as
// JSON next to the columns used for querying.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Put(ctx context.Context, res Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode posted payroll: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO posted_payrolls (employee_id, period_start, period_end, employee_name, gross_pay, total_deductions, net_pay, result_json)
    VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7::numeric,$8)
    ON CONFLICT (employee_id, period_start, period_end)
    DO UPDATE SET employee_name = EXCLUDED.employee_name,
                  gross_pay = EXCLUDED.gross_pay,
                  total_deductions = EXCLUDED.total_deductions,
                  net_pay = EXCLUDED.net_pay,
                  result_json = EXCLUDED.result_json,
                  posted_at = now()
  `, res.EmployeeID, res.Period.Start, res.Period.End, res.EmployeeName,
		res.GrossPay.String(), res.Deductions.Total.String(), res.NetPay.String(), payload)
	return err
}

func (s *Store) Get(ctx context.Context, key Key) (Result, error) {
	var payload []byte
	err := s.DB.QueryRow(ctx, `
    SELECT result_json
    FROM posted_payrolls
    WHERE employee_id = $1 AND period_start = $2 AND period_end = $3
  `, key.EmployeeID, key.Start, key.End).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{}, ErrNotPosted
		}
		return Result{}, err
	}
	return decodeResult(payload)
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID int) ([]Result, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT result_json
    FROM posted_payrolls
    WHERE employee_id = $1
    ORDER BY period_start, period_end
  `, employeeID)
	if err != nil {
		return nil, err
	}
	return collectResults(rows)
}

func (s *Store) List(ctx context.Context) ([]Result, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT result_json
    FROM posted_payrolls
    ORDER BY employee_id, period_start, period_end
  `)
	if err != nil {
		return nil, err
	}
	return collectResults(rows)
}

func collectResults(rows pgx.Rows) ([]Result, error) {
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		res, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func decodeResult(payload []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return Result{}, fmt.Errorf("decode posted payroll: %w", err)
	}
	return res, nil
}
