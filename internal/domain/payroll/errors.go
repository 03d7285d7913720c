package payroll

import "errors"

var (
	ErrInvalidPeriod     = errors.New("pay period start and end are required")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrNotPosted         = errors.New("payroll not posted for period")
	ErrUnsupportedFormat = errors.New("unsupported register format")
)
