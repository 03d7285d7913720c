package payroll

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	registerSheet = "Register"
)

// RegisterRow is one line of the payroll register export.
type RegisterRow struct {
	EmployeeID      int    `csv:"Employee #"`
	Name            string `csv:"Name"`
	Position        string `csv:"Position"`
	PeriodStart     string `csv:"Period Start"`
	PeriodEnd       string `csv:"Period End"`
	HourlyRate      string `csv:"Hourly Rate"`
	RegularHours    string `csv:"Regular Hours"`
	OvertimeHours   string `csv:"Overtime Hours"`
	RegularPay      string `csv:"Regular Pay"`
	OvertimePay     string `csv:"Overtime Pay"`
	GrossPay        string `csv:"Gross Pay"`
	SocialInsurance string `csv:"Social Insurance"`
	HealthInsurance string `csv:"Health Insurance"`
	HousingFund     string `csv:"Housing Fund"`
	WithholdingTax  string `csv:"Withholding Tax"`
	TotalDeductions string `csv:"Total Deductions"`
	Allowances      string `csv:"Allowances"`
	NetPay          string `csv:"Net Pay"`
}

var registerHeaders = []string{
	"Employee #", "Name", "Position", "Period Start", "Period End", "Hourly Rate",
	"Regular Hours", "Overtime Hours", "Regular Pay", "Overtime Pay", "Gross Pay",
	"Social Insurance", "Health Insurance", "Housing Fund", "Withholding Tax",
	"Total Deductions", "Allowances", "Net Pay",
}

func RegisterRows(results []Result) []RegisterRow {
	rows := make([]RegisterRow, 0, len(results))
	for _, res := range results {
		rows = append(rows, RegisterRow{
			EmployeeID:      res.EmployeeID,
			Name:            res.EmployeeName,
			Position:        res.Position,
			PeriodStart:     res.Period.Start.Format(dateLayout),
			PeriodEnd:       res.Period.End.Format(dateLayout),
			HourlyRate:      money(res.HourlyRate),
			RegularHours:    res.RegularHours.StringFixed(2),
			OvertimeHours:   res.OvertimeHours.StringFixed(2),
			RegularPay:      money(res.RegularPay),
			OvertimePay:     money(res.OvertimePay),
			GrossPay:        money(res.GrossPay),
			SocialInsurance: money(res.Deductions.SocialInsurance),
			HealthInsurance: money(res.Deductions.HealthInsurance),
			HousingFund:     money(res.Deductions.HousingFund),
			WithholdingTax:  money(res.Deductions.WithholdingTax),
			TotalDeductions: money(res.Deductions.Total),
			Allowances:      money(res.Allowances.Total),
			NetPay:          money(res.NetPay),
		})
	}
	return rows
}

// WriteRegister writes results in the named format.
func WriteRegister(w io.Writer, format string, results []Result) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return WriteRegisterCSV(w, results)
	case FormatXLSX:
		return WriteRegisterXLSX(w, results)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func WriteRegisterCSV(w io.Writer, results []Result) error {
	rows := RegisterRows(results)
	if len(rows) == 0 {
		_, err := io.WriteString(w, strings.Join(registerHeaders, ",")+"\n")
		return err
	}
	return gocsv.Marshal(rows, w)
}

func WriteRegisterXLSX(w io.Writer, results []Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), registerSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for col, header := range registerHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(registerSheet, cell, header); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(registerHeaders), 1)
	if err := f.SetCellStyle(registerSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, res := range results {
		values := []any{
			res.EmployeeID,
			res.EmployeeName,
			res.Position,
			res.Period.Start.Format(dateLayout),
			res.Period.End.Format(dateLayout),
			res.HourlyRate.InexactFloat64(),
			res.RegularHours.InexactFloat64(),
			res.OvertimeHours.InexactFloat64(),
			res.RegularPay.InexactFloat64(),
			res.OvertimePay.InexactFloat64(),
			res.GrossPay.InexactFloat64(),
			res.Deductions.SocialInsurance.InexactFloat64(),
			res.Deductions.HealthInsurance.InexactFloat64(),
			res.Deductions.HousingFund.InexactFloat64(),
			res.Deductions.WithholdingTax.InexactFloat64(),
			res.Deductions.Total.InexactFloat64(),
			res.Allowances.Total.InexactFloat64(),
			res.NetPay.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(registerSheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(registerSheet, "B", "C", 24); err != nil {
		return err
	}
	return f.Write(w)
}
