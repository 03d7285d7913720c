package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// WritePayslipPDF renders res as a one-page A4 payslip.
func WritePayslipPDF(w io.Writer, res Result, workDaysPerMonth int) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s", KeyOf(res)), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %d  %s", res.EmployeeID, res.EmployeeName))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Position: %s", res.Position))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", res.Period.Start.Format(dateLayout), res.Period.End.Format(dateLayout)))
	pdf.Ln(10)

	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
	}
	line := func(label, value string) {
		pdf.CellFormat(90, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, value, "", 1, "R", false, 0, "")
	}

	section("Hours")
	line("Hourly rate ("+string(res.RateSource)+")", money(res.HourlyRate))
	line("Regular hours", res.RegularHours.StringFixed(2))
	line("Overtime hours", res.OvertimeHours.StringFixed(2))
	pdf.Ln(3)

	section("Earnings")
	line("Regular pay", money(res.RegularPay))
	line("Overtime pay", money(res.OvertimePay))
	line("Gross pay", money(res.GrossPay))
	pdf.Ln(3)

	section("Deductions")
	line("Social insurance", money(res.Deductions.SocialInsurance))
	line("Health insurance", money(res.Deductions.HealthInsurance))
	line("Housing fund", money(res.Deductions.HousingFund))
	line("Taxable income", money(res.Deductions.TaxableIncome))
	line("Withholding tax", money(res.Deductions.WithholdingTax))
	line("Total deductions", money(res.Deductions.Total))
	pdf.Ln(3)

	section("Allowances")
	line("Working days", fmt.Sprintf("%d of %d", res.Allowances.EffectiveDays, workDaysPerMonth))
	line("Rice subsidy", money(res.Allowances.Rice))
	line("Phone allowance", money(res.Allowances.Phone))
	line("Clothing allowance", money(res.Allowances.Clothing))
	line("Total allowances", money(res.Allowances.Total))
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 13)
	line("Net pay", money(res.NetPay))

	return pdf.Output(w)
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}
