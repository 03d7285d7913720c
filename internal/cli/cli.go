// Package cli implements payrollctl, the command-line front end to the
// payroll engine. It reads the same sources and rule file as the server.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/config"
	"paycalc/internal/platform/csvsource"
	"paycalc/internal/platform/rules"
	"paycalc/internal/timeparse"
)

const dateLayout = "2006-01-02"

type options struct {
	employees  string
	attendance string
	rulesPath  string
	workers    int
	timeout    time.Duration

	employeeID int
	from       string
	to         string
	format     string
	out        string
}

func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Compute payroll from employee and attendance sheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.employees, "employees", cfg.EmployeesSource, "employee sheet (path or http(s) URL)")
	flags.StringVar(&opts.attendance, "attendance", cfg.AttendanceSource, "attendance sheet (path or http(s) URL)")
	flags.StringVar(&opts.rulesPath, "rules", cfg.RulesPath, "payroll rules YAML (default: config/payroll_rules.yaml if found)")
	flags.IntVar(&opts.workers, "workers", cfg.BatchWorkers, "parallel workers for batch runs")
	flags.DurationVar(&opts.timeout, "timeout", cfg.SourceTimeout, "timeout for URL sources")

	root.AddCommand(
		newComputeCommand(opts),
		newBatchCommand(opts),
		newPayslipCommand(opts),
		newAttendanceCommand(opts),
	)
	return root
}

func addPeriodFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.from, "from", "", "period start (YYYY-MM-DD or MM/DD/YYYY)")
	cmd.Flags().StringVar(&opts.to, "to", "", "period end (YYYY-MM-DD or MM/DD/YYYY)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func addEmployeeFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().IntVar(&opts.employeeID, "employee", 0, "employee number")
	_ = cmd.MarkFlagRequired("employee")
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed, nil
	}
	if parsed, ok := timeparse.ParseDate(value); ok {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("--%s: invalid date %q", field, value)
}

func (o *options) period() (payroll.Period, error) {
	from, err := parseDate("from", o.from)
	if err != nil {
		return payroll.Period{}, err
	}
	to, err := parseDate("to", o.to)
	if err != nil {
		return payroll.Period{}, err
	}
	return payroll.NewPeriod(from, to), nil
}

func (o *options) service(cmd *cobra.Command) (*payroll.Service, error) {
	r, _, err := rules.Resolve(o.rulesPath)
	if err != nil {
		return nil, err
	}
	data, err := csvsource.NewLoader(o.timeout).LoadDataset(cmd.Context(), o.employees, o.attendance)
	if err != nil {
		return nil, err
	}
	if data.SkippedRecords > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d unparseable attendance rows\n", data.SkippedRecords)
	}
	return payroll.NewService(payroll.NewEngine(r), data, nil, o.workers), nil
}

// output returns the --out file, or the command's stdout when unset.
func (o *options) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if o.out == "" || o.out == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(o.out)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newComputeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute one employee's pay for a period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := opts.period()
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.Compute(opts.employeeID, period)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, svc.Engine.Rules().WorkDaysPerMonth)
		},
	}
	addEmployeeFlag(cmd, opts)
	addPeriodFlags(cmd, opts)
	return cmd
}

func newBatchCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Compute every employee for a period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := strings.ToLower(opts.format)
			switch format {
			case "table", payroll.FormatCSV, payroll.FormatXLSX:
			default:
				return fmt.Errorf("--format must be table, csv or xlsx")
			}
			if format == payroll.FormatXLSX && (opts.out == "" || opts.out == "-") {
				return fmt.Errorf("--out is required for xlsx output")
			}
			period, err := opts.period()
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			results, err := svc.Batch(cmd.Context(), period)
			if err != nil {
				return err
			}

			w, closeFn, err := opts.output(cmd)
			if err != nil {
				return err
			}
			if format == "table" {
				err = writeTable(w, results)
			} else {
				err = payroll.WriteRegister(w, format, results)
			}
			if closeErr := closeFn(); err == nil {
				err = closeErr
			}
			return err
		},
	}
	addPeriodFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table, csv or xlsx")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (default stdout)")
	return cmd
}

func newPayslipCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payslip",
		Short: "Render an employee's payslip as PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := opts.period()
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			if _, err := svc.Employee(opts.employeeID); err != nil {
				return err
			}
			w, closeFn, err := opts.output(cmd)
			if err != nil {
				return err
			}
			err = svc.WritePayslip(w, opts.employeeID, period)
			if closeErr := closeFn(); err == nil {
				err = closeErr
			}
			if err == nil && opts.out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "payslip written to %s\n", opts.out)
			}
			return err
		},
	}
	addEmployeeFlag(cmd, opts)
	addPeriodFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.out, "out", "", "output PDF file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newAttendanceCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Show an employee's daily attendance log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := opts.period()
			if err != nil {
				return err
			}
			svc, err := opts.service(cmd)
			if err != nil {
				return err
			}
			entries, err := svc.AttendanceLog(opts.employeeID, period)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tIN\tOUT\tHOURS\tREMARK")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Date.Format(dateLayout), e.TimeIn, e.TimeOut, e.Hours.StringFixed(2), e.Remark)
			}
			return tw.Flush()
		},
	}
	addEmployeeFlag(cmd, opts)
	addPeriodFlags(cmd, opts)
	return cmd
}

func writeResult(w io.Writer, res payroll.Result, workDaysPerMonth int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Employee", fmt.Sprintf("%d %s", res.EmployeeID, res.EmployeeName)},
		{"Position", res.Position},
		{"Period", res.Period.String()},
		{"Hourly rate", fmt.Sprintf("%s (%s)", res.HourlyRate.StringFixed(2), res.RateSource)},
		{"Regular hours", res.RegularHours.StringFixed(2)},
		{"Overtime hours", res.OvertimeHours.StringFixed(2)},
		{"Regular pay", res.RegularPay.StringFixed(2)},
		{"Overtime pay", res.OvertimePay.StringFixed(2)},
		{"Gross pay", res.GrossPay.StringFixed(2)},
		{"Social insurance", res.Deductions.SocialInsurance.StringFixed(2)},
		{"Health insurance", res.Deductions.HealthInsurance.StringFixed(2)},
		{"Housing fund", res.Deductions.HousingFund.StringFixed(2)},
		{"Withholding tax", res.Deductions.WithholdingTax.StringFixed(2)},
		{"Total deductions", res.Deductions.Total.StringFixed(2)},
		{"Allowances", fmt.Sprintf("%s (%d of %d days)", res.Allowances.Total.StringFixed(2), res.Allowances.EffectiveDays, workDaysPerMonth)},
		{"Net pay", res.NetPay.StringFixed(2)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

func writeTable(w io.Writer, results []payroll.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tNAME\tREG HRS\tOT HRS\tGROSS\tDEDUCTIONS\tALLOWANCES\tNET\t")
	for _, res := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			res.EmployeeID,
			res.EmployeeName,
			res.RegularHours.StringFixed(2),
			res.OvertimeHours.StringFixed(2),
			res.GrossPay.StringFixed(2),
			res.Deductions.Total.StringFixed(2),
			res.Allowances.Total.StringFixed(2),
			res.NetPay.StringFixed(2),
		)
	}
	return tw.Flush()
}
