package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"lease_economics/pkg/core/analysis"
	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/config"
	"lease_economics/pkg/core/equivalency"
	"lease_economics/pkg/core/lease"
	"lease_economics/pkg/core/scenario"
	"lease_economics/pkg/core/store"
	"lease_economics/pkg/core/termination"
	"lease_economics/pkg/core/utils"

	"github.com/spf13/cobra"
)

func AnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [lease-file]",
		Short: "Print the annual cashflow and metrics of a lease",
		Long:  `Reads a lease from a JSON or Hjson file and prints its annual cashflow, NPV, effective rent and, when the flows change sign, IRR and payback. Use --json for the full analysis.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			l, err := readLease(args[0], cfg.Engine)
			if err != nil {
				return err
			}

			monthly, _ := cmd.Flags().GetBool("monthly")
			asJSON, _ := cmd.Flags().GetBool("json")
			save, _ := cmd.Flags().GetBool("save")

			res, err := (&analysis.Engine{IncludeMonthly: monthly}).Analyze(l)
			if err != nil {
				return fmt.Errorf("failed to analyze %s: %w", args[0], err)
			}
			if save {
				rec, err := store.NewAnalysisRepo(nil, cfg.Cache.Dir).Save(cmd.Context(), l, *res)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved run %s for lease %s\n", rec.RunID, rec.LeaseID)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printAnalysis(cmd.OutOrStdout(), *res)
			return nil
		},
	}
	cmd.Flags().Bool("monthly", false, "Include the monthly view (with --json)")
	cmd.Flags().Bool("json", false, "Print the full analysis as JSON")
	cmd.Flags().Bool("save", false, "Store the analysis in the file cache")
	return cmd
}

func ScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios [lease-file] [scenarios-file]",
		Short: "Analyze override scenarios against a base lease",
		Long:  `The scenarios file holds a JSON array of {"name", "overrides"} objects. Overrides use lease field names; objects merge and arrays replace.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			base, err := readLease(args[0], cfg.Engine)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read scenarios: %w", err)
			}
			var scenarios []scenario.Scenario
			if _, err := utils.DecodeLenient(string(raw), &scenarios); err != nil {
				return fmt.Errorf("failed to parse scenarios: %w", err)
			}

			topN, _ := cmd.Flags().GetInt("top")
			if topN <= 0 {
				topN = cfg.Engine.DriverTopN
			}
			results, err := scenario.AnalyzeScenariosTopN(cmd.Context(), base, scenarios, topN)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-24s  %16s  %16s  %s\n", "Scenario", "NPV", "Total", "Drivers")
			for _, r := range results {
				fmt.Fprintf(out, "%-24s  %16s  %16s  %s\n", r.Name,
					utils.FormatMoney(r.Analysis.Metrics.NPV),
					utils.FormatMoney(r.Analysis.Metrics.TotalCashflow),
					formatDrivers(r.Drivers))
			}
			return nil
		},
	}
	cmd.Flags().Int("top", 0, "Drivers per scenario (default from config)")
	return cmd
}

func TerminateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminate [lease-file]",
		Short: "Price an early termination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			l, err := readLease(args[0], cfg.Engine)
			if err != nil {
				return err
			}
			dateFlag, _ := cmd.Flags().GetString("date")
			date, err := lease.ParseDate(dateFlag)
			if err != nil {
				return err
			}

			sc := termination.BuildTerminationScenario(l, termination.FeeInput{TerminationDate: date})
			out := cmd.OutOrStdout()
			if !sc.Feasible {
				fmt.Fprintf(out, "Termination on %s is not feasible: %s\n", sc.TerminationDate, sc.Reason)
				return nil
			}
			fmt.Fprintf(out, "Termination date:   %s\n", sc.TerminationDate)
			fmt.Fprintf(out, "Notice deadline:    %s\n", sc.NoticeDeadline)
			fmt.Fprintf(out, "Unamortized costs:  %s\n", utils.FormatMoney(sc.Fee.Unamortized.Total))
			fmt.Fprintf(out, "Penalty:            %s\n", utils.FormatMoney(sc.Fee.Penalty))
			fmt.Fprintf(out, "Fixed fee:          %s\n", utils.FormatMoney(sc.Fee.FixedFee))
			fmt.Fprintf(out, "Termination fee:    %s\n", utils.FormatMoney(sc.Fee.Total))
			fmt.Fprintf(out, "Savings:            %s\n", utils.FormatMoney(sc.Savings))
			fmt.Fprintf(out, "NPV savings:        %s\n", utils.FormatMoney(sc.NPVSavings))
			return nil
		},
	}
	cmd.Flags().String("date", "", "Termination date YYYY-MM-DD (default: earliest option date)")
	return cmd
}

func EquivalencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equivalency [lease-file]",
		Short: "Convert between TI, rent rate, free rent and term",
		Long:  `Kinds: ti_to_rate, rate_to_ti, free_rent_to_rate, rate_to_free_rent, term_extension_to_ti.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			l, err := readLease(args[0], cfg.Engine)
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")
			value, _ := cmd.Flags().GetFloat64("value")

			res, err := equivalency.Convert(l, equivalency.Kind(kind), value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s(%g) = %.4f at %.2f%%\n", res.Kind, res.Input, res.Output, res.DiscountRate*100)
			return nil
		},
	}
	cmd.Flags().String("kind", string(equivalency.DefaultEquivalency), "Conversion kind")
	cmd.Flags().Float64("value", 0, "Input value")
	return cmd
}

func ListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List analyses saved in the file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			list, err := store.NewAnalysisRepo(nil, cfg.Cache.Dir).List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-36s  %-30s  %s\n", "Lease", "Name", "Saved")
			for _, s := range list {
				fmt.Fprintf(out, "%-36s  %-30s  %s\n", s.LeaseID, s.LeaseName, s.SavedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// Helpers

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath
	}
	return config.Load(path)
}

// readLease parses a lease file and fills a missing discount rate, and missing
// termination option interest rates, from the config.
func readLease(path string, cfg config.EngineConfig) (lease.LeaseDescription, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return lease.LeaseDescription{}, fmt.Errorf("failed to read lease: %w", err)
	}
	l, err := lease.Parse(raw)
	if err != nil {
		return lease.LeaseDescription{}, err
	}
	if l.DiscountRate == nil {
		rate := cfg.DiscountRate
		l.DiscountRate = &rate
	}
	for i := range l.Options {
		if l.Options[i].Type == lease.OptionTermination && l.Options[i].InterestRate == nil {
			rate := cfg.AmortizationRate
			l.Options[i].InterestRate = &rate
		}
	}
	return l, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, res analysis.LeaseAnalysis) {
	fmt.Fprintf(w, "%s (%s)\n\n", res.LeaseName, res.LeaseID)
	fmt.Fprintf(w, "%-8s  %14s  %14s  %14s  %14s  %14s\n", "Period", "Base rent", "Operating", "Abatement", "One-time", "Net")
	rows := append(append([]cashflow.Line(nil), res.Cashflow...), res.Totals)
	for _, l := range rows {
		fmt.Fprintf(w, "%-8s  %14s  %14s  %14s  %14s  %14s\n", l.Period,
			utils.FormatMoney(l.BaseRent),
			utils.FormatMoney(l.Operating),
			utils.FormatMoney(l.AbatementCredit),
			utils.FormatMoney(l.TIShortfall+l.TransactionCosts),
			utils.FormatMoney(l.NetCashFlow))
	}

	m := res.Metrics
	fmt.Fprintf(w, "\nNPV @ %.2f%%:        %s\n", m.DiscountRate*100, utils.FormatMoney(m.NPV))
	fmt.Fprintf(w, "Effective rent PSF: %s\n", utils.FormatMoney(m.EffectiveRentPSF))
	if m.IRR != nil {
		fmt.Fprintf(w, "IRR:                %.4f%%\n", *m.IRR*100)
	}
	if m.PaybackPeriod != nil {
		fmt.Fprintf(w, "Payback (periods):  %.2f\n", *m.PaybackPeriod)
	}
	fmt.Fprintf(w, "Landlord concessions: %s\n", utils.FormatMoney(res.Concessions.TotalConcessions))
}

func formatDrivers(drivers []scenario.Driver) string {
	s := ""
	for i, d := range drivers {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s %s", d.Bucket, utils.FormatMoney(d.Delta))
	}
	return s
}
