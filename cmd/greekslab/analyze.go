package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/attribution"
	"github.com/dgnsrekt/greekslab/internal/data"
	"github.com/dgnsrekt/greekslab/internal/notify"
	"github.com/dgnsrekt/greekslab/internal/output"
	"github.com/dgnsrekt/greekslab/internal/portfolio"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/scenario"
	"github.com/dgnsrekt/greekslab/internal/tradingcal"
)

// loadPortfolio reads, validates and values a position file.
func loadPortfolio(path string) (*portfolio.Portfolio, error) {
	contracts, err := data.LoadContracts(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := data.ValidateContracts(contracts); err != nil {
		return nil, err
	}
	p := portfolio.Aggregate(contracts)
	logger.Debug("portfolio loaded", zap.String("file", path), zap.Int("positions", p.Len()))
	return p, nil
}

// emit writes v as JSON to out when set, otherwise renders the table.
func emit(out string, v any, table func() error) error {
	if out == "" {
		return table()
	}
	if err := output.WriteJSON(out, v); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	logger.Info("wrote result", zap.String("file", out))
	return nil
}

func priceCmd() *cobra.Command {
	var (
		contract pricing.Contract
		optType  string
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single European option",
		Long: `Price a single European option with Black-Scholes and print its Greeks.

Examples:
  greekslab price --type call --spot 100 --strike 100 --maturity 1 --vol 0.2 --rate 0.05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := pricing.ParseOptionType(optType)
			if err != nil {
				return err
			}
			contract.Type = t
			if err := data.ValidateContracts([]pricing.Contract{contract}); err != nil {
				return err
			}

			p := portfolio.Aggregate([]pricing.Contract{contract})
			if err := writePortfolio(os.Stdout, p); err != nil {
				return err
			}
			fmt.Printf("theta/day: %s\n", round(p.Positions[0].Greeks.PerDayTheta(), greekPlaces))
			return nil
		},
	}

	cmd.Flags().StringVar(&contract.Ticker, "ticker", "OPT", "label for the contract")
	cmd.Flags().StringVar(&optType, "type", "call", "option type (call or put)")
	cmd.Flags().Float64Var(&contract.Spot, "spot", 0, "underlying price")
	cmd.Flags().Float64Var(&contract.Strike, "strike", 0, "strike price")
	cmd.Flags().Float64Var(&contract.Maturity, "maturity", 0, "time to expiry in years")
	cmd.Flags().Float64Var(&contract.Volatility, "vol", 0, "annualized volatility (0.2 = 20%)")
	cmd.Flags().Float64Var(&contract.Rate, "rate", 0, "risk-free rate (0.05 = 5%)")
	cmd.Flags().Float64Var(&contract.Quantity, "qty", 1, "position size")
	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("strike")
	_ = cmd.MarkFlagRequired("maturity")
	_ = cmd.MarkFlagRequired("vol")

	return cmd
}

func portfolioCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "portfolio FILE",
		Short: "Value a portfolio and aggregate its Greeks",
		Long: `Value every position in FILE (.json, .jsonl or .csv) and print the
quantity-weighted totals.

Examples:
  greekslab portfolio positions.csv
  greekslab portfolio positions.json --out valued.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPortfolio(args[0])
			if err != nil {
				return err
			}
			return emit(out, p, func() error { return writePortfolio(os.Stdout, p) })
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON result to this file")

	return cmd
}

func stressCmd() *cobra.Command {
	var (
		preset string
		custom scenario.StressScenario
		alert  bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "stress FILE",
		Short: "Run stress scenarios against a portfolio",
		Long: `Revalue the portfolio in FILE under shocked market conditions.

With no scenario flags every built-in preset is run. Use --preset to pick
one, or --spot-pct/--vol-pct/--rate-shift for a custom shock.

Examples:
  greekslab stress positions.csv
  greekslab stress positions.csv --preset crash
  greekslab stress positions.csv --spot-pct -15 --vol-pct 40 --alert`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadPortfolio(args[0])
			if err != nil {
				return err
			}

			var scenarios []scenario.StressScenario
			custom.Name = "custom"
			switch {
			case preset != "":
				s, err := scenario.Lookup(preset)
				if err != nil {
					return err
				}
				scenarios = append(scenarios, s)
			case cmd.Flags().Changed("spot-pct") || cmd.Flags().Changed("vol-pct") || cmd.Flags().Changed("rate-shift"):
				scenarios = append(scenarios, custom)
			default:
				scenarios = scenario.Presets()
			}

			var notifier notify.Notifier = &notify.NoopNotifier{}
			if alert {
				notifier = notify.New(notify.FromConfig(cfg.Notify), logger)
			}

			impacts := make([]*scenario.Impact, 0, len(scenarios))
			for _, s := range scenarios {
				impact := scenario.RunStress(base, s)
				impacts = append(impacts, impact)

				sent, err := notifier.SendStressBreach(cmd.Context(), impact)
				if err != nil {
					logger.Warn("failed to send stress alert", zap.String("scenario", s.Name), zap.Error(err))
				} else if sent {
					logger.Info("stress alert sent", zap.String("scenario", s.Name), zap.Float64("pnlPct", impact.PnLPct))
				}
			}

			return emit(out, impacts, func() error {
				for i, impact := range impacts {
					if i > 0 {
						fmt.Println()
					}
					if err := writeImpact(os.Stdout, impact); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", "built-in scenario name")
	cmd.Flags().Float64Var(&custom.SpotPctChange, "spot-pct", 0, "spot change in percent")
	cmd.Flags().Float64Var(&custom.VolPctChange, "vol-pct", 0, "volatility change in percent")
	cmd.Flags().Float64Var(&custom.RateShiftBps, "rate-shift", 0, "rate shift (divided by 100 before adding)")
	cmd.Flags().BoolVar(&alert, "alert", false, "send an ntfy alert when the loss threshold is breached")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON result to this file")
	cmd.MarkFlagsMutuallyExclusive("preset", "spot-pct")
	cmd.MarkFlagsMutuallyExclusive("preset", "vol-pct")
	cmd.MarkFlagsMutuallyExclusive("preset", "rate-shift")

	return cmd
}

func tuneCmd() *cobra.Command {
	var (
		tuning scenario.TuningParams
		out    string
	)

	cmd := &cobra.Command{
		Use:   "tune FILE",
		Short: "Revalue a portfolio with scaled volatility and time decay",
		Long: `Apply a volatility multiplier, time decay and rate shift to every
position in FILE and compare against the untouched portfolio.

Examples:
  greekslab tune positions.csv --vol-mult 1.2 --decay-days 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tuning.VolatilityMultiplier < 0 {
				return fmt.Errorf("--vol-mult must be >= 0")
			}
			if tuning.TimeDecayDays < 0 {
				return fmt.Errorf("--decay-days must be >= 0")
			}
			w := cfg.WhatIf
			if tuning.VolatilityMultiplier < w.MinVolMultiplier || tuning.VolatilityMultiplier > w.MaxVolMultiplier {
				logger.Warn("volatility multiplier outside what-if bounds",
					zap.Float64("value", tuning.VolatilityMultiplier),
					zap.Float64("min", w.MinVolMultiplier),
					zap.Float64("max", w.MaxVolMultiplier),
				)
			}

			base, err := loadPortfolio(args[0])
			if err != nil {
				return err
			}
			impact := scenario.RunTuning(base, tuning)
			return emit(out, impact, func() error { return writeImpact(os.Stdout, impact) })
		},
	}

	cmd.Flags().Float64Var(&tuning.VolatilityMultiplier, "vol-mult", 1, "volatility multiplier")
	cmd.Flags().Float64Var(&tuning.TimeDecayDays, "decay-days", 0, "calendar days to roll forward")
	cmd.Flags().Float64Var(&tuning.RateShiftBps, "rate-shift", 0, "rate shift (divided by 100 before adding)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON result to this file")

	return cmd
}

type attributionResult struct {
	Previous    string                   `json:"previous"`
	Current     string                   `json:"current"`
	ElapsedDays float64                  `json:"elapsed_days"`
	TradingDays *int                     `json:"trading_days,omitempty"`
	Attribution *attribution.Attribution `json:"attribution"`
}

func attributeCmd() *cobra.Command {
	var (
		dir         string
		elapsedDays float64
		out         string
	)

	cmd := &cobra.Command{
		Use:   "attribute [PREVIOUS CURRENT]",
		Short: "Explain the P&L between two portfolio snapshots",
		Long: `Break the value change between two snapshots into delta, gamma, theta,
vega and rho contributions plus an unexplained residual.

Snapshots are {"as_of": "YYYY-MM-DD", "contracts": [...]} files. Elapsed time
comes from the as_of dates (or YYYY-MM-DD.json file names) unless
--elapsed-days is given. With --dir the two latest dated snapshots in the
directory are used.

Examples:
  greekslab attribute 2025-11-13.json 2025-11-14.json
  greekslab attribute --dir snapshots
  greekslab attribute prev.json cur.json --elapsed-days 3`,
		Args: func(cmd *cobra.Command, args []string) error {
			if dir != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			prevPath, curPath := "", ""
			if dir != "" {
				var err error
				prevPath, curPath, err = data.LatestSnapshots(dir)
				if err != nil {
					return err
				}
			} else {
				prevPath, curPath = args[0], args[1]
			}

			prev, err := loadSnapshot(prevPath)
			if err != nil {
				return err
			}
			cur, err := loadSnapshot(curPath)
			if err != nil {
				return err
			}

			result := attributionResult{Previous: prevPath, Current: curPath}
			if cmd.Flags().Changed("elapsed-days") {
				if elapsedDays < 0 {
					return fmt.Errorf("--elapsed-days must be >= 0")
				}
				result.ElapsedDays = elapsedDays
			} else {
				days, sessions, err := elapsedBetween(tradingcal.New(), prev.AsOf, cur.AsOf)
				if err != nil {
					return err
				}
				result.ElapsedDays = days
				result.TradingDays = &sessions
			}

			attr, err := attribution.Attribute(portfolio.Aggregate(cur.Contracts), portfolio.Aggregate(prev.Contracts), result.ElapsedDays)
			if err != nil {
				return err
			}
			result.Attribution = attr

			logger.Info("attribution complete",
				zap.String("previous", prevPath),
				zap.String("current", curPath),
				zap.Float64("total", attr.Total),
				zap.Float64("unexplained", attr.Unexplained),
			)

			return emit(out, result, func() error {
				return writeAttribution(os.Stdout, attr, result.ElapsedDays, result.TradingDays)
			})
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "use the two latest YYYY-MM-DD.json snapshots in this directory")
	cmd.Flags().Float64Var(&elapsedDays, "elapsed-days", 0, "override elapsed calendar days")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON result to this file")

	return cmd
}

var errNoSnapshotDate = errors.New("snapshot has no as_of date")

// loadSnapshot validates a snapshot and falls back to the file name for a
// missing as_of date.
func loadSnapshot(path string) (*data.Snapshot, error) {
	snap, err := data.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if snap.AsOf == "" {
		snap.AsOf = data.SnapshotDate(path)
	}
	if err := data.ValidateContracts(snap.Contracts); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// elapsedBetween returns calendar days and NYSE sessions between two
// snapshot dates, warning when either date is not a trading day.
func elapsedBetween(cal *tradingcal.Calendar, from, to string) (float64, int, error) {
	if from == "" || to == "" {
		return 0, 0, fmt.Errorf("%w: pass --elapsed-days", errNoSnapshotDate)
	}
	for _, date := range []string{from, to} {
		ok, err := cal.IsTradingDay(date)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			logger.Warn("snapshot date is not an NYSE trading day", zap.String("date", date))
		}
	}
	days, err := cal.ElapsedDays(from, to)
	if err != nil {
		return 0, 0, err
	}
	sessions, err := cal.TradingDaysBetween(from, to)
	if err != nil {
		return 0, 0, err
	}
	return days, sessions, nil
}
