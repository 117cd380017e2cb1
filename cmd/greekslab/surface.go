package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/data"
	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/surface"
	"github.com/dgnsrekt/greekslab/internal/volsurface"
)

func surfaceCmd() *cobra.Command {
	var (
		template   pricing.Contract
		optType    string
		measure    string
		strikes    surface.Range
		maturities surface.Range
		resolution int
		out        string
	)

	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Sample a price or Greek over a strike × maturity grid",
		Long: `Sample one measure (price, delta, gamma, theta, vega or rho) of a template
contract across a grid of strikes and maturities. Grid bounds default to
the surface section of the config.

Examples:
  greekslab surface --spot 100 --vol 0.2 --rate 0.05 --measure gamma
  greekslab surface --spot 100 --vol 0.2 --measure vega --resolution 80 --out vega.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := pricing.ParseOptionType(optType)
			if err != nil {
				return err
			}
			m, err := surface.ParseMeasure(measure)
			if err != nil {
				return err
			}
			template.Type = t
			template.Strike = template.Spot
			template.Maturity = cfg.Surface.MaturityMin

			sc := cfg.Surface
			req := surface.Request{
				Template:   template,
				Measure:    m,
				Strikes:    surface.Range{Min: template.Spot * sc.StrikeLowPct, Max: template.Spot * sc.StrikeHighPct},
				Maturities: surface.Range{Min: sc.MaturityMin, Max: sc.MaturityMax},
				Resolution: sc.Resolution,
				Workers:    sc.Workers,
			}
			if cmd.Flags().Changed("strike-min") {
				req.Strikes.Min = strikes.Min
			}
			if cmd.Flags().Changed("strike-max") {
				req.Strikes.Max = strikes.Max
			}
			if cmd.Flags().Changed("maturity-min") {
				req.Maturities.Min = maturities.Min
			}
			if cmd.Flags().Changed("maturity-max") {
				req.Maturities.Max = maturities.Max
			}
			if cmd.Flags().Changed("resolution") {
				req.Resolution = resolution
			}

			if err := data.ValidateContracts([]pricing.Contract{template}); err != nil {
				return err
			}

			logger.Debug("sampling surface",
				zap.String("measure", string(m)),
				zap.Int("resolution", req.Resolution),
				zap.Int("workers", req.Workers),
			)

			s, err := surface.Sample(cmd.Context(), req)
			if err != nil {
				return err
			}
			return emit(out, s, func() error { return writeSurfaceStats(os.Stdout, s) })
		},
	}

	cmd.Flags().StringVar(&template.Ticker, "ticker", "OPT", "label for the template contract")
	cmd.Flags().StringVar(&optType, "type", "call", "option type (call or put)")
	cmd.Flags().Float64Var(&template.Spot, "spot", 0, "underlying price")
	cmd.Flags().Float64Var(&template.Volatility, "vol", 0, "annualized volatility")
	cmd.Flags().Float64Var(&template.Rate, "rate", 0, "risk-free rate")
	cmd.Flags().Float64Var(&template.Quantity, "qty", 1, "position size")
	cmd.Flags().StringVarP(&measure, "measure", "m", string(surface.MeasurePrice), "price, delta, gamma, theta, vega or rho")
	cmd.Flags().Float64Var(&strikes.Min, "strike-min", 0, "lowest strike (default from config)")
	cmd.Flags().Float64Var(&strikes.Max, "strike-max", 0, "highest strike (default from config)")
	cmd.Flags().Float64Var(&maturities.Min, "maturity-min", 0, "shortest maturity in years (default from config)")
	cmd.Flags().Float64Var(&maturities.Max, "maturity-max", 0, "longest maturity in years (default from config)")
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 0, "points per axis (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON result to this file")
	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("vol")

	return cmd
}

func volSurfaceCmd() *cobra.Command {
	var (
		strike   float64
		maturity float64
		out      string
	)

	cmd := &cobra.Command{
		Use:   "volsurface FILE",
		Short: "Build a volatility surface and interpolate a point",
		Long: `Build a strike × maturity volatility grid from the samples in FILE
(.json, .jsonl or .csv with strike, maturity and volatility columns) and
bilinearly interpolate the volatility at --strike/--maturity.

Examples:
  greekslab volsurface vols.csv --strike 105 --maturity 0.75
  greekslab volsurface vols.jsonl --out grid.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := data.LoadVolPoints(args[0])
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}
			grid, err := volsurface.Build(points)
			if err != nil {
				return err
			}
			if grid.Missing > 0 {
				logger.Warn("volatility grid has unfilled cells",
					zap.Int("missing", grid.Missing),
					zap.Int("strikes", len(grid.Strikes)),
					zap.Int("maturities", len(grid.Maturities)),
				)
			}

			if out != "" {
				if err := emit(out, grid, nil); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("strike") || !cmd.Flags().Changed("maturity") {
				if out == "" {
					fmt.Printf("grid: %d maturities × %d strikes (%d missing)\n", len(grid.Maturities), len(grid.Strikes), grid.Missing)
				}
				return nil
			}

			fmt.Printf("volatility at strike %s, maturity %s: %s\n",
				round(strike, moneyPlaces),
				round(maturity, greekPlaces),
				round(grid.Query(strike, maturity), greekPlaces),
			)
			return nil
		},
	}

	cmd.Flags().Float64Var(&strike, "strike", 0, "strike to interpolate")
	cmd.Flags().Float64Var(&maturity, "maturity", 0, "maturity in years to interpolate")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the built grid as JSON to this file")
	cmd.MarkFlagsRequiredTogether("strike", "maturity")

	return cmd
}
