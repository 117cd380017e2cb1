package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/data"
	"github.com/dgnsrekt/greekslab/internal/output"
	"github.com/dgnsrekt/greekslab/internal/pricing"
)

func convertCmd() *cobra.Command {
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "convert INPUT OUTPUT",
		Short: "Convert a position file between CSV, JSON and JSONL",
		Long: `Convert a position file to JSON or JSONL (JSON Lines) format.

INPUT may be .csv, .json or .jsonl. The output format follows the OUTPUT
extension: .json writes an array, .jsonl writes one contract per line.
The output is written atomically.

Examples:
  greekslab convert positions.csv positions.jsonl`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convertContracts(args[0], args[1], !skipValidation)
		},
	}

	cmd.Flags().BoolVar(&skipValidation, "no-validate", false, "write contracts without validating them")

	return cmd
}

func convertContracts(inPath, outPath string, validate bool) error {
	contracts, err := data.LoadContracts(inPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", inPath, err)
	}
	if validate {
		if err := data.ValidateContracts(contracts); err != nil {
			return err
		}
	}

	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".json":
		write = func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(contracts)
		}
	case ".jsonl":
		write = func(w io.Writer) error { return writeJSONL(w, contracts) }
	default:
		return fmt.Errorf("%w: %s", data.ErrUnsupportedFormat, outPath)
	}

	if err := output.WriteFile(outPath, write); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	logger.Info("conversion complete",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("contracts", len(contracts)),
	)
	return nil
}

// writeJSONL writes each contract as a single compact line.
func writeJSONL(w io.Writer, contracts []pricing.Contract) error {
	enc := json.NewEncoder(w)
	for _, c := range contracts {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}
	return nil
}
