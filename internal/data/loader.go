package data

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgnsrekt/greekslab/internal/pricing"
	"github.com/dgnsrekt/greekslab/internal/volsurface"
)

var (
	ErrNotFound          = errors.New("data not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing csv column")
)

// Snapshot is a dated portfolio used for P&L attribution.
type Snapshot struct {
	AsOf      string             `json:"as_of"`
	Contracts []pricing.Contract `json:"contracts"`
}

var contractColumns = []string{"ticker", "type", "spot", "strike", "maturity", "volatility", "rate", "quantity"}

var volPointColumns = []string{"strike", "maturity", "volatility"}

// LoadContracts reads positions from .json, .jsonl or .csv. A JSON file may
// hold a bare array or an object with a "contracts" field.
func LoadContracts(path string) ([]pricing.Contract, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeContracts(raw)
	case ".jsonl":
		return decodeJSONL[pricing.Contract](bytes.NewReader(raw))
	case ".csv":
		return decodeContractsCSV(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// DecodeContracts accepts a JSON array of contracts or {"contracts": [...]}.
func DecodeContracts(raw []byte) ([]pricing.Contract, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var contracts []pricing.Contract
		if err := json.Unmarshal(raw, &contracts); err != nil {
			return nil, fmt.Errorf("decoding contracts: %w", err)
		}
		return contracts, nil
	}

	var wrapped struct {
		Contracts []pricing.Contract `json:"contracts"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding contracts: %w", err)
	}
	return wrapped.Contracts, nil
}

// LoadSnapshot reads {"as_of": "YYYY-MM-DD", "contracts": [...]}.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// LoadVolPoints reads (strike, maturity, volatility) samples from .json, .jsonl or .csv.
func LoadVolPoints(path string) ([]volsurface.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var points []volsurface.Point
		if err := json.NewDecoder(f).Decode(&points); err != nil {
			return nil, fmt.Errorf("decoding vol points: %w", err)
		}
		return points, nil
	case ".jsonl":
		return decodeJSONL[volsurface.Point](f)
	case ".csv":
		return decodeVolPointsCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func decodeJSONL[T any](r io.Reader) ([]T, error) {
	var out []T
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		out = append(out, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// csvTable maps lower-cased header names to column positions.
type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readCSV(r io.Reader, required []string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return &csvTable{}, nil
	}

	t := &csvTable{cols: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		t.cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := t.cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return t, nil
}

func (t *csvTable) float(row []string, line int, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(row[t.cols[name]]), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: %w", line, name, err)
	}
	return v, nil
}

func decodeContractsCSV(r io.Reader) ([]pricing.Contract, error) {
	t, err := readCSV(r, contractColumns)
	if err != nil {
		return nil, err
	}

	contracts := make([]pricing.Contract, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		typ, err := pricing.ParseOptionType(row[t.cols["type"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c := pricing.Contract{Ticker: strings.TrimSpace(row[t.cols["ticker"]]), Type: typ}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"spot", &c.Spot}, {"strike", &c.Strike}, {"maturity", &c.Maturity},
			{"volatility", &c.Volatility}, {"rate", &c.Rate}, {"quantity", &c.Quantity},
		}
		for _, f := range fields {
			if *f.dst, err = t.float(row, line, f.name); err != nil {
				return nil, err
			}
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

func decodeVolPointsCSV(r io.Reader) ([]volsurface.Point, error) {
	t, err := readCSV(r, volPointColumns)
	if err != nil {
		return nil, err
	}

	points := make([]volsurface.Point, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		var p volsurface.Point
		if p.Strike, err = t.float(row, line, "strike"); err != nil {
			return nil, err
		}
		if p.Maturity, err = t.float(row, line, "maturity"); err != nil {
			return nil, err
		}
		if p.Volatility, err = t.float(row, line, "volatility"); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
