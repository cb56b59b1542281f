// Package ranker routes analysis results to a ranking mode, scores and
// orders alternative candidates with mode-specific weights, and
// partitions the result into presentation buckets. Everything here is
// pure and deterministic: reranking is a re-sort, never a re-fetch.
package ranker

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/affimark/verifier/internal/model"
)

// WeightTable holds the pillar weights for one rank mode. The weights
// are tuning configuration, not a fixed contract; tests parameterize
// over tables rather than pin one interpretation.
type WeightTable struct {
	Viability float64 `yaml:"viability" mapstructure:"viability"`
	Merchant  float64 `yaml:"merchant" mapstructure:"merchant"`
	Economics float64 `yaml:"economics" mapstructure:"economics"`
}

// WeightTables maps rank modes to their weight tables.
type WeightTables map[model.RankMode]WeightTable

// DefaultWeights returns the compiled-in mode weight tables.
func DefaultWeights() WeightTables {
	return WeightTables{
		model.ModeStandard:       {Viability: 0.34, Merchant: 0.33, Economics: 0.33},
		model.ModeDemandFirst:    {Viability: 0.50, Merchant: 0.25, Economics: 0.25},
		model.ModeTrustFirst:     {Viability: 0.25, Merchant: 0.50, Economics: 0.25},
		model.ModeEconomicsFirst: {Viability: 0.25, Merchant: 0.25, Economics: 0.50},
	}
}

// LoadWeights reads mode weight tables from a YAML file, overlaying the
// defaults for any mode the file omits.
func LoadWeights(path string) (WeightTables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ranker: read weights file")
	}

	var overrides map[model.RankMode]WeightTable
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrap(err, "ranker: parse weights file")
	}

	tables := DefaultWeights()
	for mode, table := range overrides {
		if !mode.Valid() {
			return nil, eris.Errorf("ranker: unknown rank mode %q in weights file", mode)
		}
		tables[mode] = table
	}
	return tables, nil
}

// Table returns the weight table for a mode, falling back to standard
// weights for unknown modes.
func (w WeightTables) Table(mode model.RankMode) WeightTable {
	if t, ok := w[mode]; ok {
		return t
	}
	return w[model.ModeStandard]
}
