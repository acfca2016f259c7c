package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestNormalizer() *NameNormalizer {
	return NewNameNormalizer(DefaultTables())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Caminhão Trucado", "caminhao trucado"},
		{"  HONDA   Biz\t125 ", "honda biz 125"},
		{"Ônibus rodoviário", "onibus rodoviario"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeBrand(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		in   string
		want string
	}{
		{"vw", "VOLKSWAGEN"},
		{"VW", "VOLKSWAGEN"},
		{"gm", "CHEVROLET"},
		{"Mercedes", "MERCEDES-BENZ"},
		{"mercedes-benz", "MERCEDES-BENZ"},
		{"harley", "HARLEY-DAVIDSON"},
		{"royal", "ROYAL ENFIELD"},
		{"bmw motorrad", "BMW"},
		{"Honda", "HONDA"},
		{" fiat ", "FIAT"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, n.NormalizeBrand(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeModel(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		in   string
		want string
	}{
		{"cb300f", "CB 300F"},
		{"cb 300", "CB 300F"},
		{"mt 09", "MT-09"},
		{"mt09", "MT-09"},
		{"ka se", "KA"},
		{"biz125", "BIZ 125"},
		{"gol 1.6", "GOL 1.6"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, n.NormalizeModel(tt.in), "input %q", tt.in)
	}
}

func TestSimplifyVersion(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		in   string
		want string
	}{
		{"GOL 1.6", "GOL"},
		{"HILUX CD 4X4 DIESEL", "HILUX"},
		{"ONIX JOY", "ONIX"},
		{"BIZ 125", "BIZ 125"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, n.SimplifyVersion(tt.in), "input %q", tt.in)
	}
}

func TestBuildVariants(t *testing.T) {
	n := newTestNormalizer()

	t.Run("trim level with version suffix", func(t *testing.T) {
		variants := n.BuildVariants("Ford", "KA SE 1.0 HA B", 2017)

		assert.Equal(t, []string{
			"FORD KA 1.0 HA B 2017",
			"FORD KA HA B 2017",
			"FORD KA HA 2017",
			"FORD KA 2017",
		}, variants)
	})

	t.Run("simple model", func(t *testing.T) {
		variants := n.BuildVariants("Honda", "Biz 125", 2020)

		assert.Equal(t, []string{
			"HONDA BIZ 125 2020",
			"HONDA BIZ 2020",
		}, variants)
	})

	t.Run("brand alias and engine suffix", func(t *testing.T) {
		variants := n.BuildVariants("VW", "Gol 1.6", 2018)

		assert.Equal(t, []string{
			"VOLKSWAGEN GOL 1.6 2018",
			"VOLKSWAGEN GOL 2018",
		}, variants)
	})

	t.Run("brand only", func(t *testing.T) {
		variants := n.BuildVariants("harley", "", 0)
		assert.Equal(t, []string{"HARLEY-DAVIDSON"}, variants)
	})
}

func TestBuildVariantsProperties(t *testing.T) {
	n := newTestNormalizer()

	inputs := []struct {
		brand string
		model string
		year  int
	}{
		{"Ford", "KA SE 1.0 HA B", 2017},
		{"Honda", "Biz 125", 2020},
		{"VW", "Constellation 24.280 6x4", 2015},
		{"toyota", "Hilux CD 4x4 Diesel", 2019},
	}

	for _, in := range inputs {
		variants := n.BuildVariants(in.brand, in.model, in.year)
		assert.NotEmpty(t, variants)

		// No duplicates, case-insensitively.
		seen := map[string]bool{}
		for _, v := range variants {
			key := strings.ToUpper(v)
			assert.False(t, seen[key], "duplicate variant %q", v)
			seen[key] = true
		}

		// Specificity never increases along the sequence.
		prev := len(strings.Fields(variants[0]))
		for _, v := range variants[1:] {
			words := len(strings.Fields(v))
			assert.LessOrEqual(t, words, prev, "variant %q", v)
			prev = words
		}

		// Idempotent for the same input.
		assert.Equal(t, variants, n.BuildVariants(in.brand, in.model, in.year))
	}
}
