package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fipe-market-price/internal/model"
)

func newTestClassifier() *TypeClassifier {
	return NewTypeClassifier(DefaultTables())
}

func TestClassifyCascade(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		text string
		want model.VehicleType
	}{
		{"empty input defaults to carros", "", model.TipoCarros},
		{"bicycle excluded", "Bicicleta Caloi aro 29 shimano", model.TipoOutros},
		{"heavy machinery excluded", "Empilhadeira Hyster 2.5t", model.TipoOutros},
		{"watercraft strong keyword", "Lancha Focker 242 com carreta", model.TipoEmbarcacoes},
		{"aircraft strong keyword", "Aviao monomotor Cessna 172", model.TipoAeronaves},
		{"displacement with cc marker", "Vendo CG 160cc muito nova", model.TipoMotos},
		{"bare displacement", "Yamaha Factor 150", model.TipoMotos},
		{"exclusive moto brand", "Kawasaki Versys em otimo estado", model.TipoMotos},
		{"exclusive truck brand", "Scania R450 6x4", model.TipoCaminhoes},
		{"exclusive bus brand", "Marcopolo Paradiso G7", model.TipoOnibus},
		{"exclusive implement brand", "Randon bitrem graneleiro", model.TipoImplementos},
		{"moto model beats ambiguous brand", "Honda Bros esd", model.TipoMotos},
		{"truck model", "VW Constellation 24.280", model.TipoCaminhoes},
		{"car model beats ambiguous brand", "Volkswagen Gol 1.6", model.TipoCarros},
		{"implement keyword", "Semirreboque basculante 3 eixos", model.TipoImplementos},
		{"bus keyword", "Onibus rodoviario 46 lugares", model.TipoOnibus},
		{"truck keyword", "Cavalo mecanico ano 2012", model.TipoCaminhoes},
		{"moto keyword", "Scooter eletrica nova", model.TipoMotos},
		{"car keyword", "Sedan completo unico dono", model.TipoCarros},
		{"ambiguous brand without signal", "Ford Something 2019", model.TipoCarros},
		{"unknown text defaults to carros", "oportunidade imperdivel", model.TipoCarros},
		{"accented truck keyword", "Caminhão trucado", model.TipoCaminhoes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier()

	inputs := []string{
		"",
		"Honda Biz 125 2020",
		"Volvo FH 540 6x4",
		"qualquer texto sem sinal nenhum",
	}

	for _, text := range inputs {
		first := c.Classify(text)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.Classify(text), "input %q", text)
		}
	}
}

func TestClassifyWithRuleReportsStage(t *testing.T) {
	c := newTestClassifier()

	tipo, rule := c.ClassifyWithRule("Yamaha Factor 150")
	assert.Equal(t, model.TipoMotos, tipo)
	assert.Equal(t, "displacement", rule)

	tipo, rule = c.ClassifyWithRule("Ford Something 2019")
	assert.Equal(t, model.TipoCarros, tipo)
	assert.Equal(t, "ambiguous_brand", rule)

	tipo, rule = c.ClassifyWithRule("")
	assert.Equal(t, model.TipoCarros, tipo)
	assert.Equal(t, "default", rule)
}

func TestClassifyDisplacementBoundaries(t *testing.T) {
	c := newTestClassifier()

	// 4-digit years and embedded numbers must not read as displacements.
	assert.Equal(t, model.TipoCarros, c.Classify("Ford Something 2019"))
	assert.Equal(t, model.TipoCarros, c.Classify("Fiat Cronos 12500 km"))

	// Displacement wins even when an ambiguous car brand is present.
	assert.Equal(t, model.TipoMotos, c.Classify("Honda 250 twister vermelha"))
}

func TestClassifyCustomTables(t *testing.T) {
	tables := &Tables{
		ExclusionTerms:        []string{"sucata"},
		AmbiguousBrands:       []string{"acme"},
		AmbiguousBrandDefault: model.TipoCaminhoes,
	}
	c := NewTypeClassifier(tables)

	assert.Equal(t, model.TipoOutros, c.Classify("sucata de ferro"))
	assert.Equal(t, model.TipoCaminhoes, c.Classify("acme 9000"))
	assert.Equal(t, model.TipoCarros, c.Classify("sem regra nenhuma"))
}
