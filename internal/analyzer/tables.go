package analyzer

import (
	"regexp"

	"fipe-market-price/internal/model"
)

// Tables holds every rule table the analyzer runs on. Tables are immutable
// after construction and injected into the classifier/extractor, so tests can
// run parallel instances with different rule sets.
type Tables struct {
	// ExclusionTerms force a listing into TipoOutros before anything else
	// (bicycles, consortium titles, heavy machinery with no FIPE table).
	ExclusionTerms []string

	// StrongKeywords map category-exclusive terms straight to a type.
	// Checked in slice order.
	StrongKeywords []KeywordRule

	// ExclusiveBrands lists manufacturers that only produce one category.
	ExclusiveBrands map[model.VehicleType][]string

	// AmbiguousBrands span multiple categories; absent any stronger signal
	// they resolve to the default type below.
	AmbiguousBrands []string

	// AmbiguousBrandDefault is the documented tie-break for ambiguous brands.
	AmbiguousBrandDefault model.VehicleType

	// Model lists checked in fixed order: motos, caminhoes, carros. Model
	// names are the most specific disambiguator for brands that overlap
	// between categories.
	MotoModels  []string
	TruckModels []string
	CarModels   []string

	// CategoryKeywords are weaker signals checked after model lists,
	// in slice order.
	CategoryKeywords []KeywordRule

	// GeneralBrands is the residual brand list scanned last by the
	// attribute extractor.
	GeneralBrands []string

	// FillerWords are skipped when building the model token window.
	FillerWords []string

	// BrandAliases canonicalize shorthand brand spellings to the FIPE
	// catalog's legal name.
	BrandAliases map[string]string

	// ModelRewrites normalize known manufacturer-specific model naming
	// quirks. Applied in order.
	ModelRewrites []RegexRewrite

	// TrimStrips remove version/trim/engine/transmission/drivetrain/fuel
	// suffixes to produce the simplified model. Applied in order.
	TrimStrips []RegexRewrite
}

// KeywordRule maps a list of terms to a vehicle type.
type KeywordRule struct {
	Type  model.VehicleType
	Terms []string
}

// RegexRewrite is one compiled pattern/replacement pair.
type RegexRewrite struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// displacementPattern matches a bare engine displacement with an optional
// "cc" marker, word-bounded. A near-unambiguous motorcycle signal.
var displacementPattern = regexp.MustCompile(
	`(?i)\b(110|125|150|160|190|200|250|300|400|500|600|650|750|800|1000|1100|1200|1300)\s?(?:cc)?\b`)

// DefaultTables returns the hand-tuned rule set for the Brazilian market.
// All terms are matched against normalized text (lowercase, accents stripped).
func DefaultTables() *Tables {
	return &Tables{
		ExclusionTerms: []string{
			"bicicleta", "bike aro", "patinete",
			"carta contemplada", "titulo de consorcio", "consorcio contemplado",
			"empilhadeira", "guindaste", "gerador", "compressor",
			"escavadeira", "pa carregadeira", "motoniveladora",
			"rolo compactador", "retroescavadeira",
		},

		StrongKeywords: []KeywordRule{
			{Type: model.TipoEmbarcacoes, Terms: []string{
				"lancha", "jet ski", "jetski", "embarcacao", "veleiro",
				"iate", "motor de popa", "barco",
			}},
			{Type: model.TipoAeronaves, Terms: []string{
				"aeronave", "aviao", "helicoptero", "ultraleve", "girocoptero",
			}},
		},

		ExclusiveBrands: map[model.VehicleType][]string{
			model.TipoMotos: {
				"yamaha", "kawasaki", "ducati", "harley-davidson", "harley",
				"triumph", "ktm", "royal enfield", "dafra", "shineray",
				"haojue", "kasinski", "mv agusta", "bajaj",
			},
			model.TipoCaminhoes: {
				"scania", "daf", "man", "iveco", "international",
				"freightliner", "kenworth", "sinotruk", "foton", "agrale",
			},
			model.TipoOnibus: {
				"marcopolo", "neobus", "busscar", "mascarello", "comil", "caio",
			},
			model.TipoImplementos: {
				"randon", "librelato", "facchini", "guerra", "noma",
			},
		},

		AmbiguousBrands: []string{
			"honda", "suzuki", "bmw", "volkswagen", "vw", "mercedes-benz",
			"mercedes", "ford", "chevrolet", "gm", "fiat", "volvo", "toyota",
			"hyundai", "nissan", "mitsubishi", "renault", "peugeot",
			"citroen", "kia", "jeep",
		},
		AmbiguousBrandDefault: model.TipoCarros,

		MotoModels: []string{
			"biz", "cg", "titan", "fan", "bros", "xre", "cb", "cbr",
			"hornet", "twister", "pop", "pcx", "elite", "sh 150",
			"factor", "fazer", "ybr", "lander", "tenere", "crosser",
			"mt-03", "mt-07", "mt-09", "xj6", "xtz",
			"ninja", "z300", "z400", "z750", "er6n", "versys",
			"gsx", "bandit", "burgman", "intruder", "boulevard", "vstrom",
			"himalayan", "meteor 350", "classic 350",
			"nmax", "xmax", "gs 500", "g 310",
		},
		TruckModels: []string{
			"constellation", "delivery", "worker", "cargo",
			"atego", "axor", "actros", "accelo", "arocs",
			"stralis", "tector", "daily", "eurocargo", "trakker",
			"fh 440", "fh 460", "fh 540", "fm 370", "fmx",
			"f-350", "f-4000", "f-14000", "f4000", "f350",
			"d-20", "d20", "d-40", "d40", "c-10", "c10",
		},
		CarModels: []string{
			"gol", "golf", "polo", "virtus", "voyage", "fox", "up", "t-cross",
			"saveiro", "amarok", "jetta", "tiguan", "nivus",
			"onix", "prisma", "corsa", "celta", "cruze", "tracker", "s10",
			"montana", "spin", "cobalt", "vectra", "astra",
			"uno", "palio", "siena", "argo", "mobi", "toro", "strada",
			"punto", "bravo", "cronos", "pulse",
			"ka", "fiesta", "focus", "fusion", "ecosport", "ranger", "edge",
			"civic", "city", "fit", "hr-v", "hrv", "wr-v", "crv", "cr-v", "accord",
			"corolla", "etios", "yaris", "hilux", "sw4", "rav4", "camry",
			"hb20", "creta", "tucson", "santa fe", "ix35",
			"march", "versa", "sentra", "kicks", "frontier",
			"l200", "triton", "pajero", "asx", "outlander", "lancer",
			"sandero", "logan", "duster", "kwid", "captur", "oroch", "megane",
			"208", "2008", "3008", "c3", "c4", "aircross",
			"renegade", "compass", "commander", "wrangler",
			"sportage", "sorento", "cerato", "picanto", "soul",
		},

		CategoryKeywords: []KeywordRule{
			{Type: model.TipoImplementos, Terms: []string{
				"carreta", "semirreboque", "semi-reboque", "reboque",
				"bitrem", "rodotrem", "julieta", "dolly", "prancha",
				"graneleiro", "sider", "bau frigorifico",
			}},
			{Type: model.TipoOnibus, Terms: []string{
				"onibus", "micro-onibus", "micro onibus", "microonibus",
				"rodoviario leito",
			}},
			{Type: model.TipoCaminhoes, Terms: []string{
				"caminhao", "caminhonete de carga", "cavalo mecanico",
				"trucado", "truck", "6x2", "6x4", "8x2", "8x4",
				"cacamba", "munck", "basculante", "cesto aereo",
			}},
			{Type: model.TipoMotos, Terms: []string{
				"moto", "motocicleta", "scooter", "ciclomotor",
				"motoneta", "street", "bigtrail",
			}},
			{Type: model.TipoCarros, Terms: []string{
				"carro", "automovel", "sedan", "hatch", "suv",
				"picape", "camioneta", "conversivel", "perua",
			}},
		},

		GeneralBrands: []string{
			"audi", "land rover", "jaguar", "porsche", "subaru", "mini",
			"chery", "caoa chery", "jac", "byd", "gwm", "lifan", "effa",
			"ram", "dodge", "chrysler", "ssangyong", "troller", "lexus",
		},

		FillerWords: []string{
			"carro", "moto", "motocicleta", "caminhao", "onibus",
			"veiculo", "ano", "modelo", "marca", "cor",
		},

		BrandAliases: map[string]string{
			"VW":           "VOLKSWAGEN",
			"GM":           "CHEVROLET",
			"MERCEDES":     "MERCEDES-BENZ",
			"BMW MOTORRAD": "BMW",
			"HARLEY":       "HARLEY-DAVIDSON",
			"ROYAL":        "ROYAL ENFIELD",
		},

		ModelRewrites: []RegexRewrite{
			// Motos Honda
			rewrite(`\bCB\s*(\d+)F?\b`, "CB ${1}F"),
			rewrite(`\bCG\s*(\d+)\b`, "CG $1"),
			rewrite(`\bBIZ\s*(\d+)\b`, "BIZ $1"),
			rewrite(`\bPOP\s*(\d+)I?\b`, "POP $1"),
			rewrite(`\bFAN\s*(\d+)\b`, "FAN $1"),
			// Motos Yamaha
			rewrite(`\bYBR\s*(\d+)\b`, "YBR $1"),
			rewrite(`\bYS\s*(\d+)\b`, "YS $1"),
			rewrite(`\bFZ\s*(\d+)\b`, "FZ $1"),
			rewrite(`\bMT[\-\s]*(\d+)\b`, "MT-$1"),
			rewrite(`\bXTZ\s*(\d+)\b`, "XTZ $1"),
			// Motos Kawasaki
			rewrite(`\bZ\s*(\d+)\b`, "Z $1"),
			// Carros comuns
			rewrite(`\bKA\s+SE\b`, "KA"),
			rewrite(`\bECOSPORT\s+SE\b`, "ECOSPORT"),
			rewrite(`\bONIX\s+\d+MT\b`, "ONIX"),
			rewrite(`\bCORSA\s+(HATCH|SEDAN)\b`, "CORSA $1"),
			// Caminhoes/Pickups
			rewrite(`\bHILUX\s+[A-Z]{4,}\b`, "HILUX"),
			rewrite(`\bRANGER\s+[A-Z]{4,}\b`, "RANGER"),
			rewrite(`\bS10\s+[A-Z]{3,}\b`, "S10"),
			rewrite(`\bSTRADA\s+(HD|ENDURANCE)\b`, "STRADA $1"),
		},

		TrimStrips: []RegexRewrite{
			rewrite(`\s+(AT|MT|CVT|AUT|MAN|MANUAL|AUTOMATICO|AUTOMATICA)\b`, ""),
			rewrite(`\s+\d+\.\d+[BGL]?\b`, ""),
			rewrite(`\s+(4X2|4X4|6X2|6X4)\b`, ""),
			rewrite(`\s+(FLEX|GAS|DIESEL|GASOLINA)\b`, ""),
			rewrite(`\s+(ABS|CBS|EBS)\b`, ""),
			rewrite(`\s+(CD|CS|CE|CABINE)\s*(DUPLA|SIMPLES|ESTENDIDA)?\b`, ""),
			rewrite(`\s+[A-Z]{2,}\d+[A-Z]\d+[A-Z]\b`, ""),
			rewrite(`\s+(EX2?|LX|LTZ?|SL|SR|SE|ST|S|LIFE|JOY)\s*(OFFG4)?\b`, ""),
		},
	}
}

func rewrite(pattern, replacement string) RegexRewrite {
	return RegexRewrite{
		Pattern:     regexp.MustCompile(`(?i)` + pattern),
		Replacement: replacement,
	}
}
