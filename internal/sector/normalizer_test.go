package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_KnownSynonyms(t *testing.T) {
	n := Default()

	tests := []struct {
		label string
		want  string
	}{
		{"Banking", Financials},
		{"  banking  ", Financials},
		{"Basic Materials", Materials},
		{"Tourism", ConsumerDiscretionary},
		{"Health Care", Healthcare},
		{"Information   Technology", Technology},
		{"Real Estate", RealEstate},
		{"Telecommunication Services", Telecommunications},
		{"Food", ConsumerStaples},
		{"Jordan Securities", Financials},
		{"Others", Industrials},
		{"Utilities", Utilities},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.label))
		})
	}
}

func TestNormalize_AmpersandBecomesAnd(t *testing.T) {
	n := New(map[string]string{"oil and gas": Energy}, "")
	assert.Equal(t, Energy, n.Normalize("Oil & Gas"))
	assert.Equal(t, Energy, n.Normalize("OIL  &  GAS"))
}

func TestNormalize_UnknownLabels(t *testing.T) {
	n := Default()
	for _, label := range []string{"", "   ", "Conglomerates", "crypto"} {
		assert.Equal(t, Unknown, n.Normalize(label), "label %q", label)
	}
}

func TestNormalize_IdempotentOnCanonicalBuckets(t *testing.T) {
	n := Default()
	for _, b := range Buckets {
		assert.Equal(t, b, n.Normalize(b))
		assert.Equal(t, b, n.Normalize(n.Normalize(b)))
	}
	assert.Len(t, Buckets, 11)
}

func TestNew_CustomFallback(t *testing.T) {
	n := New(map[string]string{"Banking": Financials}, "Others")
	assert.Equal(t, Financials, n.Normalize("banking"), "table keys are normalized on construction")
	assert.Equal(t, "Others", n.Normalize("mining"))
	assert.Equal(t, "Others", n.Fallback())
}

func TestNew_TableIsCopied(t *testing.T) {
	table := map[string]string{"banking": Financials}
	n := New(table, "")
	table["banking"] = Energy
	table["mining"] = Materials

	assert.Equal(t, Financials, n.Normalize("banking"))
	assert.Equal(t, Unknown, n.Normalize("mining"))
}

func TestWithOverrides(t *testing.T) {
	base := Default()
	n := base.WithOverrides(map[string]string{"Services": ConsumerDiscretionary, "Mining": Materials})

	assert.Equal(t, ConsumerDiscretionary, n.Normalize("services"))
	assert.Equal(t, Materials, n.Normalize("mining"))
	assert.Equal(t, Industrials, base.Normalize("services"), "base normalizer is unchanged")
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(Financials))
	assert.False(t, IsKnown(Unknown))
	assert.False(t, IsKnown(""))
	assert.False(t, IsKnown("N/A"))
	assert.False(t, IsKnown("Others"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "oil and gas", Key("  Oil  &   Gas "))
}
