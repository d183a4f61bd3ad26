package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizedText_String(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"spanish preferred", `{"es": "Bombacha", "pt": "Calcinha"}`, "Bombacha"},
		{"plain string", `"Corpiño"`, "Corpiño"},
		{"fallback translation", `{"pt": "Calcinha", "en": "Panties"}`, "Calcinha"},
		{"empty spanish falls back", `{"es": "", "pt": "Calcinha"}`, "Calcinha"},
		{"number", `42`, "42"},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lt LocalizedText
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &lt))
			assert.Equal(t, tt.want, lt.String())
		})
	}
}

func TestLocalizedText_ZeroValue(t *testing.T) {
	var lt LocalizedText
	assert.Equal(t, "", lt.String())

	b, err := json.Marshal(lt)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestRemoteProduct_Decode(t *testing.T) {
	raw := `{
		"id": 77,
		"name": {"es": "Conjunto Encaje"},
		"brand": null,
		"published": true,
		"categories": [{"id": 5, "name": {"es": "CONJUNTOS"}}],
		"images": [],
		"variants": [{"id": 9, "sku": "CJ-1", "price": "12500.00", "stock": null, "values": [{"es": "95"}, {"es": "Nude"}]}]
	}`
	var rp RemoteProduct
	require.NoError(t, json.Unmarshal([]byte(raw), &rp))

	assert.Equal(t, int64(77), rp.ID)
	assert.Equal(t, "Conjunto Encaje", rp.Name.String())
	assert.Nil(t, rp.Brand)
	require.Len(t, rp.Categories, 1)
	assert.Equal(t, int64(5), rp.Categories[0].ID)
	require.Len(t, rp.Variants, 1)
	assert.Nil(t, rp.Variants[0].Stock)
	assert.Equal(t, "95", rp.Variants[0].Values[0].String())
	assert.Equal(t, "Nude", rp.Variants[0].Values[1].String())
}

func TestOrderIsCompleted(t *testing.T) {
	tests := []struct {
		state OrderState
		paid  bool
		want  bool
	}{
		{OrderStateDelivered, true, true},
		{OrderStateEntregado, true, true},
		{OrderStateDelivered, false, false},
		{OrderStateEnviado, true, false},
		{OrderStateCancelado, true, false},
		{OrderStatePendiente, true, false},
	}
	for _, tt := range tests {
		o := Order{State: tt.state, PaidByClient: tt.paid}
		assert.Equal(t, tt.want, o.IsCompleted(), "%s paid=%v", tt.state, tt.paid)
	}
}

func TestFindVariant(t *testing.T) {
	p := NormalizedProduct{Variants: []Variant{{ID: "a", Talle: "M"}, {ID: "b", Talle: "L"}}}
	v, ok := p.FindVariant("b")
	require.True(t, ok)
	assert.Equal(t, "L", v.Talle)

	_, ok = p.FindVariant("z")
	assert.False(t, ok)
}
