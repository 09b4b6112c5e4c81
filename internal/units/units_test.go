package units

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownUnits(t *testing.T) {
	cases := []struct {
		unit     string
		price    float64
		wantUnit string
	}{
		{unit: "kg", price: 15000, wantUnit: "gram"},
		{unit: "kilogram", price: 12345.67, wantUnit: "gram"},
		{unit: "liter", price: 18000, wantUnit: "ml"},
		{unit: " KG ", price: 999, wantUnit: "gram"},
	}
	for _, tc := range cases {
		t.Run(tc.unit, func(t *testing.T) {
			conv := Resolve(tc.unit, tc.price)
			require.True(t, conv.IsConverted)
			require.Equal(t, tc.wantUnit, conv.ConvertedUnit)
			require.Equal(t, 1000.0, conv.Multiplier)
			require.InDelta(t, tc.price, conv.ConvertedPrice*conv.Multiplier, 1e-9)
			require.Equal(t, tc.unit, conv.OriginalUnit)
			require.Equal(t, tc.price, conv.OriginalPrice)
		})
	}
}

func TestResolveBaseUnitIsNoop(t *testing.T) {
	conv := Resolve("gram", 25)
	require.False(t, conv.IsConverted)
	require.Equal(t, "gram", conv.ConvertedUnit)
	require.Equal(t, 25.0, conv.ConvertedPrice)
	require.Equal(t, 1.0, conv.Multiplier)

	conv = Resolve("karung", 50000)
	require.False(t, conv.IsConverted)
	require.Equal(t, 1.0, conv.Multiplier)
}

func TestResolveZeroPrice(t *testing.T) {
	conv := Resolve("kg", 0)
	require.True(t, conv.IsConverted)
	require.Zero(t, conv.ConvertedPrice)
}

func TestConvertQuantityKeepsValue(t *testing.T) {
	qty, unit := ConvertQuantity(2.5, "kg")
	require.Equal(t, "gram", unit)
	require.InDelta(t, 2500, qty, 1e-9)

	conv := Resolve("kg", 16000)
	require.InDelta(t, 2.5*16000, qty*conv.ConvertedPrice, 1e-6)

	qty, unit = ConvertQuantity(3, "pcs")
	require.Equal(t, "pcs", unit)
	require.Equal(t, 3.0, qty)
}

func TestIsBaseUnit(t *testing.T) {
	require.True(t, IsBaseUnit("gram"))
	require.True(t, IsBaseUnit("ml"))
	require.False(t, IsBaseUnit("Liter"))
	require.Len(t, Rules(), 4)
}

func TestConvertHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/units", MountRoutes)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"unit":"kg","price":15000,"quantity":2}`)
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/units/convert", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		ConvertedUnit     string  `json:"converted_unit"`
		ConvertedPrice    float64 `json:"converted_price"`
		ConvertedQuantity float64 `json:"converted_quantity"`
		IsConverted       bool    `json:"is_converted"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Equal(t, UnitGram, out.ConvertedUnit)
	require.Equal(t, 15.0, out.ConvertedPrice)
	require.Equal(t, 2000.0, out.ConvertedQuantity)
	require.True(t, out.IsConverted)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/units/convert", strings.NewReader(`{"price":"x"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
