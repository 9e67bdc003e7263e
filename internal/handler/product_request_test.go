package handler

import (
	"encoding/json"
	"testing"

	"textile-store/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *decimal.Decimal
		wantErr  bool
	}{
		{name: "Absent", raw: ""},
		{name: "Null", raw: "null"},
		{name: "Empty string", raw: `""`},
		{name: "Number", raw: "1299.50", expected: ptr(decimal.RequireFromString("1299.50"))},
		{name: "Numeric string", raw: `"750"`, expected: ptr(decimal.NewFromInt(750))},
		{name: "Zero", raw: "0", expected: ptr(decimal.Zero)},
		{name: "Text", raw: `"cheap"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmountJSON("price", json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "price: must be a number", err.Error())
				return
			}
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.expected.Equal(*got), "got %s", got)
		})
	}
}

func TestParseSizesJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *[]string
		wantErr  bool
	}{
		{name: "Absent", raw: ""},
		{name: "Array", raw: `["S","M","L"]`, expected: &[]string{"S", "M", "L"}},
		{name: "Encoded array", raw: `"[\"Free\"]"`, expected: &[]string{"Free"}},
		{name: "Comma separated", raw: `"S,M"`, expected: &[]string{"S", "M"}},
		{name: "Blank string clears", raw: `"  "`, expected: &[]string{}},
		{name: "Number", raw: `7`, wantErr: true},
		{name: "Broken encoded array", raw: `"[\"S\""`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSizesJSON(json.RawMessage(tt.raw))
			if tt.wantErr {
				var domainErr *model.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, model.ErrCodeInvalidField, domainErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseStringList(t *testing.T) {
	list, err := parseStringList("additionalImagesData", json.RawMessage(`["a","b"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	list, err = parseStringList("additionalImagesData", json.RawMessage(`"a"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, list)

	list, err = parseStringList("additionalImagesData", json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, list)

	_, err = parseStringList("additionalImagesData", json.RawMessage(`{"a":1}`))
	assert.Error(t, err)
}

func TestProductRequest_Input(t *testing.T) {
	price := decimal.NewFromInt(750)
	mrp := decimal.NewFromInt(1000)
	offer := decimal.NewFromInt(10)

	tests := []struct {
		name          string
		req           productRequest
		expectedOffer decimal.Decimal
	}{
		{name: "Offer derived", req: productRequest{price: &price, mrp: &mrp}, expectedOffer: decimal.NewFromInt(25)},
		{name: "Offer given", req: productRequest{price: &price, mrp: &mrp, offerPercentage: &offer}, expectedOffer: offer},
		{name: "No MRP", req: productRequest{price: &price}, expectedOffer: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.req.input()
			assert.True(t, tt.expectedOffer.Equal(input.OfferPercentage), "got %s", input.OfferPercentage)
		})
	}
}

func TestProductRequest_PatchDoesNotDeriveOffer(t *testing.T) {
	price := decimal.NewFromInt(750)
	mrp := decimal.NewFromInt(1000)

	patch := (&productRequest{price: &price, mrp: &mrp}).patch()

	assert.Nil(t, patch.OfferPercentage)
	assert.Equal(t, &price, patch.Price)
}

func ptr[T any](v T) *T {
	return &v
}
