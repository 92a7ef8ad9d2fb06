package customer

import (
	"errors"
	"strconv"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/chararch/chunkbatch"
)

func TestMapLoyaltyTier(t *testing.T) {
	cases := map[string]string{
		"Gold":     "Premium",
		"gold":     "Unknown",
		" Gold":    "Unknown",
		"Silver":   "Standard",
		"Bronze":   "Basic",
		"Platinum": "Elite",
		"PLATINUM": "Unknown",
		"Diamond":  "Unknown",
		"":         "Unknown",
	}
	for tier, want := range cases {
		assert.Equal(t, want, MapLoyaltyTier(tier))
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+1 (555) 010-9999": "15550109999",
		"555.010.9999":      "5550109999",
		"5550109999":        "5550109999",
		"n/a":               "",
	}
	for phone, want := range cases {
		got := NormalizePhone(phone)
		assert.Equal(t, want, got)
		assert.Equal(t, got, NormalizePhone(got))
	}
}

func TestProcessor_Process(t *testing.T) {
	p := &Processor{}
	row := &CsvRow{Id: "42", FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Phone: "+1 555-0101", LoyaltyTier: "Gold"}
	result, err := p.Process(row, &chunkbatch.ChunkContext{})
	assert.Equal(t, nil, err)
	assert.T(t, !result.Filtered())
	assert.Equal(t, &Customer{Id: 42, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Phone: "15550101", NewLoyaltyTier: "Premium"}, result.Item())

	for _, tier := range []string{"UnknownTier", "unknowntier", " UNKNOWNTIER "} {
		result, err = p.Process(&CsvRow{Id: "43", Email: "bob@example.com", LoyaltyTier: tier}, &chunkbatch.ChunkContext{})
		assert.Equal(t, nil, err)
		assert.T(t, result.Filtered())
	}

	result, err = p.Process(&CsvRow{Id: "45", FirstName: " Dan", Email: "dan@example.com", LoyaltyTier: "gold"}, &chunkbatch.ChunkContext{})
	assert.Equal(t, nil, err)
	assert.Equal(t, " Dan", result.Item().(*Customer).FirstName)
	assert.Equal(t, "Unknown", result.Item().(*Customer).NewLoyaltyTier)

	_, err = p.Process(&CsvRow{Id: "44", Email: "not-an-email", LoyaltyTier: "Gold"}, &chunkbatch.ChunkContext{})
	assert.Equal(t, chunkbatch.ErrCodeProcess, err.Code())
	var validationErr *ValidationError
	assert.T(t, errors.As(err, &validationErr))
	assert.Equal(t, "email", validationErr.Field)
	assert.Equal(t, "*customer.ValidationError", chunkbatch.ErrorClass(err))

	_, err = p.Process(&CsvRow{Id: "x1", Email: "c@example.com"}, &chunkbatch.ChunkContext{})
	assert.Equal(t, chunkbatch.ErrCodeProcess, err.Code())
	var numErr *strconv.NumError
	assert.T(t, errors.As(err, &numErr))

	_, err = p.Process("not a row", &chunkbatch.ChunkContext{})
	assert.Equal(t, chunkbatch.ErrCodeProcess, err.Code())
}
