package util

import (
	"encoding/json"
	"testing"

	"github.com/bmizerany/assert"
)

func TestParseJsonObject(t *testing.T) {
	m, err := ParseJsonObject(`{"date":"2024-05-01","rand":12}`)
	assert.Equal(t, nil, err)
	assert.Equal(t, "2024-05-01", m["date"])
	assert.Equal(t, json.Number("12"), m["rand"])

	m, err = ParseJsonObject("  ")
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(m))

	_, err = ParseJsonObject("[1,2]")
	assert.NotEqual(t, nil, err)
}

func TestParseKeyValues(t *testing.T) {
	m, err := ParseKeyValues([]string{"date=2024-05-01", " source = crm ", "date=2024-05-02"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "2024-05-02", m["date"])
	assert.Equal(t, "crm", m["source"])

	_, err = ParseKeyValues([]string{"=x"})
	assert.NotEqual(t, nil, err)
	_, err = ParseKeyValues([]string{"novalue"})
	assert.NotEqual(t, nil, err)
}

func TestMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", MD5(""))
}
