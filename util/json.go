package util

import (
	"bytes"
	"encoding/json"
)

// JsonString generate json string for an object
func JsonString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseJson parse json string to an object
func ParseJson(jsonStr string, v interface{}) error {
	return json.Unmarshal([]byte(jsonStr), v)
}

// ParseJsonObject parse a json object into a map, numbers are kept as json.Number
func ParseJsonObject(jsonStr string) (map[string]interface{}, error) {
	ret := make(map[string]interface{})
	if len(bytes.TrimSpace([]byte(jsonStr))) == 0 {
		return ret, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(jsonStr)))
	dec.UseNumber()
	if err := dec.Decode(&ret); err != nil {
		return nil, err
	}
	return ret, nil
}
