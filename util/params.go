package util

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// MD5 calculate md5 for a string
func MD5(str string) string {
	b := md5.Sum([]byte(str))
	return fmt.Sprintf("%x", b)
}

// ParseKeyValues parse "key=value" pairs, later pairs override earlier ones
func ParseKeyValues(pairs []string) (map[string]interface{}, error) {
	ret := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			return nil, errors.Errorf("invalid key=value pair: %q", pair)
		}
		ret[strings.TrimSpace(pair[:idx])] = strings.TrimSpace(pair[idx+1:])
	}
	return ret, nil
}
