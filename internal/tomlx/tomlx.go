// Package tomlx reads TOML configuration files owned by other programs.
//
// The provisioner never writes the web application's settings file; it only
// inspects it during health checks. Load parses a file into a generic map and
// Lookup resolves dot-notation paths inside it.
package tomlx

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML file and parses it into a generic map.
func Load(filePath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var config map[string]interface{}
	err = toml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Lookup resolves a dot-notation path like "admin.email" inside a parsed
// configuration. The boolean reports whether the full path exists.
func Lookup(config map[string]interface{}, path string) (interface{}, bool) {
	keys := strings.Split(path, ".")
	current := config

	for i, key := range keys {
		value, ok := current[key]
		if !ok {
			return nil, false
		}

		if i == len(keys)-1 {
			return value, true
		}

		// Intermediate keys must be tables
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}

	return nil, false
}

// LookupString resolves a dot-notation path and asserts the value is a
// non-empty string.
func LookupString(config map[string]interface{}, path string) (string, bool) {
	value, ok := Lookup(config, path)
	if !ok {
		return "", false
	}

	s, ok := value.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}
