package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// listKeys hold string lists; set values for them are split on commas.
var listKeys = map[string]bool{
	"default_post_separator": true,
	"post_separator":         true,
	"env":                    true,
}

var scalarKeys = map[string]bool{
	"cargo_path":       true,
	"shell":            true,
	"output_naming":    true,
	"output_dir":       true,
	"log_path":         true,
	"events_path":      true,
	"metadata_timeout": true,
}

// ReadMap deserializes config.yaml into a generic map for dotted lookups.
func ReadMap(path string) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteMap persists the map back to YAML, creating directories.
func WriteMap(path string, data map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	bytes, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0o644)
}

// CheckKey rejects dotted keys the config file does not understand.
// post_separator takes one more segment naming the subcommand.
func CheckKey(key string) error {
	parts := strings.Split(key, ".")
	switch {
	case len(parts) == 1 && (scalarKeys[parts[0]] || parts[0] == "default_post_separator" || parts[0] == "env"):
		return nil
	case len(parts) == 2 && parts[0] == "post_separator" && parts[1] != "":
		return nil
	}
	return fmt.Errorf("unknown config key %q", key)
}

// GetValue traverses a nested map using dotted notation.
func GetValue(data map[string]interface{}, key string) (interface{}, bool) {
	var current interface{} = data
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, ok := m[part]
		if !ok {
			return nil, false
		}
		current = value
	}
	return current, true
}

// SetValue creates or replaces the nested key.
func SetValue(data map[string]interface{}, key string, value interface{}) error {
	parts := strings.Split(key, ".")
	current := data
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value
			return nil
		}
		next, ok := current[part].(map[string]interface{})
		if !ok {
			if _, exists := current[part]; exists {
				return fmt.Errorf("%s is not a map", strings.Join(parts[:i+1], "."))
			}
			next = map[string]interface{}{}
			current[part] = next
		}
		current = next
	}
	return nil
}

// ParseValue coerces CLI input for key. List keys split on commas, so an
// empty input stores an empty list; every other key is a string.
func ParseValue(key, input string) interface{} {
	if listKeys[strings.Split(key, ".")[0]] {
		out := []interface{}{}
		for _, part := range strings.Split(input, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return input
}

// PrettyValue renders nested values on one line.
func PrettyValue(v interface{}) string {
	switch value := v.(type) {
	case []interface{}:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, PrettyValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		b, _ := yaml.Marshal(value)
		return strings.TrimSpace(string(b))
	default:
		return fmt.Sprint(value)
	}
}
