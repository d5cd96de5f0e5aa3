package config

import (
	"fmt"
	"os"
	"strconv"
)

// EnvString returns the named environment variable and whether it was set.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	return value, ok
}

// EnvInt parses the named environment variable as an integer. The second
// return value reports whether the variable was set at all.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}

// EnvBool parses the named environment variable as a boolean.
func EnvBool(name string) (bool, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, true, fmt.Errorf("parse %s: %w", name, err)
	}
	return value, true, nil
}
