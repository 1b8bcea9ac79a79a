package pkg

import "os"

// Getenv returns the value of the environment variable key. Unlike
// os.Getenv an empty-but-set value is returned as is; defaultValue is
// used only when the key is absent.
func Getenv(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}

	return value
}
