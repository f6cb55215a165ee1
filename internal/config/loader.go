package config

import (
	"os"
)

// configSearchNames are the file names probed in the working directory when
// no explicit path is given, YAML first.
var configSearchNames = []string{"config.yaml", "config.json"}

// GetConfigPath resolves which configuration file to load. An explicitly
// given path (flag or HOSTPATCH_CONFIG_PATH) is returned as-is so a typo
// fails the load instead of silently running on defaults. Without one, the
// working directory is probed for the default file names. An empty result
// means no config file exists and built-in defaults apply.
func GetConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}

	if envPath := os.Getenv("HOSTPATCH_CONFIG_PATH"); envPath != "" {
		return envPath
	}

	for _, name := range configSearchNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
