package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const configHeader = `# LocalMedia Configuration File
#
# Every key can be overridden with an environment variable:
#   LOCALMEDIA_<SECTION>_<KEY>, e.g. LOCALMEDIA_SERVER_MAX_CONNECTIONS=4
#
# Sizes accept suffixes (8Ki, 64KB, 1Mi). Durations use Go syntax (30s, 5m).
# server.max_connections: 0 means unlimited.
# server.read_timeout: 0 disables the request read deadline.

`

// InitConfig writes a default configuration file to the default location
// and returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	body, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.Write(body)

	if err := SaveRaw(path, buf.Bytes()); err != nil {
		return err
	}
	return nil
}
