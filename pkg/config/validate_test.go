package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/localmedia/internal/bytesize"
)

func reflectConfigType() reflect.Type {
	return reflect.TypeOf(Config{})
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		tag    string
	}{
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"metrics port", func(c *Config) { c.Metrics.Port = 70000 }, "max"},
		{"metrics bind", func(c *Config) { c.Metrics.BindAddress = "localhost" }, "ip"},
		{"server bind", func(c *Config) { c.Server.BindAddress = "not-an-ip" }, "ip"},
		{"negative connections", func(c *Config) { c.Server.MaxConnections = -1 }, "gte"},
		{"tiny request buffer", func(c *Config) { c.Server.RequestBufferSize = 16 }, "gte"},
		{"huge chunk", func(c *Config) { c.Server.ChunkSize = 64 * bytesize.MiB }, "lte"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "gte"},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "lte"},
		{"cipher", func(c *Config) { c.Decryption.Cipher = "rot13" }, "oneof"},
		{"key hex", func(c *Config) { c.Decryption.KeyHex = "zz" }, "hexadecimal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.tag)
		})
	}
}

func TestValidate_TelemetryEnabledWithoutEndpoint(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry.endpoint")
}

func TestValidate_Decryption(t *testing.T) {
	t.Run("disabled ignores keys", func(t *testing.T) {
		cfg := GetDefaultConfig()
		assert.NoError(t, Validate(cfg))
	})

	t.Run("enabled without key", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Decryption.Enabled = true

		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key_hex or passphrase")
	})

	t.Run("both key and passphrase", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Decryption.Enabled = true
		cfg.Decryption.Cipher = "xor"
		cfg.Decryption.KeyHex = "01"
		cfg.Decryption.Passphrase = "secret"

		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})

	t.Run("chacha20 key too short", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Decryption.Enabled = true
		cfg.Decryption.KeyHex = "00112233"

		assert.Error(t, Validate(cfg))
	})

	t.Run("passphrase", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Decryption.Enabled = true
		cfg.Decryption.Passphrase = "secret"
		cfg.Decryption.Salt = "salt"

		assert.NoError(t, Validate(cfg))
	})
}

func TestDecryptionConfig_Resolve(t *testing.T) {
	d := DecryptionConfig{Cipher: "chacha20", Passphrase: "secret"}

	c, key, err := d.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "chacha20", c.Name())
	assert.Len(t, key, c.KeySize())

	_, again, err := d.Resolve()
	require.NoError(t, err)
	assert.Equal(t, key, again)

	d.Salt = "other"
	_, salted, err := d.Resolve()
	require.NoError(t, err)
	assert.NotEqual(t, key, salted)
}

func TestServerConfig_Conversion(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.MaxConnections = 2
	cfg.Server.ReadTimeout = 3 * time.Second

	sc := cfg.Server.ServerConfig()
	assert.Equal(t, "127.0.0.1", sc.BindAddress)
	assert.Equal(t, "localhost", sc.URLHost)
	assert.Equal(t, 2, sc.MaxConnections)
	assert.Equal(t, 8192, sc.RequestBufferSize)
	assert.Equal(t, 8192, sc.ChunkSize)
	assert.Equal(t, "video/mp4", sc.ContentType)
	assert.Equal(t, 3*time.Second, sc.ReadTimeout)
}

func TestTelemetryConfig_Conversion(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.Enabled = true

	tc := cfg.Telemetry.TelemetryConfig("1.2.3")
	assert.True(t, tc.Enabled)
	assert.Equal(t, "localhost:4317", tc.Endpoint)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "localmedia", tc.ServiceName)

	pc := cfg.Telemetry.Profiling.ProfilingConfig("")
	assert.Equal(t, "dev", pc.ServiceVersion)
	assert.Equal(t, []string{"cpu", "alloc_space", "inuse_space", "goroutines"}, pc.ProfileTypes)
}
