package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/localmedia/internal/telemetry"
	"github.com/marmos91/localmedia/pkg/content/cipher"
	"github.com/marmos91/localmedia/pkg/server"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tag constraints and the cross-field rules that
// tags cannot express. Enabled decryption must have key material.
func Validate(cfg *Config) error {
	if err := validateSettings(cfg); err != nil {
		return err
	}
	d := cfg.Decryption
	if d.Enabled && d.KeyHex == "" && d.Passphrase == "" {
		return errors.New("decryption requires key_hex or passphrase")
	}
	return nil
}

// validateSettings is Validate without the key presence rule. Load uses it
// so a missing key can still be supplied by flags or a prompt.
func validateSettings(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return errors.New("telemetry.profiling.endpoint is required when profiling is enabled")
	}

	if d := cfg.Decryption; d.Enabled && (d.KeyHex != "" || d.Passphrase != "") {
		if d.KeyHex != "" && d.Passphrase != "" {
			return errors.New("decryption.key_hex and decryption.passphrase are mutually exclusive")
		}
		_, key, err := d.Resolve()
		if err != nil {
			return fmt.Errorf("decryption: %w", err)
		}
		cipher.Wipe(key)
	}

	return nil
}

// Resolve returns the configured cipher and its key. The caller owns the
// key and should Wipe it once it has been handed to a provider.
func (d DecryptionConfig) Resolve() (cipher.Cipher, []byte, error) {
	c, err := cipher.New(d.Cipher)
	if err != nil {
		return nil, nil, err
	}
	key, err := cipher.ResolveKey(c, d.KeyHex, d.Passphrase, d.Salt)
	if err != nil {
		return nil, nil, err
	}
	return c, key, nil
}

// ServerConfig converts the file representation into the server's settings.
func (s ServerConfig) ServerConfig() server.Config {
	return server.Config{
		BindAddress:       s.BindAddress,
		URLHost:           s.URLHost,
		MaxConnections:    s.MaxConnections,
		RequestBufferSize: s.RequestBufferSize.Int(),
		ChunkSize:         s.ChunkSize.Int(),
		ContentType:       s.ContentType,
		ReadTimeout:       s.ReadTimeout,
		WatchContent:      s.WatchContent,
	}
}

// TelemetryConfig converts the tracing section for telemetry.Init.
func (t TelemetryConfig) TelemetryConfig(version string) telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = t.Enabled
	cfg.Endpoint = t.Endpoint
	cfg.Insecure = t.Insecure
	cfg.SampleRate = t.SampleRate
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}

// ProfilingConfig converts the profiling section for telemetry.InitProfiling.
func (p ProfilingConfig) ProfilingConfig(version string) telemetry.ProfilingConfig {
	if version == "" {
		version = "dev"
	}
	return telemetry.ProfilingConfig{
		Enabled:        p.Enabled,
		ServiceName:    "localmedia",
		ServiceVersion: version,
		Endpoint:       p.Endpoint,
		ProfileTypes:   p.ProfileTypes,
	}
}
