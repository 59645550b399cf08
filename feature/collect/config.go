package collect

import "time"

// ToolConfig holds per-tool settings.
type ToolConfig struct {
	// Enabled toggles the adapter.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Path overrides the executable; empty means look it up in PATH.
	Path string `mapstructure:"path" default:""`
	// TimeoutSeconds bounds a single invocation.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Timeout returns the invocation timeout, defaulting to 30 seconds.
func (c ToolConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ToolConfig) binary(fallback string) string {
	if c.Path != "" {
		return c.Path
	}
	return fallback
}

// Config holds configuration for the tool adapters.
type Config struct {
	Dmidecode ToolConfig `mapstructure:"dmidecode"`
	Lshw      ToolConfig `mapstructure:"lshw"`
	Storcli   ToolConfig `mapstructure:"storcli"`
	Ssacli    ToolConfig `mapstructure:"ssacli"`
	IP        ToolConfig `mapstructure:"ip"`
	Ipmitool  ToolConfig `mapstructure:"ipmitool"`

	// IgnoreInterfaces is a regular expression of interface names to skip.
	IgnoreInterfaces string `mapstructure:"ignore_interfaces" default:"^(lo|docker[0-9]+|veth.*|virbr[0-9]+.*|br-.*)$"`
	// IgnoreAddresses is a regular expression of IP addresses not to record.
	IgnoreAddresses string `mapstructure:"ignore_ips" default:"^(127\\.|::1$|fe80:)"`
	// BMCCredentialRef is recorded on the device next to the BMC address.
	BMCCredentialRef string `mapstructure:"bmc_credential_ref" default:""`
}
