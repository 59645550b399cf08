package model

import "time"

// FragmentStatus reports how much of a tool's output could be used.
type FragmentStatus string

const (
	// FragmentOK means the tool ran and every line parsed.
	FragmentOK FragmentStatus = "ok"
	// FragmentPartial means the tool ran but some lines were skipped.
	FragmentPartial FragmentStatus = "partial"
	// FragmentFailed means the tool could not be used at all.
	FragmentFailed FragmentStatus = "failed"
)

// Fragment is the parsed output of one adapter invocation.
// Nil pointers and empty slices mean the tool did not report that fact.
type Fragment struct {
	// Source is the adapter name (e.g. "dmidecode", "storcli").
	Source string `json:"source"`
	// Status signals degradation; adapters never return errors.
	Status FragmentStatus `json:"status"`
	// Reason holds the failure description when Status is failed.
	Reason string `json:"reason,omitempty"`
	// ErrorKind is the error taxonomy code for a failed fragment.
	ErrorKind string `json:"error_kind,omitempty"`
	// Warnings lists skipped or malformed input lines.
	Warnings []string `json:"warnings,omitempty"`
	// CapturedAt is when the tool output was captured.
	CapturedAt time.Time `json:"captured_at"`

	System        *SystemFacts        `json:"system,omitempty"`
	BMC           *BMCFacts           `json:"bmc,omitempty"`
	Processors    []Processor         `json:"processors,omitempty"`
	Memory        []MemoryModule      `json:"memory,omitempty"`
	Controllers   []StorageController `json:"controllers,omitempty"`
	Disks         []StorageComponent  `json:"disks,omitempty"`
	Interfaces    []NetworkInterface  `json:"interfaces,omitempty"`
	PowerSupplies []PowerSupply       `json:"power_supplies,omitempty"`
}

// Succeeded reports whether the fragment carries usable facts.
func (f Fragment) Succeeded() bool {
	return f.Status == FragmentOK || f.Status == FragmentPartial
}

// Warn records a skipped input and downgrades an ok fragment to partial.
func (f *Fragment) Warn(msg string) {
	f.Warnings = append(f.Warnings, msg)
	if f.Status == FragmentOK {
		f.Status = FragmentPartial
	}
}

// Identity returns the identity this fragment can vouch for, if any.
func (f Fragment) Identity() string {
	if f.System == nil || !f.Succeeded() {
		return ""
	}
	return f.System.Identity()
}

// SystemFacts are host-level scalar facts.
type SystemFacts struct {
	Serial          string `json:"serial,omitempty"`
	UUID            string `json:"uuid,omitempty"`
	Hostname        string `json:"hostname,omitempty"`
	Model           string `json:"model,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
}

// Identity is the serial when present, otherwise the hardware UUID.
func (s SystemFacts) Identity() string {
	if s.Serial != "" {
		return s.Serial
	}
	return s.UUID
}

// BMCFacts describe the baseboard management controller.
type BMCFacts struct {
	Address string `json:"address,omitempty"`
	MAC     string `json:"mac,omitempty"`
	Source  string `json:"source,omitempty"`
	// CredentialRef points at where the BMC credentials are kept; it is
	// never the credential itself.
	CredentialRef string `json:"credential_ref,omitempty"`
}

// Adapter source identifiers.
const (
	SourceDmidecode = "dmidecode"
	SourceLshw      = "lshw"
	SourceStorcli   = "storcli"
	SourceSsacli    = "ssacli"
	SourceIP        = "ip"
	SourceIpmitool  = "ipmitool"
)
