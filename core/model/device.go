package model

import "sort"

// Device is the canonical inventory record for one host.
// Identity is set once by the normalizer and never changes for the run.
type Device struct {
	Identity         string `json:"identity"`
	Serial           string `json:"serial,omitempty"`
	UUID             string `json:"uuid,omitempty"`
	Hostname         string `json:"hostname,omitempty"`
	Model            string `json:"model,omitempty"`
	Manufacturer     string `json:"manufacturer,omitempty"`
	FirmwareVersion  string `json:"firmware_version,omitempty"`
	BMCAddress       string `json:"bmc_address,omitempty"`
	BMCMAC           string `json:"bmc_mac,omitempty"`
	BMCCredentialRef string `json:"bmc_credential_ref,omitempty"`

	Storage       []StorageComponent  `json:"storage"`
	Controllers   []StorageController `json:"controllers"`
	Interfaces    []NetworkInterface  `json:"interfaces"`
	Processors    []Processor         `json:"processors"`
	MemoryModules []MemoryModule      `json:"memory_modules"`
	PowerSupplies []PowerSupply       `json:"power_supplies"`

	// Complete marks kinds whose authoritative source reported successfully.
	// Only complete kinds are eligible for remote removals.
	Complete map[ComponentKind]bool `json:"complete,omitempty"`
}

// Scalar field names shared by the diff engine and the remote wire format.
const (
	FieldSerial           = "serial"
	FieldUUID             = "uuid"
	FieldHostname         = "hostname"
	FieldModel            = "model"
	FieldManufacturer     = "manufacturer"
	FieldFirmwareVersion  = "firmware_version"
	FieldBMCAddress       = "bmc_address"
	FieldBMCMAC           = "bmc_mac"
	FieldBMCCredentialRef = "bmc_credential_ref"
)

// ScalarFields lists the top-level fields in a fixed order.
var ScalarFields = []string{
	FieldSerial,
	FieldUUID,
	FieldHostname,
	FieldModel,
	FieldManufacturer,
	FieldFirmwareVersion,
	FieldBMCAddress,
	FieldBMCMAC,
	FieldBMCCredentialRef,
}

// Fields returns the top-level scalar fields keyed by field name.
func (d Device) Fields() map[string]string {
	return map[string]string{
		FieldSerial:           d.Serial,
		FieldUUID:             d.UUID,
		FieldHostname:         d.Hostname,
		FieldModel:            d.Model,
		FieldManufacturer:     d.Manufacturer,
		FieldFirmwareVersion:  d.FirmwareVersion,
		FieldBMCAddress:       d.BMCAddress,
		FieldBMCMAC:           d.BMCMAC,
		FieldBMCCredentialRef: d.BMCCredentialRef,
	}
}

// SetField assigns a scalar field by name. Unknown names are ignored.
func (d *Device) SetField(name, value string) {
	switch name {
	case FieldSerial:
		d.Serial = value
	case FieldUUID:
		d.UUID = value
	case FieldHostname:
		d.Hostname = value
	case FieldModel:
		d.Model = value
	case FieldManufacturer:
		d.Manufacturer = value
	case FieldFirmwareVersion:
		d.FirmwareVersion = value
	case FieldBMCAddress:
		d.BMCAddress = value
	case FieldBMCMAC:
		d.BMCMAC = value
	case FieldBMCCredentialRef:
		d.BMCCredentialRef = value
	}
}

// Components returns every sub-component in kind order, each list sorted by key.
func (d Device) Components() []Component {
	var out []Component
	for _, c := range d.Controllers {
		out = append(out, c.Component())
	}
	for _, c := range d.Storage {
		out = append(out, c.Component())
	}
	for _, c := range d.Interfaces {
		out = append(out, c.Component())
	}
	for _, c := range d.Processors {
		out = append(out, c.Component())
	}
	for _, c := range d.MemoryModules {
		out = append(out, c.Component())
	}
	for _, c := range d.PowerSupplies {
		out = append(out, c.Component())
	}
	return out
}

// ComponentIndex returns the components indexed by their reference.
func (d Device) ComponentIndex() map[ComponentRef]Component {
	index := make(map[ComponentRef]Component)
	for _, c := range d.Components() {
		index[c.Ref()] = c
	}
	return index
}

// AddComponent appends a generic component as its typed counterpart.
func (d *Device) AddComponent(c Component) {
	switch c.Kind {
	case KindDisk:
		d.Storage = append(d.Storage, storageFromComponent(c))
	case KindController:
		d.Controllers = append(d.Controllers, controllerFromComponent(c))
	case KindInterface:
		d.Interfaces = append(d.Interfaces, interfaceFromComponent(c))
	case KindProcessor:
		d.Processors = append(d.Processors, processorFromComponent(c))
	case KindMemory:
		d.MemoryModules = append(d.MemoryModules, memoryFromComponent(c))
	case KindPowerSupply:
		d.PowerSupplies = append(d.PowerSupplies, powerSupplyFromComponent(c))
	}
}

// RemoveComponent drops the component with the given reference, if present.
func (d *Device) RemoveComponent(ref ComponentRef) {
	var kept []Component
	for _, c := range d.Components() {
		if c.Ref() != ref {
			kept = append(kept, c)
		}
	}
	d.replaceComponents(kept)
}

// UpdateComponent merges fields into the component with the given reference.
func (d *Device) UpdateComponent(ref ComponentRef, fields map[string]string) {
	all := d.Components()
	for i := range all {
		if all[i].Ref() != ref {
			continue
		}
		if all[i].Fields == nil {
			all[i].Fields = make(map[string]string)
		}
		for k, v := range fields {
			all[i].Fields[k] = v
		}
	}
	d.replaceComponents(all)
}

func (d *Device) replaceComponents(components []Component) {
	d.Storage = nil
	d.Controllers = nil
	d.Interfaces = nil
	d.Processors = nil
	d.MemoryModules = nil
	d.PowerSupplies = nil
	for _, c := range components {
		d.AddComponent(c)
	}
	d.Sort()
}

// Sort orders every component list by its stable key.
func (d *Device) Sort() {
	sort.Slice(d.Storage, func(i, j int) bool { return d.Storage[i].Key < d.Storage[j].Key })
	sort.Slice(d.Controllers, func(i, j int) bool { return d.Controllers[i].Key < d.Controllers[j].Key })
	sort.Slice(d.Interfaces, func(i, j int) bool { return d.Interfaces[i].Name < d.Interfaces[j].Name })
	sort.Slice(d.Processors, func(i, j int) bool { return d.Processors[i].Socket < d.Processors[j].Socket })
	sort.Slice(d.MemoryModules, func(i, j int) bool { return d.MemoryModules[i].Slot < d.MemoryModules[j].Slot })
	sort.Slice(d.PowerSupplies, func(i, j int) bool { return d.PowerSupplies[i].Key < d.PowerSupplies[j].Key })
}

// RemoteRecord is the remote inventory's last-known view of a device.
// It is fetched fresh for every run and never cached across runs.
type RemoteRecord struct {
	// ID is the opaque handle assigned by the remote system on creation.
	ID string `json:"id"`
	// Device mirrors the canonical fields as stored remotely.
	Device Device `json:"device"`
	// ComponentIDs maps each remote component to its remote handle.
	ComponentIDs map[ComponentRef]string `json:"-"`
}

// ComponentID returns the remote handle of a component.
func (r RemoteRecord) ComponentID(ref ComponentRef) string {
	if r.ComponentIDs == nil {
		return ""
	}
	return r.ComponentIDs[ref]
}
