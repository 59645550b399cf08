package model

import (
	"sort"
	"strconv"
	"strings"
)

// ComponentKind names a family of sub-components.
type ComponentKind string

const (
	KindController  ComponentKind = "controller"
	KindDisk        ComponentKind = "disk"
	KindInterface   ComponentKind = "interface"
	KindProcessor   ComponentKind = "processor"
	KindMemory      ComponentKind = "memory"
	KindPowerSupply ComponentKind = "power_supply"
)

// ComponentKinds lists every kind in the order components are emitted.
var ComponentKinds = []ComponentKind{KindController, KindDisk, KindInterface, KindProcessor, KindMemory, KindPowerSupply}

// ComponentRef identifies a component by kind and stable key.
type ComponentRef struct {
	Kind ComponentKind `json:"kind"`
	Key  string        `json:"key"`
}

func (r ComponentRef) String() string {
	return string(r.Kind) + "/" + r.Key
}

// Component is the kind-agnostic view of a sub-component.
// Fields hold canonical string values; empty values are omitted.
type Component struct {
	Kind   ComponentKind     `json:"kind"`
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"`
}

// Ref returns the component reference.
func (c Component) Ref() ComponentRef {
	return ComponentRef{Kind: c.Kind, Key: c.Key}
}

// Media types.
const (
	MediaHDD  = "hdd"
	MediaSSD  = "ssd"
	MediaNVMe = "nvme"
)

// RAID roles a physical disk can play behind a controller.
const (
	RAIDMember     = "member"
	RAIDSpare      = "spare"
	RAIDUnassigned = "unassigned"
	RAIDJBOD       = "jbod"
)

// StorageComponent is a physical disk.
type StorageComponent struct {
	Key           string `json:"key"`
	ControllerID  string `json:"controller_id,omitempty"`
	DiskID        string `json:"disk_id,omitempty"`
	Serial        string `json:"serial,omitempty"`
	Model         string `json:"model,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	CapacityBytes uint64 `json:"capacity_bytes,omitempty"`
	MediaType     string `json:"media_type,omitempty"`
	RAIDRole      string `json:"raid_role,omitempty"`
}

func (s StorageComponent) Component() Component {
	return newComponent(KindDisk, s.Key, map[string]string{
		"controller_id":  s.ControllerID,
		"disk_id":        s.DiskID,
		"serial":         s.Serial,
		"model":          s.Model,
		"vendor":         s.Vendor,
		"capacity_bytes": formatUint(s.CapacityBytes),
		"media_type":     s.MediaType,
		"raid_role":      s.RAIDRole,
	})
}

func storageFromComponent(c Component) StorageComponent {
	return StorageComponent{
		Key:           c.Key,
		ControllerID:  c.Fields["controller_id"],
		DiskID:        c.Fields["disk_id"],
		Serial:        c.Fields["serial"],
		Model:         c.Fields["model"],
		Vendor:        c.Fields["vendor"],
		CapacityBytes: parseUint(c.Fields["capacity_bytes"]),
		MediaType:     c.Fields["media_type"],
		RAIDRole:      c.Fields["raid_role"],
	}
}

// StorageController is a RAID or HBA controller.
type StorageController struct {
	Key      string `json:"key"`
	Model    string `json:"model,omitempty"`
	Serial   string `json:"serial,omitempty"`
	Firmware string `json:"firmware,omitempty"`
	Slot     string `json:"slot,omitempty"`
}

func (s StorageController) Component() Component {
	return newComponent(KindController, s.Key, map[string]string{
		"model":    s.Model,
		"serial":   s.Serial,
		"firmware": s.Firmware,
		"slot":     s.Slot,
	})
}

func controllerFromComponent(c Component) StorageController {
	return StorageController{
		Key:      c.Key,
		Model:    c.Fields["model"],
		Serial:   c.Fields["serial"],
		Firmware: c.Fields["firmware"],
		Slot:     c.Fields["slot"],
	}
}

// Link states.
const (
	LinkUp      = "up"
	LinkDown    = "down"
	LinkUnknown = "unknown"
)

// NetworkInterface is a network port keyed by interface name.
type NetworkInterface struct {
	Name      string `json:"name"`
	MAC       string `json:"mac,omitempty"`
	SpeedMbps uint64 `json:"speed_mbps,omitempty"`
	State     string `json:"state,omitempty"`
	MTU       uint64 `json:"mtu,omitempty"`
	// Addresses are CIDR strings, sorted.
	Addresses []string `json:"addresses,omitempty"`
	// LinkKind is the virtual link type (vlan, bond, bridge); empty for
	// physical ports.
	LinkKind string `json:"link_kind,omitempty"`
	// Parent is the lower device of a VLAN.
	Parent string `json:"parent,omitempty"`
	VLANID uint64 `json:"vlan_id,omitempty"`
	// Master is the bond or bridge this port is enslaved to.
	Master string `json:"master,omitempty"`
}

func (n NetworkInterface) Component() Component {
	return newComponent(KindInterface, n.Name, map[string]string{
		"mac":        n.MAC,
		"speed_mbps": formatUint(n.SpeedMbps),
		"state":      n.State,
		"mtu":        formatUint(n.MTU),
		"addresses":  joinList(n.Addresses),
		"link_kind":  n.LinkKind,
		"parent":     n.Parent,
		"vlan_id":    formatUint(n.VLANID),
		"master":     n.Master,
	})
}

func interfaceFromComponent(c Component) NetworkInterface {
	return NetworkInterface{
		Name:      c.Key,
		MAC:       c.Fields["mac"],
		SpeedMbps: parseUint(c.Fields["speed_mbps"]),
		State:     c.Fields["state"],
		MTU:       parseUint(c.Fields["mtu"]),
		Addresses: splitList(c.Fields["addresses"]),
		LinkKind:  c.Fields["link_kind"],
		Parent:    c.Fields["parent"],
		VLANID:    parseUint(c.Fields["vlan_id"]),
		Master:    c.Fields["master"],
	}
}

// Processor is a CPU package keyed by socket designation.
type Processor struct {
	Socket       string `json:"socket"`
	Model        string `json:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Cores        uint64 `json:"cores,omitempty"`
	Threads      uint64 `json:"threads,omitempty"`
}

func (p Processor) Component() Component {
	return newComponent(KindProcessor, p.Socket, map[string]string{
		"model":        p.Model,
		"manufacturer": p.Manufacturer,
		"cores":        formatUint(p.Cores),
		"threads":      formatUint(p.Threads),
	})
}

func processorFromComponent(c Component) Processor {
	return Processor{
		Socket:       c.Key,
		Model:        c.Fields["model"],
		Manufacturer: c.Fields["manufacturer"],
		Cores:        parseUint(c.Fields["cores"]),
		Threads:      parseUint(c.Fields["threads"]),
	}
}

// MemoryModule is a populated DIMM slot keyed by locator.
type MemoryModule struct {
	Slot         string `json:"slot"`
	SizeBytes    uint64 `json:"size_bytes,omitempty"`
	PartNumber   string `json:"part_number,omitempty"`
	Serial       string `json:"serial,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	SpeedMTs     uint64 `json:"speed_mts,omitempty"`
}

func (m MemoryModule) Component() Component {
	return newComponent(KindMemory, m.Slot, map[string]string{
		"size_bytes":   formatUint(m.SizeBytes),
		"part_number":  m.PartNumber,
		"serial":       m.Serial,
		"manufacturer": m.Manufacturer,
		"speed_mts":    formatUint(m.SpeedMTs),
	})
}

func memoryFromComponent(c Component) MemoryModule {
	return MemoryModule{
		Slot:         c.Key,
		SizeBytes:    parseUint(c.Fields["size_bytes"]),
		PartNumber:   c.Fields["part_number"],
		Serial:       c.Fields["serial"],
		Manufacturer: c.Fields["manufacturer"],
		SpeedMTs:     parseUint(c.Fields["speed_mts"]),
	}
}

// PowerSupply is a power supply unit keyed by serial number, or by the
// hardware lister's node id when the unit reports no serial.
type PowerSupply struct {
	Key           string `json:"key"`
	Serial        string `json:"serial,omitempty"`
	Model         string `json:"model,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	Slot          string `json:"slot,omitempty"`
	CapacityWatts uint64 `json:"capacity_watts,omitempty"`
}

func (p PowerSupply) Component() Component {
	return newComponent(KindPowerSupply, p.Key, map[string]string{
		"serial":         p.Serial,
		"model":          p.Model,
		"vendor":         p.Vendor,
		"slot":           p.Slot,
		"capacity_watts": formatUint(p.CapacityWatts),
	})
}

func powerSupplyFromComponent(c Component) PowerSupply {
	return PowerSupply{
		Key:           c.Key,
		Serial:        c.Fields["serial"],
		Model:         c.Fields["model"],
		Vendor:        c.Fields["vendor"],
		Slot:          c.Fields["slot"],
		CapacityWatts: parseUint(c.Fields["capacity_watts"]),
	}
}

func newComponent(kind ComponentKind, key string, fields map[string]string) Component {
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return Component{Kind: kind, Key: key, Fields: fields}
}

func formatUint(v uint64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatUint(v, 10)
}

func parseUint(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}

// joinList renders a list field as one sorted, comma-separated value so
// that ordering differences never show up as changes.
func joinList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
