package collect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"inventory-agent/core/model"
	"inventory-agent/core/runner"
	"inventory-agent/core/utils"
)

// lshwNode is one entry of the lshw JSON tree.
type lshwNode struct {
	ID            string          `json:"id"`
	Class         string          `json:"class"`
	Description   string          `json:"description"`
	Product       string          `json:"product"`
	Vendor        string          `json:"vendor"`
	Serial        string          `json:"serial"`
	Slot          string          `json:"slot"`
	Units         string          `json:"units"`
	Size          any             `json:"size"`
	Capacity      any             `json:"capacity"`
	Clock         any             `json:"clock"`
	Disabled      bool            `json:"disabled"`
	LogicalName   json.RawMessage `json:"logicalname"`
	Configuration map[string]any  `json:"configuration"`
	Children      []lshwNode      `json:"children"`
}

// logicalNames decodes "logicalname", which lshw emits as a string or a list.
func (n lshwNode) logicalNames() []string {
	if len(n.LogicalName) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(n.LogicalName, &one); err == nil {
		return []string{one}
	}
	var many []string
	_ = json.Unmarshal(n.LogicalName, &many)
	return many
}

func (n lshwNode) config(key string) string {
	if n.Configuration == nil {
		return ""
	}
	return utils.ToString(n.Configuration[key])
}

var productSuffixRe = regexp.MustCompile(`\s*\([^)]*\)$`)

func newLshw(cfg ToolConfig, ignore *regexp.Regexp) *toolAdapter {
	return &toolAdapter{
		name: model.SourceLshw,
		cmd: runner.Command{
			Path:    cfg.binary("lshw"),
			Args:    []string{"-json", "-quiet"},
			Timeout: cfg.Timeout(),
		},
		parse: func(out []byte, f *model.Fragment) error {
			return parseLshw(out, ignore, f)
		},
	}
}

func parseLshw(out []byte, ignore *regexp.Regexp, f *model.Fragment) error {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty lshw output")
	}

	var root lshwNode
	if trimmed[0] == '[' {
		// Older lshw releases wrap the tree in a list.
		var roots []lshwNode
		if err := json.Unmarshal(trimmed, &roots); err != nil {
			return fmt.Errorf("decode lshw json: %w", err)
		}
		if len(roots) == 0 {
			return fmt.Errorf("empty lshw tree")
		}
		root = roots[0]
	} else if err := json.Unmarshal(trimmed, &root); err != nil {
		return fmt.Errorf("decode lshw json: %w", err)
	}

	if root.Class == "system" {
		sys := &model.SystemFacts{
			Hostname:     strings.TrimSpace(root.ID),
			Serial:       utils.NormalizeSerial(root.Serial),
			UUID:         utils.NormalizeUUID(root.config("uuid")),
			Model:        utils.CleanString(productSuffixRe.ReplaceAllString(root.Product, "")),
			Manufacturer: utils.NormalizeVendor(root.Vendor),
		}
		if *sys != (model.SystemFacts{}) {
			f.System = sys
		}
	}

	walkLshw(root, ignore, f)
	return nil
}

func walkLshw(n lshwNode, ignore *regexp.Regexp, f *model.Fragment) {
	switch n.Class {
	case "disk":
		if d, ok := lshwDisk(n, f); ok {
			f.Disks = append(f.Disks, d)
		}
	case "network":
		if nic, ok := lshwNetwork(n, f); ok && (ignore == nil || !ignore.MatchString(nic.Name)) {
			f.Interfaces = append(f.Interfaces, nic)
		}
	case "processor":
		if cpu, ok := lshwProcessor(n); ok {
			f.Processors = append(f.Processors, cpu)
		}
	case "power":
		if psu, ok := lshwPowerSupply(n); ok {
			f.PowerSupplies = append(f.PowerSupplies, psu)
		}
	case "memory":
		if strings.HasPrefix(n.ID, "bank") {
			if dimm, ok := lshwMemory(n); ok {
				f.Memory = append(f.Memory, dimm)
			}
		}
	}
	for _, child := range n.Children {
		walkLshw(child, ignore, f)
	}
}

// isVirtualDisk filters RAID volumes, optical drives and enclosures.
func isVirtualDisk(n lshwNode, names []string) bool {
	if len(names) == 0 || n.Product == "" || n.Description == "" {
		return true
	}
	product := strings.ToLower(n.Product)
	description := strings.ToLower(n.Description)
	return strings.Contains(product, "virtual") ||
		strings.Contains(product, "logical") ||
		strings.Contains(description, "volume") ||
		strings.Contains(description, "dvd") ||
		strings.Contains(description, "cd-rom") ||
		n.Description == "SCSI Enclosure"
}

func lshwDisk(n lshwNode, f *model.Fragment) (model.StorageComponent, bool) {
	names := n.logicalNames()
	if isVirtualDisk(n, names) {
		return model.StorageComponent{}, false
	}
	key := path.Base(names[0])
	capacity := utils.ToUint64(n.Size)
	if capacity == 0 {
		f.Warn(fmt.Sprintf("lshw disk %s: missing size", key))
	}

	media := ""
	switch {
	case strings.HasPrefix(key, "nvme") || strings.Contains(strings.ToLower(n.Description), "nvme"):
		media = model.MediaNVMe
	case strings.Contains(strings.ToUpper(n.Product), "SSD"):
		media = model.MediaSSD
	case n.config("rotation") != "" || n.config("rpm") != "":
		media = model.MediaHDD
	}

	return model.StorageComponent{
		Key:           key,
		DiskID:        key,
		Serial:        utils.NormalizeSerial(n.Serial),
		Model:         utils.CleanString(n.Product),
		Vendor:        utils.NormalizeVendor(n.Vendor),
		CapacityBytes: capacity,
		MediaType:     media,
	}, true
}

func lshwNetwork(n lshwNode, f *model.Fragment) (model.NetworkInterface, bool) {
	names := n.logicalNames()
	if len(names) == 0 {
		return model.NetworkInterface{}, false
	}
	name := names[0]

	var speed uint64
	if n.Size != nil {
		speed, _ = utils.ParseSpeed(utils.ToString(n.Size) + " " + n.Units)
	}
	if speed == 0 && n.config("speed") != "" {
		var ok bool
		speed, ok = utils.ParseSpeed(n.config("speed"))
		if !ok {
			f.Warn(fmt.Sprintf("lshw interface %s: unparsable speed %q", name, n.config("speed")))
		}
	}

	state := model.LinkUnknown
	if link := n.config("link"); link != "" {
		state = utils.NormalizeLinkState(link)
	}

	return model.NetworkInterface{
		Name:      name,
		MAC:       utils.NormalizeMAC(n.Serial),
		SpeedMbps: speed,
		State:     state,
	}, true
}

func lshwProcessor(n lshwNode) (model.Processor, bool) {
	socket := strings.TrimSpace(n.Slot)
	if socket == "" || n.Disabled || n.Product == "" {
		return model.Processor{}, false
	}
	return model.Processor{
		Socket:       socket,
		Model:        utils.CleanString(n.Product),
		Manufacturer: utils.NormalizeVendor(n.Vendor),
		Cores:        utils.ToUint64(n.config("cores")),
		Threads:      utils.ToUint64(n.config("threads")),
	}, true
}

func lshwMemory(n lshwNode) (model.MemoryModule, bool) {
	slot := strings.TrimSpace(n.Slot)
	size := utils.ToUint64(n.Size)
	if slot == "" || size == 0 || strings.Contains(strings.ToLower(n.Description), "empty") {
		return model.MemoryModule{}, false
	}
	return model.MemoryModule{
		Slot:         slot,
		SizeBytes:    size,
		PartNumber:   utils.CleanString(n.Product),
		Serial:       utils.NormalizeSerial(n.Serial),
		Manufacturer: utils.NormalizeVendor(n.Vendor),
		SpeedMTs:     utils.ToUint64(n.Clock) / 1_000_000,
	}, true
}

// lshwPowerSupply maps a "power" node. Batteries share the class and are
// skipped.
func lshwPowerSupply(n lshwNode) (model.PowerSupply, bool) {
	if strings.Contains(strings.ToLower(n.Description+" "+n.Product), "battery") {
		return model.PowerSupply{}, false
	}
	serial := utils.NormalizeSerial(n.Serial)
	key := serial
	if key == "" {
		key = strings.TrimSpace(n.ID)
	}
	if key == "" {
		return model.PowerSupply{}, false
	}

	slot := strings.TrimSpace(n.Slot)
	if slot == "" {
		slot = utils.CleanString(n.Description)
	}
	var watts uint64
	switch strings.TrimSpace(n.Units) {
	case "", "W":
		watts = utils.ToUint64(n.Capacity)
	case "mW":
		watts = utils.ToUint64(n.Capacity) / 1000
	}
	return model.PowerSupply{
		Key:           key,
		Serial:        serial,
		Model:         utils.CleanString(n.Product),
		Vendor:        utils.NormalizeVendor(n.Vendor),
		Slot:          slot,
		CapacityWatts: watts,
	}, true
}
