package collect

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"inventory-agent/core/model"
	"inventory-agent/core/runner"
	"inventory-agent/core/utils"
)

var (
	dmiHandleRe   = regexp.MustCompile(`^Handle 0x[0-9A-Fa-f]+, DMI type (\d+),`)
	dmiPropertyRe = regexp.MustCompile(`^\t([^\t:][^:]*):[ \t]*(.*)$`)
)

// dmiRecord is one SMBIOS structure with its single-line properties.
type dmiRecord struct {
	Type       int
	Properties map[string]string
}

func newDmidecode(cfg ToolConfig) *toolAdapter {
	return &toolAdapter{
		name: model.SourceDmidecode,
		cmd: runner.Command{
			Path:    cfg.binary("dmidecode"),
			Args:    []string{"-t", "0", "-t", "1", "-t", "4", "-t", "17"},
			Timeout: cfg.Timeout(),
		},
		parse: parseDmidecode,
	}
}

// parseDmidecodeRecords splits dmidecode text into typed records.
// Nested list items (two tabs) and header comments are ignored.
func parseDmidecodeRecords(out []byte, f *model.Fragment) []dmiRecord {
	var records []dmiRecord
	var current *dmiRecord

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := dmiHandleRe.FindStringSubmatch(line); m != nil {
			t, _ := strconv.Atoi(m[1])
			records = append(records, dmiRecord{Type: t, Properties: make(map[string]string)})
			current = &records[len(records)-1]
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" || strings.HasPrefix(line, "\t\t") {
			continue
		}
		if !strings.HasPrefix(line, "\t") {
			// Record title, e.g. "System Information".
			continue
		}
		m := dmiPropertyRe.FindStringSubmatch(line)
		if m == nil {
			f.Warn(fmt.Sprintf("dmidecode line %d: unrecognized property %q", lineNo, strings.TrimSpace(line)))
			continue
		}
		current.Properties[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
	}
	return records
}

func parseDmidecode(out []byte, f *model.Fragment) error {
	records := parseDmidecodeRecords(out, f)
	if len(records) == 0 {
		return fmt.Errorf("no SMBIOS records found")
	}

	sys := &model.SystemFacts{}
	for _, rec := range records {
		p := rec.Properties
		switch rec.Type {
		case 0:
			sys.FirmwareVersion = utils.CleanString(p["Version"])
		case 1:
			sys.Serial = utils.NormalizeSerial(p["Serial Number"])
			sys.UUID = utils.NormalizeUUID(p["UUID"])
			sys.Model = utils.CleanString(p["Product Name"])
			sys.Manufacturer = utils.NormalizeVendor(p["Manufacturer"])
		case 4:
			if cpu, ok := dmiProcessor(p); ok {
				f.Processors = append(f.Processors, cpu)
			}
		case 17:
			if dimm, ok := dmiMemory(p, f); ok {
				f.Memory = append(f.Memory, dimm)
			}
		}
	}

	if *sys != (model.SystemFacts{}) {
		f.System = sys
	}
	return nil
}

func dmiProcessor(p map[string]string) (model.Processor, bool) {
	socket := strings.TrimSpace(p["Socket Designation"])
	if socket == "" || strings.Contains(p["Status"], "Unpopulated") {
		return model.Processor{}, false
	}
	return model.Processor{
		Socket:       socket,
		Model:        utils.CleanString(p["Version"]),
		Manufacturer: utils.NormalizeVendor(p["Manufacturer"]),
		Cores:        utils.ToUint64(p["Core Count"]),
		Threads:      utils.ToUint64(p["Thread Count"]),
	}, true
}

func dmiMemory(p map[string]string, f *model.Fragment) (model.MemoryModule, bool) {
	slot := strings.TrimSpace(p["Locator"])
	size := strings.TrimSpace(p["Size"])
	if slot == "" || size == "" || strings.HasPrefix(size, "No Module") || size == "Not Installed" {
		return model.MemoryModule{}, false
	}
	sizeBytes, ok := utils.ParseCapacity(size, true)
	if !ok {
		f.Warn(fmt.Sprintf("dmidecode memory %s: unparsable size %q", slot, size))
	}
	var speed uint64
	if fields := strings.Fields(p["Speed"]); len(fields) > 0 {
		speed = utils.ToUint64(fields[0])
	}
	return model.MemoryModule{
		Slot:         slot,
		SizeBytes:    sizeBytes,
		PartNumber:   utils.CleanString(p["Part Number"]),
		Serial:       utils.NormalizeSerial(p["Serial Number"]),
		Manufacturer: utils.NormalizeVendor(p["Manufacturer"]),
		SpeedMTs:     speed,
	}, true
}
