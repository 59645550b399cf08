package collect

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"inventory-agent/core/model"
	"inventory-agent/core/runner"
	"inventory-agent/core/utils"
)

var (
	ssacliControllerRe = regexp.MustCompile(`^(\S.*) in Slot (\S+)`)
	ssacliDriveRe      = regexp.MustCompile(`^\s*physicaldrive (\S+)`)
	ssacliAbsentRe     = regexp.MustCompile(`(?i)no controllers detected`)
)

type ssacliBlock struct {
	indent int
	props  map[string]string
}

func newSsacli(cfg ToolConfig) *toolAdapter {
	return &toolAdapter{
		name: model.SourceSsacli,
		cmd: runner.Command{
			Path:    cfg.binary("ssacli"),
			Args:    []string{"ctrl", "all", "show", "config", "detail"},
			Timeout: cfg.Timeout(),
		},
		parse:  parseSsacli,
		absent: ssacliAbsentRe,
	}
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func parseSsacli(out []byte, f *model.Fragment) error {
	var (
		ctrl      *model.StorageController
		ctrlProps *ssacliBlock
		drive     *ssacliBlock
		driveID   string
	)

	flushDrive := func() {
		if drive != nil && ctrl != nil {
			f.Disks = append(f.Disks, ssacliDisk(ctrl.Key, driveID, drive.props, f))
		}
		drive = nil
	}
	flushController := func() {
		flushDrive()
		if ctrl != nil {
			ctrl.Serial = utils.NormalizeSerial(ctrlProps.props["Serial Number"])
			ctrl.Firmware = utils.CleanString(ctrlProps.props["Firmware Version"])
			f.Controllers = append(f.Controllers, *ctrl)
		}
		ctrl, ctrlProps = nil, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := indentOf(line)

		if indent == 0 {
			flushController()
			if m := ssacliControllerRe.FindStringSubmatch(line); m != nil {
				ctrl = &model.StorageController{
					Key:   "s" + m[2],
					Model: utils.CleanString(m[1]),
					Slot:  m[2],
				}
				ctrlProps = &ssacliBlock{indent: -1, props: make(map[string]string)}
			}
			continue
		}
		if ctrl == nil {
			continue
		}

		if m := ssacliDriveRe.FindStringSubmatch(line); m != nil {
			flushDrive()
			driveID = m[1]
			drive = &ssacliBlock{indent: indent, props: make(map[string]string)}
			continue
		}

		if drive != nil && indent <= drive.indent {
			flushDrive()
		}

		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if drive != nil {
			if !ok {
				f.Warn(fmt.Sprintf("ssacli line %d: unrecognized drive property %q", lineNo, strings.TrimSpace(line)))
				continue
			}
			drive.props[strings.TrimSpace(key)] = strings.TrimSpace(value)
			continue
		}

		// Controller properties sit at the first indentation level below
		// the header; deeper lines belong to arrays and logical drives.
		if ctrlProps.indent < 0 {
			ctrlProps.indent = indent
		}
		if ok && indent == ctrlProps.indent {
			k := strings.TrimSpace(key)
			if _, seen := ctrlProps.props[k]; !seen {
				ctrlProps.props[k] = strings.TrimSpace(value)
			}
		}
	}
	flushController()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ssacli output: %w", err)
	}
	if len(f.Controllers) == 0 {
		return fmt.Errorf("ssacli reported no controllers: %w", errNoHardware)
	}
	return nil
}

func ssacliRole(driveType string) string {
	switch t := strings.ToLower(driveType); {
	case strings.Contains(t, "spare"):
		return model.RAIDSpare
	case strings.Contains(t, "unassigned"):
		return model.RAIDUnassigned
	case strings.Contains(t, "hba"):
		return model.RAIDJBOD
	case strings.Contains(t, "data"):
		return model.RAIDMember
	}
	return ""
}

func ssacliMedia(props map[string]string) string {
	iface := strings.ToLower(props["Interface Type"])
	switch {
	case strings.Contains(iface, "nvme"):
		return model.MediaNVMe
	case strings.Contains(iface, "solid state"):
		return model.MediaSSD
	case props["Rotational Speed"] != "" || iface == "sas" || iface == "sata":
		return model.MediaHDD
	}
	return ""
}

func ssacliDisk(ctrlKey, driveID string, props map[string]string, f *model.Fragment) model.StorageComponent {
	key := ctrlKey + ":" + driveID
	capacity, ok := utils.ParseCapacity(props["Size"], false)
	if !ok {
		f.Warn(fmt.Sprintf("ssacli drive %s: unparsable size %q", key, props["Size"]))
	}
	role := ssacliRole(props["Drive Type"])
	if role == "" {
		f.Warn(fmt.Sprintf("ssacli drive %s: unknown drive type %q", key, props["Drive Type"]))
	}

	modelName := utils.CleanString(props["Model"])
	vendor := ""
	if fields := strings.Fields(modelName); len(fields) > 1 {
		// ssacli prefixes the model with the vendor, e.g. "HP EG0600FBVFP".
		if fields[0] != "ATA" {
			vendor = utils.NormalizeVendor(fields[0])
		}
		modelName = strings.Join(fields[1:], " ")
	}

	return model.StorageComponent{
		Key:           key,
		ControllerID:  ctrlKey,
		DiskID:        driveID,
		Serial:        utils.NormalizeSerial(props["Serial Number"]),
		Model:         modelName,
		Vendor:        vendor,
		CapacityBytes: capacity,
		MediaType:     ssacliMedia(props),
		RAIDRole:      role,
	}
}
