package collect

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"inventory-agent/core/model"
	"inventory-agent/core/runner"
	"inventory-agent/core/utils"
)

type storcliOutput struct {
	Controllers []storcliController `json:"Controllers"`
}

type storcliController struct {
	CommandStatus struct {
		Controller  any    `json:"Controller"`
		Status      string `json:"Status"`
		Description string `json:"Description"`
	} `json:"Command Status"`
	ResponseData map[string]json.RawMessage `json:"Response Data"`
}

type storcliBasics struct {
	Controller   any    `json:"Controller"`
	Model        string `json:"Model"`
	SerialNumber string `json:"Serial Number"`
	PCIAddress   string `json:"PCI Address"`
}

type storcliVersion struct {
	FirmwareVersion string `json:"Firmware Version"`
}

type storcliPD struct {
	EIDSlot string `json:"EID:Slt"`
	DID     any    `json:"DID"`
	State   string `json:"State"`
	Size    string `json:"Size"`
	Intf    string `json:"Intf"`
	Med     string `json:"Med"`
	Model   string `json:"Model"`
}

var (
	storcliDriveAttrRe = regexp.MustCompile(`^Drive /c(\d+)/e(\d+)/s(\d+) Device attributes$`)
	storcliAbsentRe    = regexp.MustCompile(`(?i)no controllers? found`)
)

func newStorcli(cfg ToolConfig) *toolAdapter {
	return &toolAdapter{
		name: model.SourceStorcli,
		cmd: runner.Command{
			Path:    cfg.binary("storcli"),
			Args:    []string{"/call", "show", "all", "J"},
			Timeout: cfg.Timeout(),
		},
		parse: parseStorcli,
		// Drive serials are only printed per drive.
		followUps: []followUp{{
			cmd: runner.Command{
				Path:    cfg.binary("storcli"),
				Args:    []string{"/call/eall/sall", "show", "all", "J"},
				Timeout: cfg.Timeout(),
			},
			parse: parseStorcliDrives,
		}},
		absent: storcliAbsentRe,
	}
}

// storcliRole maps a physical drive state to its RAID role.
func storcliRole(state string) (string, bool) {
	switch strings.TrimSpace(state) {
	case "Onln", "Offln", "Rbld", "Cpybck":
		return model.RAIDMember, true
	case "GHS", "DHS":
		return model.RAIDSpare, true
	case "UGood", "UBad", "UGUnsp", "UBUnsp":
		return model.RAIDUnassigned, true
	case "JBOD":
		return model.RAIDJBOD, true
	}
	return "", false
}

func storcliMedia(med, intf string) string {
	switch {
	case strings.EqualFold(strings.TrimSpace(intf), "NVMe"):
		return model.MediaNVMe
	case strings.EqualFold(strings.TrimSpace(med), "SSD"):
		return model.MediaSSD
	case strings.EqualFold(strings.TrimSpace(med), "HDD"):
		return model.MediaHDD
	}
	return ""
}

func parseStorcli(out []byte, f *model.Fragment) error {
	var doc storcliOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		return fmt.Errorf("decode storcli json: %w", err)
	}

	failures := 0
	for _, c := range doc.Controllers {
		if !strings.EqualFold(c.CommandStatus.Status, "Success") {
			if storcliAbsentRe.MatchString(c.CommandStatus.Description) {
				continue
			}
			failures++
			f.Warn(fmt.Sprintf("storcli controller %v: %s", c.CommandStatus.Controller, c.CommandStatus.Description))
			continue
		}
		parseStorcliController(c, f)
	}

	switch {
	case len(f.Controllers) > 0:
		return nil
	case failures > 0:
		return fmt.Errorf("storcli could not read any of %d controllers", failures)
	default:
		return fmt.Errorf("storcli reported no controllers: %w", errNoHardware)
	}
}

func parseStorcliController(c storcliController, f *model.Fragment) {
	var basics storcliBasics
	if raw, ok := c.ResponseData["Basics"]; ok {
		if err := json.Unmarshal(raw, &basics); err != nil {
			f.Warn(fmt.Sprintf("storcli controller %v: malformed Basics section", c.CommandStatus.Controller))
		}
	}
	idx := utils.ToString(c.CommandStatus.Controller)
	if basics.Controller != nil {
		idx = utils.ToString(basics.Controller)
	}
	ctrlKey := "c" + idx

	var version storcliVersion
	if raw, ok := c.ResponseData["Version"]; ok {
		_ = json.Unmarshal(raw, &version)
	}
	f.Controllers = append(f.Controllers, model.StorageController{
		Key:      ctrlKey,
		Model:    utils.CleanString(basics.Model),
		Serial:   utils.NormalizeSerial(basics.SerialNumber),
		Firmware: utils.CleanString(version.FirmwareVersion),
		Slot:     utils.CleanString(basics.PCIAddress),
	})

	var pds []storcliPD
	if raw, ok := c.ResponseData["PD LIST"]; ok {
		if err := json.Unmarshal(raw, &pds); err != nil {
			f.Warn(fmt.Sprintf("storcli controller %s: malformed PD LIST", ctrlKey))
			return
		}
	}
	for _, pd := range pds {
		eid, slot, ok := strings.Cut(pd.EIDSlot, ":")
		if !ok || strings.TrimSpace(eid) == "" || strings.TrimSpace(slot) == "" {
			f.Warn(fmt.Sprintf("storcli controller %s: drive without EID:Slt %q", ctrlKey, pd.EIDSlot))
			continue
		}
		eid, slot = strings.TrimSpace(eid), strings.TrimSpace(slot)

		role, known := storcliRole(pd.State)
		if !known {
			f.Warn(fmt.Sprintf("storcli drive %s:e%s:s%s: unknown state %q", ctrlKey, eid, slot, pd.State))
		}
		capacity, ok := utils.ParseCapacity(pd.Size, true)
		if !ok {
			f.Warn(fmt.Sprintf("storcli drive %s:e%s:s%s: unparsable size %q", ctrlKey, eid, slot, pd.Size))
		}

		f.Disks = append(f.Disks, model.StorageComponent{
			Key:           fmt.Sprintf("%s:e%s:s%s", ctrlKey, eid, slot),
			ControllerID:  ctrlKey,
			DiskID:        utils.ToString(pd.DID),
			Model:         utils.CleanString(pd.Model),
			CapacityBytes: capacity,
			MediaType:     storcliMedia(pd.Med, pd.Intf),
			RAIDRole:      role,
		})
	}
}

// parseStorcliDrives fills in drive serial numbers from the per-drive
// "Device attributes" blocks of the drive listing.
func parseStorcliDrives(out []byte, f *model.Fragment) error {
	var doc storcliOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		return fmt.Errorf("decode storcli json: %w", err)
	}

	serials := make(map[string]string)
	for _, c := range doc.Controllers {
		if !strings.EqualFold(c.CommandStatus.Status, "Success") {
			continue
		}
		for name, body := range c.ResponseData {
			if !strings.HasSuffix(name, " - Detailed Information") {
				continue
			}
			var detail map[string]json.RawMessage
			if err := json.Unmarshal(body, &detail); err != nil {
				f.Warn(fmt.Sprintf("storcli %s: malformed section", name))
				continue
			}
			for attrName, attrBody := range detail {
				m := storcliDriveAttrRe.FindStringSubmatch(attrName)
				if m == nil {
					continue
				}
				var attrs map[string]any
				if err := json.Unmarshal(attrBody, &attrs); err != nil {
					f.Warn(fmt.Sprintf("storcli %s: malformed device attributes", attrName))
					continue
				}
				if sn := utils.NormalizeSerial(utils.ToString(attrs["SN"])); sn != "" {
					serials[fmt.Sprintf("c%s:e%s:s%s", m[1], m[2], m[3])] = sn
				}
			}
		}
	}

	for i := range f.Disks {
		if sn, ok := serials[f.Disks[i].Key]; ok {
			f.Disks[i].Serial = sn
		}
	}
	return nil
}
