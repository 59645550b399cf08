package normalize

import (
	"fmt"
	"sort"
	"strings"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/model"
	"inventory-agent/core/utils"
)

// Report describes how a Device was assembled.
type Report struct {
	// Identity is the stable key chosen for the run.
	Identity string `json:"identity"`
	// IdentitySource is the adapter that supplied the identity.
	IdentitySource string `json:"identity_source"`
	// Conflicts lists values that disagreed with the value kept.
	Conflicts []Conflict `json:"conflicts,omitempty"`
	// Warnings carries fragment warnings prefixed with their source.
	Warnings []string `json:"warnings,omitempty"`
}

// Conflict is one discarded value.
type Conflict struct {
	Entity          string `json:"entity"`
	Field           string `json:"field"`
	Kept            string `json:"kept"`
	KeptSource      string `json:"kept_source"`
	Discarded       string `json:"discarded"`
	DiscardedSource string `json:"discarded_source"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %s: kept %q from %s, discarded %q from %s",
		c.Entity, c.Field, c.Kept, c.KeptSource, c.Discarded, c.DiscardedSource)
}

type fieldValue struct {
	value    string
	source   string
	priority int
}

type record struct {
	key         string
	keyPriority int
	fields      map[string]fieldValue
}

type merger struct {
	scalars     map[string]fieldValue
	components  map[model.ComponentKind]map[string]*record
	diskSerials map[string]string
	report      *Report
}

// Normalize merges adapter fragments into one canonical Device.
//
// Facts are taken from the highest-authority source per category; on a
// tie the earlier fragment wins and the later value is recorded as a
// conflict. Failed fragments contribute nothing; failures other than
// ToolUnavailable also keep their kinds from being complete. It fails
// with IdentityUnresolved when no successful fragment carries a serial
// or UUID.
func Normalize(fragments []model.Fragment) (model.Device, Report, error) {
	report := Report{}
	m := &merger{
		scalars:     make(map[string]fieldValue),
		components:  make(map[model.ComponentKind]map[string]*record),
		diskSerials: make(map[string]string),
		report:      &report,
	}

	identityPriority := 0
	for _, f := range fragments {
		for _, w := range f.Warnings {
			report.Warnings = append(report.Warnings, f.Source+": "+w)
		}
		if !f.Succeeded() {
			continue
		}
		if id := identityOf(f); id != "" {
			if p := priority(CategorySystem, model.FieldSerial, f.Source); p > identityPriority {
				report.Identity, report.IdentitySource, identityPriority = id, f.Source, p
			}
		}
		m.addFragment(f)
	}

	if report.Identity == "" {
		return model.Device{}, report, agenterrors.New(agenterrors.KindIdentityUnresolved, "no adapter reported a serial number or hardware UUID")
	}

	device := m.device()
	device.Identity = report.Identity
	device.Complete = completeness(fragments)
	return device, report, nil
}

// identityOf returns the canonical identity a fragment vouches for.
func identityOf(f model.Fragment) string {
	if f.Identity() == "" {
		return ""
	}
	if serial := utils.NormalizeSerial(f.System.Serial); serial != "" {
		return serial
	}
	return utils.NormalizeUUID(f.System.UUID)
}

func (m *merger) addFragment(f model.Fragment) {
	if s := f.System; s != nil {
		for field, value := range map[string]string{
			model.FieldSerial:          s.Serial,
			model.FieldUUID:            s.UUID,
			model.FieldHostname:        s.Hostname,
			model.FieldModel:           s.Model,
			model.FieldManufacturer:    s.Manufacturer,
			model.FieldFirmwareVersion: s.FirmwareVersion,
		} {
			m.merge("system", CategorySystem, m.scalars, field, value, f.Source)
		}
	}
	if b := f.BMC; b != nil {
		for field, value := range map[string]string{
			model.FieldBMCAddress:       b.Address,
			model.FieldBMCMAC:           b.MAC,
			model.FieldBMCCredentialRef: b.CredentialRef,
		} {
			m.merge("bmc", CategoryBMC, m.scalars, field, value, f.Source)
		}
	}

	for _, c := range f.Controllers {
		m.addComponent(c.Component(), f.Source)
	}
	for _, d := range f.Disks {
		m.addComponent(d.Component(), f.Source)
	}
	for _, n := range f.Interfaces {
		m.addComponent(n.Component(), f.Source)
	}
	for _, p := range f.Processors {
		m.addComponent(p.Component(), f.Source)
	}
	for _, mem := range f.Memory {
		m.addComponent(mem.Component(), f.Source)
	}
	for _, psu := range f.PowerSupplies {
		m.addComponent(psu.Component(), f.Source)
	}
}

func (m *merger) addComponent(c model.Component, source string) {
	cat := Category(c.Kind)
	keyPriority := Authority[cat][source]
	if keyPriority == 0 || c.Key == "" {
		return
	}
	records, ok := m.components[c.Kind]
	if !ok {
		records = make(map[string]*record)
		m.components[c.Kind] = records
	}

	key := c.Key
	if c.Kind == model.KindDisk {
		key = m.diskKey(records, c, keyPriority)
	}

	if key != c.Key {
		// The merged-in disk_id names the other source's device handle.
		delete(c.Fields, "disk_id")
	}

	rec, ok := records[key]
	if !ok {
		rec = &record{key: key, keyPriority: keyPriority, fields: make(map[string]fieldValue)}
		records[key] = rec
	}
	entity := model.ComponentRef{Kind: c.Kind, Key: key}.String()
	for field, value := range c.Fields {
		m.merge(entity, cat, rec.fields, field, value, source)
	}
}

// diskKey resolves the record a disk belongs to. The same physical disk
// is seen by lshw under its block device name and by a RAID adapter under
// its enclosure slot; the serial ties them together and the higher
// authority source decides the key.
func (m *merger) diskKey(records map[string]*record, c model.Component, keyPriority int) string {
	serial := utils.NormalizeSerial(c.Fields["serial"])
	if serial == "" {
		return c.Key
	}
	existing, ok := m.diskSerials[serial]
	if !ok {
		m.diskSerials[serial] = c.Key
		return c.Key
	}
	if existing == c.Key {
		return c.Key
	}

	rec := records[existing]
	if rec == nil || keyPriority <= rec.keyPriority {
		m.report.Warnings = append(m.report.Warnings,
			fmt.Sprintf("disk %s: duplicate serial %s merged into %s", c.Key, serial, existing))
		return existing
	}

	if _, taken := records[c.Key]; !taken {
		delete(records, existing)
		delete(rec.fields, "disk_id")
		rec.key, rec.keyPriority = c.Key, keyPriority
		records[c.Key] = rec
	}
	m.diskSerials[serial] = c.Key
	m.report.Warnings = append(m.report.Warnings,
		fmt.Sprintf("disk %s: duplicate serial %s merged into %s", existing, serial, c.Key))
	return c.Key
}

// merge applies one reported value to a field set under the authority rules.
func (m *merger) merge(entity string, cat Category, fields map[string]fieldValue, field, value, source string) {
	value = canonical(field, value)
	if value == "" {
		return
	}
	p := priority(cat, field, source)
	if p == 0 {
		return
	}

	current, ok := fields[field]
	switch {
	case !ok:
		fields[field] = fieldValue{value: value, source: source, priority: p}
	case current.value == value:
		if p > current.priority {
			fields[field] = fieldValue{value: value, source: source, priority: p}
		}
	case p > current.priority:
		m.conflict(entity, field, value, source, current.value, current.source)
		fields[field] = fieldValue{value: value, source: source, priority: p}
	default:
		m.conflict(entity, field, current.value, current.source, value, source)
	}
}

func (m *merger) conflict(entity, field, kept, keptSource, discarded, discardedSource string) {
	m.report.Conflicts = append(m.report.Conflicts, Conflict{
		Entity:          entity,
		Field:           field,
		Kept:            kept,
		KeptSource:      keptSource,
		Discarded:       discarded,
		DiscardedSource: discardedSource,
	})
}

// canonical re-applies identifier formatting so sources that format
// differently compare equal.
func canonical(field, value string) string {
	switch field {
	case "mac", model.FieldBMCMAC:
		return utils.NormalizeMAC(value)
	case "serial":
		return utils.NormalizeSerial(value)
	case model.FieldUUID:
		return utils.NormalizeUUID(value)
	case "manufacturer", "vendor":
		return utils.NormalizeVendor(value)
	case "state":
		return utils.NormalizeLinkState(value)
	default:
		return strings.TrimSpace(value)
	}
}

func (m *merger) device() model.Device {
	var d model.Device
	for field, fv := range m.scalars {
		d.SetField(field, fv.value)
	}

	for _, kind := range model.ComponentKinds {
		records := m.components[kind]
		keys := make([]string, 0, len(records))
		for k := range records {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields := make(map[string]string, len(records[k].fields))
			for name, fv := range records[k].fields {
				fields[name] = fv.value
			}
			d.AddComponent(model.Component{Kind: kind, Key: k, Fields: fields})
		}
	}
	d.Sort()
	return d
}

// completeness marks a component kind complete when the most trusted
// source that reported it parsed cleanly and no ranked source broke down.
// ToolUnavailable means the tool or its hardware is not present on this
// host, so such fragments do not count against the kind. Timeouts and
// execution errors do, since the tool may have hidden components.
func completeness(fragments []model.Fragment) map[model.ComponentKind]bool {
	complete := make(map[model.ComponentKind]bool)
	for _, kind := range model.ComponentKinds {
		sources := Authority[Category(kind)]
		top, clean, broken := 0, true, false
		for _, f := range fragments {
			p, ranked := sources[f.Source]
			if !ranked {
				continue
			}
			switch {
			case f.Succeeded():
				if p > top {
					top, clean = p, f.Status == model.FragmentOK
				} else if p == top {
					clean = clean && f.Status == model.FragmentOK
				}
			case f.ErrorKind == string(agenterrors.KindToolUnavailable):
			default:
				broken = true
			}
		}
		complete[kind] = top > 0 && clean && !broken
	}
	return complete
}
