package collect

import (
	"os"
	"regexp"
	"testing"

	"inventory-agent/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func newFragment(source string) *model.Fragment {
	return &model.Fragment{Source: source, Status: model.FragmentOK}
}

func TestParseDmidecode(t *testing.T) {
	f := newFragment(model.SourceDmidecode)
	require.NoError(t, parseDmidecode(fixture(t, "dmidecode.txt"), f))

	require.NotNil(t, f.System)
	assert.Equal(t, model.SystemFacts{
		Serial:          "ABC123",
		UUID:            "37383638-3330-4d32-3230-333530305a4b",
		Model:           "ProLiant DL360 Gen10",
		Manufacturer:    "HPE",
		FirmwareVersion: "U30",
	}, *f.System)

	require.Len(t, f.Processors, 1)
	assert.Equal(t, model.Processor{
		Socket:       "Proc 1",
		Model:        "Intel(R) Xeon(R) Gold 6130 CPU @ 2.10GHz",
		Manufacturer: "Intel",
		Cores:        16,
		Threads:      32,
	}, f.Processors[0])

	require.Len(t, f.Memory, 1)
	assert.Equal(t, "PROC 1 DIMM 1", f.Memory[0].Slot)
	assert.Equal(t, uint64(32<<30), f.Memory[0].SizeBytes)
	assert.Equal(t, uint64(2666), f.Memory[0].SpeedMTs)

	assert.Equal(t, model.FragmentPartial, f.Status)
	assert.Len(t, f.Warnings, 1)
}

func TestParseDmidecode_Placeholders(t *testing.T) {
	out := []byte("Handle 0x0001, DMI type 1, 27 bytes\nSystem Information\n" +
		"\tManufacturer: To Be Filled By O.E.M.\n" +
		"\tSerial Number: Default string\n" +
		"\tUUID: 03000200-0400-0500-0006-000700080009\n")

	f := newFragment(model.SourceDmidecode)
	require.NoError(t, parseDmidecode(out, f))
	assert.Nil(t, f.System)
	assert.Empty(t, f.Identity())
}

func TestParseDmidecode_Empty(t *testing.T) {
	assert.Error(t, parseDmidecode([]byte("# dmidecode 3.3\nNo SMBIOS nor DMI entry point found, sorry.\n"), newFragment(model.SourceDmidecode)))
}

func TestParseLshw(t *testing.T) {
	f := newFragment(model.SourceLshw)
	require.NoError(t, parseLshw(fixture(t, "lshw.json"), nil, f))

	require.NotNil(t, f.System)
	assert.Equal(t, "node01", f.System.Hostname)
	assert.Equal(t, "ABC123", f.System.Serial)
	assert.Equal(t, "ProLiant DL360 Gen10", f.System.Model)
	assert.Equal(t, "HPE", f.System.Manufacturer)

	require.Len(t, f.Disks, 2, "logical volumes and optical drives are filtered")
	assert.Equal(t, model.StorageComponent{
		Key:           "sda",
		DiskID:        "sda",
		Serial:        "ZA1DISK0",
		Model:         "MB001000GWFGF",
		Vendor:        "Seagate",
		CapacityBytes: 1000204886016,
		MediaType:     model.MediaHDD,
	}, f.Disks[0])
	assert.Equal(t, "sdb", f.Disks[1].Key)
	assert.Equal(t, model.MediaSSD, f.Disks[1].MediaType)

	require.Len(t, f.Interfaces, 2)
	assert.Equal(t, model.NetworkInterface{
		Name:      "eno1",
		MAC:       "94:40:c9:00:00:01",
		SpeedMbps: 1000,
		State:     model.LinkUp,
	}, f.Interfaces[0])
	assert.Equal(t, model.LinkDown, f.Interfaces[1].State)
	assert.Zero(t, f.Interfaces[1].SpeedMbps)

	require.Len(t, f.Processors, 1)
	assert.Equal(t, "Intel", f.Processors[0].Manufacturer)
	require.Len(t, f.Memory, 1)
	assert.Equal(t, uint64(2666), f.Memory[0].SpeedMTs)

	require.Len(t, f.PowerSupplies, 2, "the battery is not a power supply")
	assert.Equal(t, model.PowerSupply{
		Key:           "5WBXK0ABC",
		Serial:        "5WBXK0ABC",
		Model:         "865408-B21",
		Vendor:        "HPE",
		Slot:          "Power Supply 1",
		CapacityWatts: 800,
	}, f.PowerSupplies[0])
	assert.Equal(t, "power:1", f.PowerSupplies[1].Key, "falls back to the node id without a serial")
	assert.Empty(t, f.PowerSupplies[1].Serial)
	assert.Equal(t, uint64(800), f.PowerSupplies[1].CapacityWatts)

	assert.Equal(t, model.FragmentOK, f.Status)
}

func TestParseLshw_LegacyList(t *testing.T) {
	f := newFragment(model.SourceLshw)
	require.NoError(t, parseLshw([]byte(`[{"id":"host","class":"system","serial":"XYZ"}]`), nil, f))
	require.NotNil(t, f.System)
	assert.Equal(t, "XYZ", f.System.Serial)
}

func TestParseLshw_Malformed(t *testing.T) {
	assert.Error(t, parseLshw([]byte(`{"id":`), nil, newFragment(model.SourceLshw)))
	assert.Error(t, parseLshw([]byte(" "), nil, newFragment(model.SourceLshw)))
}

func TestParseStorcli(t *testing.T) {
	f := newFragment(model.SourceStorcli)
	require.NoError(t, parseStorcli(fixture(t, "storcli.json"), f))
	require.NoError(t, parseStorcliDrives(fixture(t, "storcli_drives.json"), f))

	require.Len(t, f.Controllers, 1)
	assert.Equal(t, model.StorageController{
		Key:      "c0",
		Model:    "PERC H730P Mini",
		Serial:   "5BF00XX",
		Firmware: "4.300.00-8366",
		Slot:     "00:18:00:00",
	}, f.Controllers[0])

	require.Len(t, f.Disks, 3)
	byKey := make(map[string]model.StorageComponent)
	for _, d := range f.Disks {
		byKey[d.Key] = d
	}

	member := byKey["c0:e32:s0"]
	assert.Equal(t, "c0", member.ControllerID)
	assert.Equal(t, "0", member.DiskID)
	assert.Equal(t, "WFK0DISK", member.Serial)
	assert.Equal(t, model.RAIDMember, member.RAIDRole)
	assert.Equal(t, model.MediaHDD, member.MediaType)
	assert.Equal(t, uint64(1198467674276), member.CapacityBytes)

	spare := byKey["c0:e32:s1"]
	assert.Equal(t, model.RAIDSpare, spare.RAIDRole)
	assert.Equal(t, model.MediaSSD, spare.MediaType)
	assert.Equal(t, uint64(959656755200), spare.CapacityBytes)
	assert.Equal(t, "S47PSSD1", spare.Serial)

	unassigned := byKey["c0:e32:s2"]
	assert.Equal(t, model.RAIDUnassigned, unassigned.RAIDRole)
	assert.Zero(t, unassigned.CapacityBytes)

	assert.Empty(t, unassigned.Serial)

	// Bad size, missing EID:Slt and the failed controller.
	assert.Equal(t, model.FragmentPartial, f.Status)
	assert.Len(t, f.Warnings, 3)
}

func TestParseStorcli_ControllerListHasNoSerials(t *testing.T) {
	f := newFragment(model.SourceStorcli)
	require.NoError(t, parseStorcli(fixture(t, "storcli.json"), f))

	require.Len(t, f.Disks, 3)
	for _, d := range f.Disks {
		assert.Empty(t, d.Serial, d.Key)
	}
}

func TestParseStorcli_NoController(t *testing.T) {
	out := []byte(`{"Controllers":[{"Command Status":{"Controller":"All","Status":"Failure","Description":"No Controller found"}}]}`)
	err := parseStorcli(out, newFragment(model.SourceStorcli))
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoHardware)

	err = parseStorcli([]byte(`{"Controllers":[]}`), newFragment(model.SourceStorcli))
	assert.ErrorIs(t, err, errNoHardware)

	f := newFragment(model.SourceStorcli)
	err = parseStorcli([]byte(`{"Controllers":[{"Command Status":{"Controller":0,"Status":"Failure","Description":"Controller 0 not responding"}}]}`), f)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNoHardware, "a controller that failed to answer is not missing hardware")
}

func TestParseStorcliDrives_Malformed(t *testing.T) {
	f := newFragment(model.SourceStorcli)
	assert.Error(t, parseStorcliDrives([]byte(`{"Controllers":`), f))
	assert.Equal(t, model.FragmentOK, f.Status)
}

func TestStorcliRole(t *testing.T) {
	tests := map[string]string{
		"Onln":  model.RAIDMember,
		"GHS":   model.RAIDSpare,
		"DHS":   model.RAIDSpare,
		"UGood": model.RAIDUnassigned,
		"JBOD":  model.RAIDJBOD,
	}
	for state, want := range tests {
		got, ok := storcliRole(state)
		assert.True(t, ok, state)
		assert.Equal(t, want, got, state)
	}
	_, ok := storcliRole("Sntze")
	assert.False(t, ok)
}

func TestParseSsacli(t *testing.T) {
	f := newFragment(model.SourceSsacli)
	require.NoError(t, parseSsacli(fixture(t, "ssacli.txt"), f))

	require.Len(t, f.Controllers, 1)
	assert.Equal(t, model.StorageController{
		Key:      "s0",
		Model:    "Smart Array P440ar",
		Serial:   "PDNLH0BRH7V2MK",
		Firmware: "7.00",
		Slot:     "0",
	}, f.Controllers[0])

	require.Len(t, f.Disks, 3)
	assert.Equal(t, model.StorageComponent{
		Key:           "s0:1I:1:1",
		ControllerID:  "s0",
		DiskID:        "1I:1:1",
		Serial:        "S0K1AAAA",
		Model:         "EG0600FBVFP",
		Vendor:        "HPE",
		CapacityBytes: 600_000_000_000,
		MediaType:     model.MediaHDD,
		RAIDRole:      model.RAIDMember,
	}, f.Disks[0])

	assert.Equal(t, "s0:1I:1:2", f.Disks[1].Key)
	assert.Equal(t, model.RAIDSpare, f.Disks[1].RAIDRole)
	assert.Equal(t, model.MediaSSD, f.Disks[1].MediaType)
	assert.Empty(t, f.Disks[1].Vendor)

	assert.Equal(t, "s0:2I:1:5", f.Disks[2].Key)
	assert.Equal(t, model.RAIDUnassigned, f.Disks[2].RAIDRole)
	assert.Equal(t, uint64(1_200_000_000_000), f.Disks[2].CapacityBytes)

	assert.Equal(t, model.FragmentPartial, f.Status)
	assert.Len(t, f.Warnings, 1)
}

func TestParseSsacli_NoController(t *testing.T) {
	err := parseSsacli([]byte("Error: No controllers detected.\n"), newFragment(model.SourceSsacli))
	assert.ErrorIs(t, err, errNoHardware)
}

func TestParseIPLink(t *testing.T) {
	f := newFragment(model.SourceIP)
	ignore := regexp.MustCompile(`^(lo|docker[0-9]+)$`)
	ignoreAddr := regexp.MustCompile(`^(127\.|::1$|fe80:)`)
	require.NoError(t, parseIPLink(fixture(t, "ip.json"), ignore, ignoreAddr, f))

	require.Len(t, f.Interfaces, 4)
	byName := make(map[string]model.NetworkInterface)
	for _, nic := range f.Interfaces {
		byName[nic.Name] = nic
	}

	assert.Equal(t, model.NetworkInterface{
		Name:      "eno1",
		MAC:       "94:40:c9:00:00:01",
		State:     model.LinkUp,
		MTU:       1500,
		Addresses: []string{"10.1.2.3/24", "2001:db8::3/64"},
	}, byName["eno1"], "link-local addresses are ignored")

	slave := byName["eno2"]
	assert.Equal(t, "94:40:c9:00:00:02", slave.MAC, "permanent address wins over bond address")
	assert.Equal(t, model.LinkDown, slave.State)
	assert.Equal(t, "bond0", slave.Master)
	assert.Empty(t, slave.LinkKind)
	assert.Empty(t, slave.Addresses)

	bond := byName["bond0"]
	assert.Equal(t, "bond", bond.LinkKind)
	assert.Equal(t, []string{"10.9.0.5/22"}, bond.Addresses)

	vlan := byName["eno1.50"]
	assert.Equal(t, "vlan", vlan.LinkKind)
	assert.Equal(t, "eno1", vlan.Parent)
	assert.Equal(t, uint64(50), vlan.VLANID)
	assert.Equal(t, []string{"192.168.50.3/24"}, vlan.Addresses)

	assert.Equal(t, model.FragmentPartial, f.Status)
	assert.Len(t, f.Warnings, 2)
}

func TestParseIPLink_NoAddressFilter(t *testing.T) {
	f := newFragment(model.SourceIP)
	require.NoError(t, parseIPLink(fixture(t, "ip.json"), nil, nil, f))

	for _, nic := range f.Interfaces {
		if nic.Name == "eno1" {
			assert.Contains(t, nic.Addresses, "fe80::9640:c9ff:fe00:1/64")
		}
		assert.NotEqual(t, "lo", nic.Name, "loopback is skipped by link type")
	}
}

func TestParseIpmitool(t *testing.T) {
	t.Run("static address", func(t *testing.T) {
		f := newFragment(model.SourceIpmitool)
		require.NoError(t, parseIpmitool(fixture(t, "ipmitool.txt"), "ref", f))
		assert.Equal(t, &model.BMCFacts{
			Address:       "10.0.0.42",
			MAC:           "94:40:c9:aa:bb:cc",
			Source:        "static address",
			CredentialRef: "ref",
		}, f.BMC)
		assert.Equal(t, model.FragmentOK, f.Status)
	})

	t.Run("unconfigured address", func(t *testing.T) {
		f := newFragment(model.SourceIpmitool)
		out := []byte("IP Address              : 0.0.0.0\nMAC Address             : 94:40:c9:aa:bb:cc\n")
		require.NoError(t, parseIpmitool(out, "", f))
		assert.Empty(t, f.BMC.Address)
		assert.Equal(t, "94:40:c9:aa:bb:cc", f.BMC.MAC)
	})

	t.Run("nothing usable", func(t *testing.T) {
		out := []byte("IP Address              : 0.0.0.0\nMAC Address             : 00:00:00:00:00:00\n")
		assert.Error(t, parseIpmitool(out, "", newFragment(model.SourceIpmitool)))
	})
}
