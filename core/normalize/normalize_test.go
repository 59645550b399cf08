package normalize

import (
	"testing"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/model"
	"inventory-agent/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(source string) model.Fragment {
	return model.Fragment{Source: source, Status: model.FragmentOK}
}

func failedFragment(source string, kind agenterrors.Kind) model.Fragment {
	return model.Fragment{
		Source:    source,
		Status:    model.FragmentFailed,
		Reason:    "executable not found",
		ErrorKind: string(kind),
	}
}

func TestNormalize_ThreeAdapterScenario(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123", Model: "Gen10"}

	lshw := ok(model.SourceLshw)
	lshw.System = &model.SystemFacts{Serial: "ABC123"}
	lshw.Disks = []model.StorageComponent{
		{Key: "disk0", DiskID: "disk0", CapacityBytes: 1_000_000_000_000},
		{Key: "disk1", DiskID: "disk1", CapacityBytes: 2_000_000_000_000},
	}

	raid := failedFragment(model.SourceStorcli, agenterrors.KindToolUnavailable)

	device, report, err := Normalize([]model.Fragment{dmi, lshw, raid})
	require.NoError(t, err)

	assert.Equal(t, "ABC123", device.Identity)
	assert.Equal(t, model.SourceDmidecode, report.IdentitySource)
	assert.Equal(t, "Gen10", device.Model)
	require.Len(t, device.Storage, 2)
	for _, d := range device.Storage {
		assert.Empty(t, d.RAIDRole)
	}
	assert.Equal(t, uint64(1_000_000_000_000), device.Storage[0].CapacityBytes)
	assert.Equal(t, "disk1", device.Storage[1].Key)
	assert.False(t, device.Complete[model.KindDisk], "a failed RAID adapter leaves disks incomplete")
	assert.Empty(t, report.Conflicts)
}

func TestNormalize_IdentityUnresolved(t *testing.T) {
	lshw := ok(model.SourceLshw)
	lshw.System = &model.SystemFacts{Hostname: "node01"}

	_, _, err := Normalize([]model.Fragment{
		lshw,
		failedFragment(model.SourceDmidecode, agenterrors.KindToolTimeout),
	})
	require.Error(t, err)
	assert.True(t, agenterrors.IsKind(err, agenterrors.KindIdentityUnresolved))

	_, _, err = Normalize(nil)
	assert.True(t, agenterrors.IsKind(err, agenterrors.KindIdentityUnresolved))
}

func TestNormalize_Identity(t *testing.T) {
	t.Run("highest authority fragment wins", func(t *testing.T) {
		lshw := ok(model.SourceLshw)
		lshw.System = &model.SystemFacts{Serial: "LSHW-SERIAL"}
		dmi := ok(model.SourceDmidecode)
		dmi.System = &model.SystemFacts{Serial: "DMI-SERIAL"}

		device, report, err := Normalize([]model.Fragment{lshw, dmi})
		require.NoError(t, err)
		assert.Equal(t, "DMI-SERIAL", device.Identity)
		assert.Equal(t, "DMI-SERIAL", device.Serial)
		require.Len(t, report.Conflicts, 1)
		assert.Equal(t, "LSHW-SERIAL", report.Conflicts[0].Discarded)
	})

	t.Run("uuid when no serial", func(t *testing.T) {
		dmi := ok(model.SourceDmidecode)
		dmi.System = &model.SystemFacts{UUID: "37383638-3330-4D32-3230-333530305A4B"}

		device, _, err := Normalize([]model.Fragment{dmi})
		require.NoError(t, err)
		assert.Equal(t, "37383638-3330-4d32-3230-333530305a4b", device.Identity)
		assert.Equal(t, "37383638-3330-4d32-3230-333530305a4b", device.UUID)
	})

	t.Run("partial fragments still vouch for identity", func(t *testing.T) {
		lshw := ok(model.SourceLshw)
		lshw.System = &model.SystemFacts{Serial: "ABC123"}
		lshw.Warn("skipped line")

		device, report, err := Normalize([]model.Fragment{lshw})
		require.NoError(t, err)
		assert.Equal(t, "ABC123", device.Identity)
		assert.Equal(t, []string{"lshw: skipped line"}, report.Warnings)
	})
}

func TestNormalize_Authority(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123", Model: "ProLiant DL360 Gen10"}
	lshw := ok(model.SourceLshw)
	lshw.System = &model.SystemFacts{Serial: "ABC123", Model: "ProLiant DL360 Gen10 Plus", Hostname: "node01"}

	for name, fragments := range map[string][]model.Fragment{
		"higher authority first": {dmi, lshw},
		"higher authority last":  {lshw, dmi},
	} {
		t.Run(name, func(t *testing.T) {
			device, report, err := Normalize(fragments)
			require.NoError(t, err)
			assert.Equal(t, "ProLiant DL360 Gen10", device.Model)
			assert.Equal(t, "node01", device.Hostname, "lower authority fills gaps")

			require.Len(t, report.Conflicts, 1)
			c := report.Conflicts[0]
			assert.Equal(t, "system", c.Entity)
			assert.Equal(t, model.FieldModel, c.Field)
			assert.Equal(t, model.SourceDmidecode, c.KeptSource)
			assert.Equal(t, "ProLiant DL360 Gen10 Plus", c.Discarded)
		})
	}
}

func TestNormalize_TieFirstWins(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123"}

	storcli := ok(model.SourceStorcli)
	storcli.Controllers = []model.StorageController{{Key: "c0", Model: "PERC H730P"}}
	ssacli := ok(model.SourceSsacli)
	ssacli.Controllers = []model.StorageController{{Key: "c0", Model: "Smart Array P440ar"}}

	device, report, err := Normalize([]model.Fragment{dmi, storcli, ssacli})
	require.NoError(t, err)
	require.Len(t, device.Controllers, 1)
	assert.Equal(t, "PERC H730P", device.Controllers[0].Model)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "controller/c0", report.Conflicts[0].Entity)
	assert.Equal(t, model.SourceSsacli, report.Conflicts[0].DiscardedSource)
}

func TestNormalize_DiskMergedBySerial(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123"}

	lshw := ok(model.SourceLshw)
	lshw.Disks = []model.StorageComponent{
		{Key: "sda", DiskID: "sda", Serial: "WFK0DISK", Vendor: "Seagate", CapacityBytes: 1_200_243_695_616, MediaType: model.MediaHDD, RAIDRole: model.RAIDMember},
		{Key: "sdb", DiskID: "sdb", Serial: "ONLYLSHW", CapacityBytes: 500_000_000_000},
	}
	storcli := ok(model.SourceStorcli)
	storcli.Disks = []model.StorageComponent{
		{Key: "c0:e32:s0", ControllerID: "c0", DiskID: "0", Serial: " WFK0DISK ", CapacityBytes: 1_200_243_695_616, RAIDRole: model.RAIDJBOD},
	}

	for name, fragments := range map[string][]model.Fragment{
		"lshw first":    {dmi, lshw, storcli},
		"storcli first": {dmi, storcli, lshw},
	} {
		t.Run(name, func(t *testing.T) {
			device, report, err := Normalize(fragments)
			require.NoError(t, err)
			require.Len(t, device.Storage, 2)

			raid := device.Storage[0]
			assert.Equal(t, "c0:e32:s0", raid.Key)
			assert.Equal(t, "0", raid.DiskID)
			assert.Equal(t, "c0", raid.ControllerID)
			assert.Equal(t, "WFK0DISK", raid.Serial)
			assert.Equal(t, model.RAIDJBOD, raid.RAIDRole, "raid role only from RAID adapters")
			assert.Equal(t, "Seagate", raid.Vendor)
			assert.Equal(t, model.MediaHDD, raid.MediaType)

			assert.Equal(t, "sdb", device.Storage[1].Key)
			assert.Empty(t, report.Conflicts)
			assert.Len(t, report.Warnings, 1)
		})
	}
}

func TestNormalize_Interfaces(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123"}

	lshw := ok(model.SourceLshw)
	lshw.Interfaces = []model.NetworkInterface{
		{Name: "eno1", MAC: "94:40:C9:00:00:01", SpeedMbps: 1000, State: model.LinkDown},
	}
	ip := ok(model.SourceIP)
	ip.Interfaces = []model.NetworkInterface{
		{Name: "eno2", MAC: "94-40-c9-00-00-02", State: model.LinkDown, MTU: 9000},
		{Name: "eno1", MAC: "94:40:c9:00:00:01", State: model.LinkUp, SpeedMbps: 25000, MTU: 1500},
	}

	device, report, err := Normalize([]model.Fragment{dmi, lshw, ip})
	require.NoError(t, err)
	require.Len(t, device.Interfaces, 2)

	assert.Equal(t, model.NetworkInterface{
		Name:      "eno1",
		MAC:       "94:40:c9:00:00:01",
		SpeedMbps: 1000,
		State:     model.LinkUp,
		MTU:       1500,
	}, device.Interfaces[0])
	assert.Equal(t, "94:40:c9:00:00:02", device.Interfaces[1].MAC)

	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "state", report.Conflicts[0].Field)
	assert.Equal(t, model.SourceIP, report.Conflicts[0].KeptSource)
}

func TestNormalize_BMC(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123"}
	ipmi := ok(model.SourceIpmitool)
	ipmi.BMC = &model.BMCFacts{Address: "10.0.0.42", MAC: "94:40:C9:AA:BB:CC", CredentialRef: "vault://bmc"}

	device, _, err := Normalize([]model.Fragment{dmi, ipmi})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.42", device.BMCAddress)
	assert.Equal(t, "94:40:c9:aa:bb:cc", device.BMCMAC)
	assert.Equal(t, "vault://bmc", device.BMCCredentialRef)
}

func TestNormalize_Complete(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123"}
	lshw := ok(model.SourceLshw)
	storcli := ok(model.SourceStorcli)
	ip := ok(model.SourceIP)
	ip.Warn("entry 3: missing ifname")

	device, _, err := Normalize([]model.Fragment{dmi, lshw, storcli, ip})
	require.NoError(t, err)

	assert.True(t, device.Complete[model.KindDisk])
	assert.True(t, device.Complete[model.KindController])
	assert.True(t, device.Complete[model.KindProcessor])
	assert.True(t, device.Complete[model.KindPowerSupply])
	assert.False(t, device.Complete[model.KindInterface], "the most trusted interface source was partial")

	device, _, err = Normalize([]model.Fragment{dmi})
	require.NoError(t, err)
	assert.False(t, device.Complete[model.KindDisk], "no source reported disks")
}

func TestNormalize_CompleteWithMissingTools(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123"}
	lshw := ok(model.SourceLshw)
	storcli := ok(model.SourceStorcli)
	storcli.Disks = []model.StorageComponent{{Key: "c0:e32:s0", ControllerID: "c0", Serial: "DISK0"}}
	ssacli := failedFragment(model.SourceSsacli, agenterrors.KindToolUnavailable)

	t.Run("unavailable RAID tool does not block removals", func(t *testing.T) {
		device, _, err := Normalize([]model.Fragment{dmi, lshw, storcli, ssacli})
		require.NoError(t, err)
		assert.True(t, device.Complete[model.KindDisk])
		assert.True(t, device.Complete[model.KindController])

		remote := &model.RemoteRecord{ID: "dev-1", Device: model.Device{
			Identity: "ABC123",
			Serial:   "ABC123",
			Storage: []model.StorageComponent{
				{Key: "c0:e32:s0", ControllerID: "c0", Serial: "DISK0"},
				{Key: "c0:e32:s9", ControllerID: "c0", Serial: "GONE"},
			},
		}}
		cs := reconcile.Diff(device, remote, reconcile.Options{AuthoritativeRemovals: true})
		require.Len(t, cs.Operations, 1)
		assert.Equal(t, reconcile.OpRemoveComponent, cs.Operations[0].Type)
		assert.Empty(t, cs.Untouched)
	})

	t.Run("no RAID tools leaves lshw in charge of disks", func(t *testing.T) {
		device, _, err := Normalize([]model.Fragment{dmi, lshw, failedFragment(model.SourceStorcli, agenterrors.KindToolUnavailable), ssacli})
		require.NoError(t, err)
		assert.True(t, device.Complete[model.KindDisk])
		assert.False(t, device.Complete[model.KindController], "nothing reported controllers")
	})

	t.Run("lower ranked partial source does not block", func(t *testing.T) {
		partial := ok(model.SourceLshw)
		partial.Warn("lshw interface eno3: unparsable speed")
		device, _, err := Normalize([]model.Fragment{dmi, partial, storcli, ssacli})
		require.NoError(t, err)
		assert.True(t, device.Complete[model.KindDisk])
		assert.True(t, device.Complete[model.KindMemory])
		assert.False(t, device.Complete[model.KindPowerSupply], "lshw is the only power supply source")
	})

	for _, kind := range []agenterrors.Kind{agenterrors.KindToolTimeout, agenterrors.KindToolExecutionError} {
		t.Run(string(kind)+" blocks removals", func(t *testing.T) {
			device, _, err := Normalize([]model.Fragment{dmi, lshw, storcli, failedFragment(model.SourceSsacli, kind)})
			require.NoError(t, err)
			assert.False(t, device.Complete[model.KindDisk])
			assert.False(t, device.Complete[model.KindController])
			assert.True(t, device.Complete[model.KindProcessor])
		})
	}
}

func TestNormalize_PowerSuppliesAndAddresses(t *testing.T) {
	lshw := ok(model.SourceLshw)
	lshw.System = &model.SystemFacts{Serial: "ABC123"}
	lshw.PowerSupplies = []model.PowerSupply{{Key: "PSU1SERIAL", Serial: "PSU1SERIAL", Model: "865408-B21", CapacityWatts: 800}}
	lshw.Interfaces = []model.NetworkInterface{{Name: "eno1", SpeedMbps: 10000, Addresses: []string{"192.0.2.99/24"}}}
	ip := ok(model.SourceIP)
	ip.Interfaces = []model.NetworkInterface{{Name: "eno1", MAC: "94:40:c9:00:00:01", Addresses: []string{"10.1.2.3/24", "2001:db8::3/64"}}}

	device, _, err := Normalize([]model.Fragment{lshw, ip})
	require.NoError(t, err)

	require.Len(t, device.PowerSupplies, 1)
	assert.Equal(t, uint64(800), device.PowerSupplies[0].CapacityWatts)
	require.Len(t, device.Interfaces, 1)
	assert.Equal(t, []string{"10.1.2.3/24", "2001:db8::3/64"}, device.Interfaces[0].Addresses, "addresses come from ip only")
	assert.Equal(t, uint64(10000), device.Interfaces[0].SpeedMbps)
}

func TestNormalize_Deterministic(t *testing.T) {
	dmi := ok(model.SourceDmidecode)
	dmi.System = &model.SystemFacts{Serial: "ABC123"}
	dmi.Memory = []model.MemoryModule{
		{Slot: "DIMM B1", SizeBytes: 32 << 30},
		{Slot: "DIMM A1", SizeBytes: 32 << 30},
	}

	first, _, err := Normalize([]model.Fragment{dmi})
	require.NoError(t, err)
	second, _, err := Normalize([]model.Fragment{dmi})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "DIMM A1", first.MemoryModules[0].Slot)
}
