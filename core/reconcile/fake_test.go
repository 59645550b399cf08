package reconcile

import (
	"context"
	"fmt"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/model"
)

// memoryRemote is an in-memory Mutator that applies operations to
// RemoteRecords so tests can re-diff against the post-apply state.
type memoryRemote struct {
	records map[string]*model.RemoteRecord
	nextID  int
	calls   []string
	// failures maps "method" or "method:arg" to the error returned.
	failures map[string]error
	// onCall runs before every mutation.
	onCall func(method string)
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{
		records:  make(map[string]*model.RemoteRecord),
		failures: make(map[string]error),
	}
}

func (m *memoryRemote) id() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func (m *memoryRemote) fail(method, arg string) error {
	m.calls = append(m.calls, method+":"+arg)
	if m.onCall != nil {
		m.onCall(method)
	}
	if err, ok := m.failures[method+":"+arg]; ok {
		return err
	}
	return m.failures[method]
}

// seed stores a record as if it had been created remotely.
func (m *memoryRemote) seed(d model.Device) *model.RemoteRecord {
	rec := &model.RemoteRecord{ID: m.id(), Device: cloneDevice(d), ComponentIDs: make(map[model.ComponentRef]string)}
	for _, c := range d.Components() {
		rec.ComponentIDs[c.Ref()] = m.id()
	}
	rec.Device.Complete = nil
	m.records[rec.ID] = rec
	return rec
}

func (m *memoryRemote) byIdentity(identity string) *model.RemoteRecord {
	for _, rec := range m.records {
		if rec.Device.Identity == identity {
			return rec
		}
	}
	return nil
}

func (m *memoryRemote) Lookup(_ context.Context, identity string) (*model.RemoteRecord, error) {
	if err := m.fail("Lookup", identity); err != nil {
		return nil, err
	}
	rec := m.byIdentity(identity)
	if rec == nil {
		return nil, nil
	}
	cp := &model.RemoteRecord{ID: rec.ID, Device: cloneDevice(rec.Device), ComponentIDs: make(map[model.ComponentRef]string)}
	for ref, id := range rec.ComponentIDs {
		cp.ComponentIDs[ref] = id
	}
	return cp, nil
}

// cloneDevice copies a device so that later mutations do not leak into
// the caller's slices.
func cloneDevice(d model.Device) model.Device {
	out := d
	out.Storage, out.Controllers, out.Interfaces, out.Processors, out.MemoryModules = nil, nil, nil, nil, nil
	for _, c := range d.Components() {
		out.AddComponent(c)
	}
	return out
}

func (m *memoryRemote) CreateDevice(_ context.Context, d model.Device) (string, error) {
	if err := m.fail("CreateDevice", d.Identity); err != nil {
		return "", err
	}
	if m.byIdentity(d.Identity) != nil {
		return "", agenterrors.Wrap(agenterrors.KindRemoteFatal, "create device", ErrConflict)
	}
	return m.seed(d).ID, nil
}

func (m *memoryRemote) record(remoteID string) (*model.RemoteRecord, error) {
	rec, ok := m.records[remoteID]
	if !ok {
		return nil, agenterrors.Newf(agenterrors.KindRemoteFatal, "device %s not found", remoteID)
	}
	return rec, nil
}

func (m *memoryRemote) UpdateField(_ context.Context, remoteID, field, value string) error {
	if err := m.fail("UpdateField", field); err != nil {
		return err
	}
	rec, err := m.record(remoteID)
	if err != nil {
		return err
	}
	rec.Device.SetField(field, value)
	return nil
}

func (m *memoryRemote) AddComponent(_ context.Context, remoteID string, c model.Component) error {
	if err := m.fail("AddComponent", c.Ref().String()); err != nil {
		return err
	}
	rec, err := m.record(remoteID)
	if err != nil {
		return err
	}
	rec.Device.AddComponent(c)
	rec.Device.Sort()
	rec.ComponentIDs[c.Ref()] = m.id()
	return nil
}

func (m *memoryRemote) refOf(rec *model.RemoteRecord, componentID string) (model.ComponentRef, error) {
	for ref, id := range rec.ComponentIDs {
		if id == componentID {
			return ref, nil
		}
	}
	return model.ComponentRef{}, agenterrors.Newf(agenterrors.KindRemoteFatal, "component %s not found", componentID)
}

func (m *memoryRemote) UpdateComponent(_ context.Context, remoteID, componentID string, fields map[string]string) error {
	if err := m.fail("UpdateComponent", componentID); err != nil {
		return err
	}
	rec, err := m.record(remoteID)
	if err != nil {
		return err
	}
	ref, err := m.refOf(rec, componentID)
	if err != nil {
		return err
	}
	rec.Device.UpdateComponent(ref, fields)
	return nil
}

func (m *memoryRemote) RemoveComponent(_ context.Context, remoteID, componentID string) error {
	if err := m.fail("RemoveComponent", componentID); err != nil {
		return err
	}
	rec, err := m.record(remoteID)
	if err != nil {
		return err
	}
	ref, err := m.refOf(rec, componentID)
	if err != nil {
		return err
	}
	rec.Device.RemoveComponent(ref)
	delete(rec.ComponentIDs, ref)
	return nil
}

// mutatorOnly hides the Refetcher implementation.
type mutatorOnly struct {
	Mutator
}

func sampleDevice() model.Device {
	d := model.Device{
		Identity:        "ABC123",
		Serial:          "ABC123",
		Model:           "Gen10",
		Manufacturer:    "HPE",
		FirmwareVersion: "U30",
		BMCAddress:      "10.0.0.42",
		Storage: []model.StorageComponent{
			{Key: "disk0", DiskID: "disk0", CapacityBytes: 1_000_000_000_000, MediaType: model.MediaHDD},
			{Key: "disk1", DiskID: "disk1", CapacityBytes: 2_000_000_000_000, MediaType: model.MediaSSD},
		},
		Interfaces: []model.NetworkInterface{
			{Name: "eno1", MAC: "94:40:c9:00:00:01", SpeedMbps: 1000, State: model.LinkUp, MTU: 1500},
		},
		Processors: []model.Processor{{Socket: "Proc 1", Model: "Xeon Gold 6130", Cores: 16, Threads: 32}},
		Complete: map[model.ComponentKind]bool{
			model.KindDisk:      true,
			model.KindInterface: true,
		},
	}
	d.Sort()
	return d
}
