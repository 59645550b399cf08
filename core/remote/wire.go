package remote

import "inventory-agent/core/model"

// DeviceResource is the JSON representation of a device in the remote API.
type DeviceResource struct {
	ID               string              `json:"id,omitempty"`
	Identity         string              `json:"identity"`
	Serial           string              `json:"serial,omitempty"`
	UUID             string              `json:"uuid,omitempty"`
	Hostname         string              `json:"hostname,omitempty"`
	Model            string              `json:"model,omitempty"`
	Manufacturer     string              `json:"manufacturer,omitempty"`
	FirmwareVersion  string              `json:"firmware_version,omitempty"`
	BMCAddress       string              `json:"bmc_address,omitempty"`
	BMCMAC           string              `json:"bmc_mac,omitempty"`
	BMCCredentialRef string              `json:"bmc_credential_ref,omitempty"`
	Components       []ComponentResource `json:"components"`
}

// ComponentResource is the JSON representation of a component.
type ComponentResource struct {
	ID     string              `json:"id,omitempty"`
	Kind   model.ComponentKind `json:"kind"`
	Key    string              `json:"key"`
	Fields map[string]string   `json:"fields"`
}

// ListResponse wraps lookup results.
type ListResponse struct {
	Results []DeviceResource `json:"results"`
}

// ComponentPatch is the body of a component update.
type ComponentPatch struct {
	Fields map[string]string `json:"fields"`
}

// NewDeviceResource converts a local device to its wire form.
func NewDeviceResource(d model.Device) DeviceResource {
	res := DeviceResource{Identity: d.Identity, Components: []ComponentResource{}}
	res.Set(d.Fields())
	for _, c := range d.Components() {
		res.Components = append(res.Components, ComponentResource{Kind: c.Kind, Key: c.Key, Fields: c.Fields})
	}
	return res
}

// Set assigns scalar fields by name. Unknown names are ignored.
func (r *DeviceResource) Set(fields map[string]string) {
	for name, value := range fields {
		switch name {
		case model.FieldSerial:
			r.Serial = value
		case model.FieldUUID:
			r.UUID = value
		case model.FieldHostname:
			r.Hostname = value
		case model.FieldModel:
			r.Model = value
		case model.FieldManufacturer:
			r.Manufacturer = value
		case model.FieldFirmwareVersion:
			r.FirmwareVersion = value
		case model.FieldBMCAddress:
			r.BMCAddress = value
		case model.FieldBMCMAC:
			r.BMCMAC = value
		case model.FieldBMCCredentialRef:
			r.BMCCredentialRef = value
		}
	}
}

// Record converts the wire form to a RemoteRecord.
func (r DeviceResource) Record() *model.RemoteRecord {
	d := model.Device{
		Identity:         r.Identity,
		Serial:           r.Serial,
		UUID:             r.UUID,
		Hostname:         r.Hostname,
		Model:            r.Model,
		Manufacturer:     r.Manufacturer,
		FirmwareVersion:  r.FirmwareVersion,
		BMCAddress:       r.BMCAddress,
		BMCMAC:           r.BMCMAC,
		BMCCredentialRef: r.BMCCredentialRef,
	}
	ids := make(map[model.ComponentRef]string, len(r.Components))
	for _, c := range r.Components {
		fields := make(map[string]string, len(c.Fields))
		for k, v := range c.Fields {
			if v != "" {
				fields[k] = v
			}
		}
		comp := model.Component{Kind: c.Kind, Key: c.Key, Fields: fields}
		d.AddComponent(comp)
		ids[comp.Ref()] = c.ID
	}
	d.Sort()
	return &model.RemoteRecord{ID: r.ID, Device: d, ComponentIDs: ids}
}
