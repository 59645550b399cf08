package reconcile

import (
	"sort"

	"inventory-agent/core/model"
)

// Diff compares the local record against the remote one and returns the
// operations that bring the remote record in line.
//
// An absent remote yields a single create_device. Otherwise top-level
// fields and components (matched by kind and stable key) are compared.
// Empty local values never overwrite remote values, so a degraded
// collection cannot erase facts. Diff is pure: the same inputs always give
// the same changeset, and diffing a record against itself is empty.
func Diff(local model.Device, remote *model.RemoteRecord, opts Options) Changeset {
	if remote == nil {
		device := local
		return Changeset{Operations: []Operation{{
			Type:   OpCreateDevice,
			Entity: EntityDevice,
			New:    local.Identity,
			Device: &device,
		}}}
	}

	var cs Changeset
	cs.Operations = append(cs.Operations, diffFields(local.Fields(), remote.Device.Fields())...)

	localIndex := local.ComponentIndex()
	remoteIndex := remote.Device.ComponentIndex()

	for _, ref := range buildUnion(localIndex, remoteIndex) {
		lc, inLocal := localIndex[ref]
		rc, inRemote := remoteIndex[ref]

		switch {
		case inLocal && !inRemote:
			c := lc
			cs.Operations = append(cs.Operations, Operation{
				Type:      OpAddComponent,
				Entity:    ref.String(),
				Component: &c,
			})
		case !inLocal && inRemote:
			if opts.AuthoritativeRemovals && local.Complete[ref.Kind] {
				cs.Operations = append(cs.Operations, Operation{
					Type:        OpRemoveComponent,
					Entity:      ref.String(),
					ComponentID: remote.ComponentID(ref),
				})
			} else {
				cs.Untouched = append(cs.Untouched, ref)
			}
		default:
			if changes := compareFields(lc.Fields, rc.Fields); len(changes) > 0 {
				cs.Operations = append(cs.Operations, Operation{
					Type:        OpUpdateComponent,
					Entity:      ref.String(),
					Changes:     changes,
					ComponentID: remote.ComponentID(ref),
				})
			}
		}
	}
	return cs
}

// diffFields emits update_field operations in model.ScalarFields order.
func diffFields(local, remote map[string]string) []Operation {
	var ops []Operation
	for _, field := range model.ScalarFields {
		lv, rv := local[field], remote[field]
		if lv == "" || lv == rv {
			continue
		}
		ops = append(ops, Operation{
			Type:   OpUpdateField,
			Entity: EntityDevice,
			Field:  field,
			Old:    rv,
			New:    lv,
		})
	}
	return ops
}

// compareFields returns the local fields that differ from the remote ones,
// sorted by field name. Fields empty locally are ignored.
func compareFields(local, remote map[string]string) []FieldChange {
	var changes []FieldChange
	for field, lv := range local {
		if lv == "" || lv == remote[field] {
			continue
		}
		changes = append(changes, FieldChange{Field: field, Old: remote[field], New: lv})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// buildUnion returns every component reference seen on either side, in
// kind order and then by key.
func buildUnion(local, remote map[model.ComponentRef]model.Component) []model.ComponentRef {
	union := make(map[model.ComponentRef]struct{}, len(local)+len(remote))
	for ref := range local {
		union[ref] = struct{}{}
	}
	for ref := range remote {
		union[ref] = struct{}{}
	}

	order := make(map[model.ComponentKind]int, len(model.ComponentKinds))
	for i, k := range model.ComponentKinds {
		order[k] = i
	}

	refs := make([]model.ComponentRef, 0, len(union))
	for ref := range union {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return order[refs[i].Kind] < order[refs[j].Kind]
		}
		return refs[i].Key < refs[j].Key
	})
	return refs
}

// Summarize aggregates a changeset by operation type.
func Summarize(cs Changeset) Summary {
	s := Summary{Total: len(cs.Operations), Untouched: len(cs.Untouched)}
	for _, op := range cs.Operations {
		switch op.Type {
		case OpCreateDevice:
			s.Creates++
		case OpUpdateField:
			s.FieldUpdates++
		case OpAddComponent:
			s.ComponentAdds++
		case OpRemoveComponent:
			s.ComponentRemoves++
		case OpUpdateComponent:
			s.ComponentUpdates++
		}
	}
	return s
}
