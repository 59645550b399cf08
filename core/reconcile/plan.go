package reconcile

import (
	"context"
	"errors"
	"fmt"

	agenterrors "inventory-agent/core/errors"
)

// ApplyPlan executes a changeset operation by operation against remoteID.
//
// Every operation gets a result. A failed operation does not stop the
// run unless the failure is RemoteFatal; cancellation and fatal errors
// mark the remaining operations as skipped. Nothing is rolled back.
// With opts.DryRun no mutation is executed and every operation is
// reported as planned.
func ApplyPlan(ctx context.Context, m Mutator, remoteID string, cs Changeset, opts Options) ApplyResult {
	result := ApplyResult{RemoteID: remoteID, Results: make([]OperationResult, 0, len(cs.Operations))}

	for i, op := range cs.Operations {
		if opts.DryRun {
			result.Results = append(result.Results, OperationResult{Operation: op, Status: StatusPlanned})
			continue
		}
		if err := ctx.Err(); err != nil {
			skipRemaining(&result, cs.Operations[i:], fmt.Errorf("run cancelled: %w", err))
			return result
		}

		if op.Type == OpCreateDevice {
			applyCreate(ctx, m, op, opts, &result)
			if result.Stopped {
				skipRemaining(&result, cs.Operations[i+1:], errors.New("previous operation stopped the run"))
				return result
			}
			continue
		}

		err := applyOne(ctx, m, result.RemoteID, op)
		if err == nil {
			result.Results = append(result.Results, OperationResult{Operation: op, Status: StatusApplied})
			continue
		}
		result.Results = append(result.Results, failedResult(op, err))
		if stops(ctx, err) {
			skipRemaining(&result, cs.Operations[i+1:], err)
			return result
		}
	}
	return result
}

func applyOne(ctx context.Context, m Mutator, remoteID string, op Operation) error {
	switch op.Type {
	case OpUpdateField:
		return m.UpdateField(ctx, remoteID, op.Field, op.New)
	case OpAddComponent:
		if op.Component == nil {
			return agenterrors.New(agenterrors.KindRemoteFatal, "add_component without component")
		}
		return m.AddComponent(ctx, remoteID, *op.Component)
	case OpUpdateComponent:
		fields := make(map[string]string, len(op.Changes))
		for _, c := range op.Changes {
			fields[c.Field] = c.New
		}
		return m.UpdateComponent(ctx, remoteID, op.ComponentID, fields)
	case OpRemoveComponent:
		return m.RemoveComponent(ctx, remoteID, op.ComponentID)
	default:
		return agenterrors.Newf(agenterrors.KindRemoteFatal, "unsupported operation %q", op.Type)
	}
}

// applyCreate creates the device. When the device already exists (a
// concurrent run created it) the record is fetched again and the create
// is turned into the updates needed against it.
func applyCreate(ctx context.Context, m Mutator, op Operation, opts Options, result *ApplyResult) {
	if op.Device == nil {
		result.Results = append(result.Results, failedResult(op, agenterrors.New(agenterrors.KindRemoteFatal, "create_device without device")))
		result.Stopped = true
		return
	}

	id, err := m.CreateDevice(ctx, *op.Device)
	if err == nil {
		result.RemoteID = id
		result.Results = append(result.Results, OperationResult{Operation: op, Status: StatusApplied})
		return
	}

	refetcher, ok := m.(Refetcher)
	if !errors.Is(err, ErrConflict) || !ok {
		result.Results = append(result.Results, failedResult(op, err))
		result.Stopped = stops(ctx, err)
		return
	}

	existing, lookupErr := refetcher.Lookup(ctx, op.Device.Identity)
	if lookupErr == nil && existing == nil {
		lookupErr = agenterrors.Wrap(agenterrors.KindRemoteTransient, "device reported as existing but not found", err)
	}
	if lookupErr != nil {
		result.Results = append(result.Results, failedResult(op, lookupErr))
		result.Stopped = stops(ctx, lookupErr)
		return
	}

	result.RemoteID = existing.ID
	result.Results = append(result.Results, OperationResult{Operation: op, Status: StatusConverted})

	follow := ApplyPlan(ctx, m, existing.ID, Diff(*op.Device, existing, opts), opts)
	result.Results = append(result.Results, follow.Results...)
	result.Stopped = follow.Stopped
}

// stops reports whether an error ends the run: cancellation or a fatal
// remote error.
func stops(ctx context.Context, err error) bool {
	return ctx.Err() != nil || agenterrors.IsKind(err, agenterrors.KindRemoteFatal)
}

func failedResult(op Operation, err error) OperationResult {
	return OperationResult{
		Operation: op,
		Status:    StatusFailed,
		Error:     err.Error(),
		ErrorKind: string(agenterrors.KindOf(err)),
	}
}

func skipRemaining(result *ApplyResult, ops []Operation, reason error) {
	result.Stopped = true
	for _, op := range ops {
		result.Results = append(result.Results, OperationResult{
			Operation: op,
			Status:    StatusSkipped,
			Error:     "not attempted: " + reason.Error(),
		})
	}
}
