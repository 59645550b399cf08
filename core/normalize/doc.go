// Package normalize merges tool fragments into one canonical model.Device.
//
// Every fact belongs to a category (system, bmc, controller, disk,
// interface, processor, memory) and every category ranks the adapters
// allowed to report it; see Authority. Some fields are narrower than
// their category: RAID roles come only from RAID adapters and link speed
// only from lshw.
//
// Components are merged by stable key. Disks are additionally matched by
// serial number, so a drive seen as "sda" by lshw and as "c0:e32:s0" by
// storcli ends up as a single component under the RAID adapter's key.
//
// Usage:
//
//	device, report, err := normalize.Normalize(fragments)
//	if agenterrors.IsKind(err, agenterrors.KindIdentityUnresolved) {
//		// nothing identifies this host
//	}
//	for _, c := range report.Conflicts {
//		log.Warn("Conflicting fact", zap.String("conflict", c.String()))
//	}
package normalize
