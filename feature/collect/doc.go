// Package collect runs the host's diagnostic tools and turns their output
// into model.Fragment values.
//
// One adapter exists per tool: dmidecode, lshw, storcli, ssacli, ip and
// ipmitool. Each adapter runs a single fixed command through a
// runner.Runner and parses the captured stdout. Adapters never return
// errors: a missing binary, a timeout or unusable output yields a fragment
// with status "failed" and the matching error kind, while skipped lines
// downgrade the fragment to "partial".
//
// Usage:
//
//	adapters, err := collect.NewAdapters(cfg.Tools, runner.New(log), log)
//	for _, a := range adapters {
//		frag := a.Collect(ctx)
//	}
package collect
