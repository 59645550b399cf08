package collect

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/model"
	"inventory-agent/core/runner"

	"go.uber.org/zap"
)

// Adapter wraps one external diagnostic tool.
// Collect never fails: degradation is reported through the fragment status.
type Adapter interface {
	// Name returns the source identifier (e.g. "dmidecode").
	Name() string
	// Collect runs the tool and parses its output into a fragment.
	Collect(ctx context.Context) model.Fragment
}

// parseFunc fills a fragment from raw tool output. Recoverable problems
// are recorded with f.Warn; a returned error fails the whole fragment.
type parseFunc func(out []byte, f *model.Fragment) error

// errNoHardware marks output that parsed fine but reports no device of
// the kind the tool manages. The fragment fails as ToolUnavailable.
var errNoHardware = errors.New("no supported hardware")

// followUp is an extra command run after the primary one succeeded.
// Its failure only degrades the fragment.
type followUp struct {
	cmd   runner.Command
	parse parseFunc
}

// toolAdapter is the shared run-capture-parse shell of every adapter.
type toolAdapter struct {
	name      string
	cmd       runner.Command
	runner    runner.Runner
	logger    *zap.Logger
	parse     parseFunc
	followUps []followUp
	// absent matches failing output that means the hardware is missing.
	absent *regexp.Regexp
	now    func() time.Time
}

func (t *toolAdapter) Name() string {
	return t.name
}

func (t *toolAdapter) Collect(ctx context.Context) (f model.Fragment) {
	f = model.Fragment{
		Source:     t.name,
		Status:     model.FragmentOK,
		CapturedAt: t.now().UTC(),
	}
	l := t.logger.With(zap.String("tool", t.name))

	defer func() {
		if r := recover(); r != nil {
			l.Error("Parser panicked", zap.Any("panic", r))
			f = failed(f, agenterrors.Newf(agenterrors.KindToolExecutionError, "%s output could not be parsed: %v", t.name, r))
		}
	}()

	res, err := t.runner.Run(ctx, t.cmd)
	if err != nil {
		if t.reportsAbsent(res, err) {
			err = agenterrors.Wrap(agenterrors.KindToolUnavailable, fmt.Sprintf("%s found no hardware", t.name), err)
		}
		l.Warn("Tool unavailable or failed", zap.String("kind", string(agenterrors.KindOf(err))), zap.Error(err))
		return failed(f, err)
	}

	if err := t.parse(res.Stdout, &f); err != nil {
		if errors.Is(err, errNoHardware) {
			l.Info("Tool found no hardware", zap.Error(err))
			return failed(f, agenterrors.Wrap(agenterrors.KindToolUnavailable, fmt.Sprintf("%s found no hardware", t.name), err))
		}
		l.Warn("Tool output unusable", zap.Error(err))
		return failed(f, agenterrors.Wrap(agenterrors.KindToolExecutionError, fmt.Sprintf("%s output could not be parsed", t.name), err))
	}

	for _, fu := range t.followUps {
		out, err := t.runner.Run(ctx, fu.cmd)
		if err == nil {
			err = fu.parse(out.Stdout, &f)
		}
		if err != nil {
			l.Warn("Follow-up command failed", zap.Strings("args", fu.cmd.Args), zap.Error(err))
			f.Warn(fmt.Sprintf("%s %s: %v", t.name, strings.Join(fu.cmd.Args, " "), err))
		}
	}

	for _, w := range f.Warnings {
		l.Debug("Skipped tool output", zap.String("warning", w))
	}
	return f
}

// reportsAbsent tells a tool that ran but found nothing to manage from a
// real execution failure.
func (t *toolAdapter) reportsAbsent(res runner.Result, err error) bool {
	if t.absent == nil || !agenterrors.IsKind(err, agenterrors.KindToolExecutionError) {
		return false
	}
	return t.absent.Match(res.Stdout) || t.absent.Match(res.Stderr)
}

func failed(f model.Fragment, err error) model.Fragment {
	return model.Fragment{
		Source:     f.Source,
		Status:     model.FragmentFailed,
		Reason:     err.Error(),
		ErrorKind:  string(agenterrors.KindOf(err)),
		Warnings:   f.Warnings,
		CapturedAt: f.CapturedAt,
	}
}

// NewAdapters builds the enabled adapters in authority-neutral, fixed order.
// The order is stable so that authority ties resolve deterministically.
func NewAdapters(cfg Config, r runner.Runner, logger *zap.Logger) ([]Adapter, error) {
	var ignore *regexp.Regexp
	if cfg.IgnoreInterfaces != "" {
		re, err := regexp.Compile(cfg.IgnoreInterfaces)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore_interfaces pattern: %w", err)
		}
		ignore = re
	}
	var ignoreAddr *regexp.Regexp
	if cfg.IgnoreAddresses != "" {
		re, err := regexp.Compile(cfg.IgnoreAddresses)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore_ips pattern: %w", err)
		}
		ignoreAddr = re
	}

	candidates := []struct {
		cfg   ToolConfig
		build func(ToolConfig) *toolAdapter
	}{
		{cfg.Dmidecode, newDmidecode},
		{cfg.Lshw, func(tc ToolConfig) *toolAdapter { return newLshw(tc, ignore) }},
		{cfg.Storcli, newStorcli},
		{cfg.Ssacli, newSsacli},
		{cfg.IP, func(tc ToolConfig) *toolAdapter { return newIPLink(tc, ignore, ignoreAddr) }},
		{cfg.Ipmitool, func(tc ToolConfig) *toolAdapter { return newIpmitool(tc, cfg.BMCCredentialRef) }},
	}

	var adapters []Adapter
	for _, c := range candidates {
		a := c.build(c.cfg)
		if !c.cfg.Enabled {
			logger.Debug("Adapter disabled", zap.String("tool", a.name))
			continue
		}
		a.runner = r
		a.logger = logger
		a.now = time.Now
		adapters = append(adapters, a)
	}
	return adapters, nil
}
