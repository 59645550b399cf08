package collect

import (
	"context"
	"os"
	"testing"
	"time"

	agenterrors "inventory-agent/core/errors"
	"inventory-agent/core/model"
	"inventory-agent/core/runner"
	"inventory-agent/core/runner/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func enabledConfig() Config {
	on := ToolConfig{Enabled: true, TimeoutSeconds: 5}
	return Config{
		Dmidecode:        on,
		Lshw:             on,
		Storcli:          on,
		Ssacli:           on,
		IP:               on,
		Ipmitool:         on,
		IgnoreInterfaces: `^(lo|docker[0-9]+)$`,
		BMCCredentialRef: "vault://bmc/node01",
	}
}

func adapterByName(t *testing.T, adapters []Adapter, name string) Adapter {
	t.Helper()
	for _, a := range adapters {
		if a.Name() == name {
			return a
		}
	}
	t.Fatalf("adapter %s not built", name)
	return nil
}

func TestNewAdapters(t *testing.T) {
	t.Run("fixed order", func(t *testing.T) {
		adapters, err := NewAdapters(enabledConfig(), &mocks.Runner{}, zap.NewNop())
		require.NoError(t, err)

		var names []string
		for _, a := range adapters {
			names = append(names, a.Name())
		}
		assert.Equal(t, []string{"dmidecode", "lshw", "storcli", "ssacli", "ip", "ipmitool"}, names)
	})

	t.Run("disabled tools are skipped", func(t *testing.T) {
		cfg := enabledConfig()
		cfg.Ssacli.Enabled = false
		cfg.Ipmitool.Enabled = false

		adapters, err := NewAdapters(cfg, &mocks.Runner{}, zap.NewNop())
		require.NoError(t, err)
		assert.Len(t, adapters, 4)
	})

	t.Run("path override", func(t *testing.T) {
		cfg := enabledConfig()
		cfg.Storcli.Path = "/opt/MegaRAID/storcli/storcli64"

		adapters, err := NewAdapters(cfg, &mocks.Runner{}, zap.NewNop())
		require.NoError(t, err)
		a := adapterByName(t, adapters, model.SourceStorcli).(*toolAdapter)
		assert.Equal(t, "/opt/MegaRAID/storcli/storcli64", a.cmd.Path)
		assert.Equal(t, []string{"/call", "show", "all", "J"}, a.cmd.Args)
	})

	t.Run("invalid ignore pattern", func(t *testing.T) {
		cfg := enabledConfig()
		cfg.IgnoreInterfaces = "("
		_, err := NewAdapters(cfg, &mocks.Runner{}, zap.NewNop())
		assert.Error(t, err)

		cfg = enabledConfig()
		cfg.IgnoreAddresses = "[a-"
		_, err = NewAdapters(cfg, &mocks.Runner{}, zap.NewNop())
		assert.ErrorContains(t, err, "ignore_ips")
	})
}

func TestToolAdapter_Collect(t *testing.T) {
	ctx := context.Background()

	failures := []struct {
		name string
		err  error
		kind agenterrors.Kind
	}{
		{"unavailable", agenterrors.New(agenterrors.KindToolUnavailable, "storcli not found"), agenterrors.KindToolUnavailable},
		{"timeout", agenterrors.New(agenterrors.KindToolTimeout, "storcli timed out"), agenterrors.KindToolTimeout},
		{"execution error", agenterrors.New(agenterrors.KindToolExecutionError, "storcli exited with code 1"), agenterrors.KindToolExecutionError},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			r := &mocks.Runner{}
			r.On("Run", mock.Anything, mock.MatchedBy(func(c runner.Command) bool { return c.Path == "storcli" })).
				Return(runner.Result{}, tt.err)

			adapters, err := NewAdapters(enabledConfig(), r, zap.NewNop())
			require.NoError(t, err)

			f := adapterByName(t, adapters, model.SourceStorcli).Collect(ctx)
			assert.Equal(t, model.FragmentFailed, f.Status)
			assert.Equal(t, string(tt.kind), f.ErrorKind)
			assert.NotEmpty(t, f.Reason)
			assert.Empty(t, f.Disks)
			assert.False(t, f.CapturedAt.IsZero())
			r.AssertExpectations(t)
		})
	}

	t.Run("unparsable output fails the fragment", func(t *testing.T) {
		r := &mocks.Runner{}
		r.On("Run", mock.Anything, mock.Anything).Return(runner.Result{Stdout: []byte("not json")}, nil)

		adapters, err := NewAdapters(enabledConfig(), r, zap.NewNop())
		require.NoError(t, err)

		f := adapterByName(t, adapters, model.SourceLshw).Collect(ctx)
		assert.Equal(t, model.FragmentFailed, f.Status)
		assert.Equal(t, string(agenterrors.KindToolExecutionError), f.ErrorKind)
	})

	t.Run("parsed output", func(t *testing.T) {
		out, err := os.ReadFile("testdata/ipmitool.txt")
		require.NoError(t, err)

		r := &mocks.Runner{}
		r.On("Run", mock.Anything, runner.Command{Path: "ipmitool", Args: []string{"lan", "print"}, Timeout: 5 * time.Second}).
			Return(runner.Result{Stdout: out}, nil)

		adapters, err := NewAdapters(enabledConfig(), r, zap.NewNop())
		require.NoError(t, err)

		f := adapterByName(t, adapters, model.SourceIpmitool).Collect(ctx)
		assert.Equal(t, model.FragmentOK, f.Status)
		require.NotNil(t, f.BMC)
		assert.Equal(t, "10.0.0.42", f.BMC.Address)
		assert.Equal(t, "vault://bmc/node01", f.BMC.CredentialRef)
	})

	t.Run("parser panic is contained", func(t *testing.T) {
		r := &mocks.Runner{}
		r.On("Run", mock.Anything, mock.Anything).Return(runner.Result{Stdout: []byte("x")}, nil)

		a := newDmidecode(ToolConfig{Enabled: true})
		a.runner = r
		a.logger = zap.NewNop()
		a.now = time.Now
		a.parse = func([]byte, *model.Fragment) error { panic("boom") }

		f := a.Collect(ctx)
		assert.Equal(t, model.FragmentFailed, f.Status)
		assert.Contains(t, f.Reason, "boom")
	})
}

func TestToolAdapter_CollectNoHardware(t *testing.T) {
	ctx := context.Background()
	exitErr := agenterrors.New(agenterrors.KindToolExecutionError, "exited with code 1")

	tests := []struct {
		name   string
		source string
		res    runner.Result
		err    error
		kind   agenterrors.Kind
	}{
		{
			name:   "ssacli exits without controllers",
			source: model.SourceSsacli,
			res:    runner.Result{Stdout: []byte("\nError: No controllers detected. Possible causes:\n")},
			err:    exitErr,
			kind:   agenterrors.KindToolUnavailable,
		},
		{
			name:   "storcli exits without controllers",
			source: model.SourceStorcli,
			res:    runner.Result{Stdout: []byte(`{"Controllers":[{"Command Status":{"Status":"Failure","Description":"No Controller found"}}]}`)},
			err:    exitErr,
			kind:   agenterrors.KindToolUnavailable,
		},
		{
			name:   "storcli succeeds without controllers",
			source: model.SourceStorcli,
			res:    runner.Result{Stdout: []byte(`{"Controllers":[{"Command Status":{"Controller":"All","Status":"Failure","Description":"No Controller found"}}]}`)},
			kind:   agenterrors.KindToolUnavailable,
		},
		{
			name:   "other execution errors keep their kind",
			source: model.SourceSsacli,
			res:    runner.Result{Stderr: []byte("segmentation fault")},
			err:    exitErr,
			kind:   agenterrors.KindToolExecutionError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mocks.Runner{}
			r.On("Run", mock.Anything, mock.Anything).Return(tt.res, tt.err).Once()

			adapters, err := NewAdapters(enabledConfig(), r, zap.NewNop())
			require.NoError(t, err)

			f := adapterByName(t, adapters, tt.source).Collect(ctx)
			assert.Equal(t, model.FragmentFailed, f.Status)
			assert.Equal(t, string(tt.kind), f.ErrorKind)
			r.AssertExpectations(t)
		})
	}
}

func TestToolAdapter_CollectStorcliDrives(t *testing.T) {
	ctx := context.Background()
	controllers, err := os.ReadFile("testdata/storcli.json")
	require.NoError(t, err)
	drives, err := os.ReadFile("testdata/storcli_drives.json")
	require.NoError(t, err)

	listing := mock.MatchedBy(func(c runner.Command) bool { return c.Args[0] == "/call" })
	details := mock.MatchedBy(func(c runner.Command) bool { return c.Args[0] == "/call/eall/sall" })

	t.Run("serials come from the drive listing", func(t *testing.T) {
		r := &mocks.Runner{}
		r.On("Run", mock.Anything, listing).Return(runner.Result{Stdout: controllers}, nil).Once()
		r.On("Run", mock.Anything, details).Return(runner.Result{Stdout: drives}, nil).Once()

		adapters, err := NewAdapters(enabledConfig(), r, zap.NewNop())
		require.NoError(t, err)

		f := adapterByName(t, adapters, model.SourceStorcli).Collect(ctx)
		require.Len(t, f.Disks, 3)
		serials := make(map[string]string)
		for _, d := range f.Disks {
			serials[d.Key] = d.Serial
		}
		assert.Equal(t, "WFK0DISK", serials["c0:e32:s0"])
		assert.Equal(t, "S47PSSD1", serials["c0:e32:s1"])
		assert.Len(t, f.Warnings, 3)
		r.AssertExpectations(t)
	})

	t.Run("failed drive listing degrades the fragment", func(t *testing.T) {
		r := &mocks.Runner{}
		r.On("Run", mock.Anything, listing).Return(runner.Result{Stdout: controllers}, nil).Once()
		r.On("Run", mock.Anything, details).
			Return(runner.Result{}, agenterrors.New(agenterrors.KindToolTimeout, "storcli timed out")).Once()

		adapters, err := NewAdapters(enabledConfig(), r, zap.NewNop())
		require.NoError(t, err)

		f := adapterByName(t, adapters, model.SourceStorcli).Collect(ctx)
		assert.Equal(t, model.FragmentPartial, f.Status)
		require.Len(t, f.Disks, 3)
		assert.Empty(t, f.Disks[0].Serial)
		require.Len(t, f.Warnings, 4)
		assert.Contains(t, f.Warnings[3], "/call/eall/sall")
		r.AssertExpectations(t)
	})
}
