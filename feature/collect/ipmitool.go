package collect

import (
	"bufio"
	"bytes"
	"fmt"
	"net/netip"
	"strings"

	"inventory-agent/core/model"
	"inventory-agent/core/runner"
	"inventory-agent/core/utils"
)

func newIpmitool(cfg ToolConfig, credentialRef string) *toolAdapter {
	return &toolAdapter{
		name: model.SourceIpmitool,
		cmd: runner.Command{
			Path:    cfg.binary("ipmitool"),
			Args:    []string{"lan", "print"},
			Timeout: cfg.Timeout(),
		},
		parse: func(out []byte, f *model.Fragment) error {
			return parseIpmitool(out, credentialRef, f)
		},
	}
}

// parseIpmitool reads "ipmitool lan print" key/value output.
func parseIpmitool(out []byte, credentialRef string, f *model.Fragment) error {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			f.Warn(fmt.Sprintf("ipmitool: unrecognized line %q", strings.TrimSpace(line)))
			continue
		}
		key = strings.TrimSpace(key)
		// Continuation lines of multi-line values (cipher suites, auth
		// types) have an empty key.
		if key == "" {
			continue
		}
		if _, seen := props[key]; !seen {
			props[key] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ipmitool output: %w", err)
	}
	if len(props) == 0 {
		return fmt.Errorf("empty ipmitool output")
	}

	bmc := &model.BMCFacts{
		MAC:           utils.NormalizeMAC(props["MAC Address"]),
		Source:        strings.ToLower(utils.CleanString(props["IP Address Source"])),
		CredentialRef: credentialRef,
	}
	if raw := props["IP Address"]; raw != "" {
		addr, err := netip.ParseAddr(raw)
		switch {
		case err != nil:
			f.Warn(fmt.Sprintf("ipmitool: unparsable IP address %q", raw))
		case !addr.IsUnspecified():
			bmc.Address = addr.String()
		}
	}

	if bmc.Address == "" && bmc.MAC == "" {
		return fmt.Errorf("no BMC address or MAC reported")
	}
	f.BMC = bmc
	return nil
}
