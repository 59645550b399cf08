package collect

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"inventory-agent/core/model"
	"inventory-agent/core/runner"
	"inventory-agent/core/utils"
)

type ipLink struct {
	IfName    string   `json:"ifname"`
	Flags     []string `json:"flags"`
	MTU       uint64   `json:"mtu"`
	OperState string   `json:"operstate"`
	LinkType  string   `json:"link_type"`
	Address   string   `json:"address"`
	PermAddr  string   `json:"permaddr"`
	// Link is the lower device of a VLAN or macvlan.
	Link     string     `json:"link"`
	Master   string     `json:"master"`
	LinkInfo ipLinkInfo `json:"linkinfo"`
	AddrInfo []ipAddr   `json:"addr_info"`
}

type ipLinkInfo struct {
	InfoKind string `json:"info_kind"`
	InfoData struct {
		ID any `json:"id"`
	} `json:"info_data"`
}

type ipAddr struct {
	Family    string `json:"family"`
	Local     string `json:"local"`
	PrefixLen int    `json:"prefixlen"`
}

func newIPLink(cfg ToolConfig, ignore, ignoreAddr *regexp.Regexp) *toolAdapter {
	return &toolAdapter{
		name: model.SourceIP,
		cmd: runner.Command{
			Path:    cfg.binary("ip"),
			Args:    []string{"-details", "-json", "addr", "show"},
			Timeout: cfg.Timeout(),
		},
		parse: func(out []byte, f *model.Fragment) error {
			return parseIPLink(out, ignore, ignoreAddr, f)
		},
	}
}

func parseIPLink(out []byte, ignore, ignoreAddr *regexp.Regexp, f *model.Fragment) error {
	var links []json.RawMessage
	if err := json.Unmarshal(out, &links); err != nil {
		return fmt.Errorf("decode ip json: %w", err)
	}

	for i, raw := range links {
		var link ipLink
		if err := json.Unmarshal(raw, &link); err != nil {
			f.Warn(fmt.Sprintf("ip link entry %d: %v", i, err))
			continue
		}
		if link.IfName == "" {
			f.Warn(fmt.Sprintf("ip link entry %d: missing ifname", i))
			continue
		}
		if link.LinkType == "loopback" || (ignore != nil && ignore.MatchString(link.IfName)) {
			continue
		}

		// Bond slaves report the bond's address; permaddr is the burned-in one.
		mac := utils.NormalizeMAC(link.PermAddr)
		if mac == "" {
			mac = utils.NormalizeMAC(link.Address)
		}

		nic := model.NetworkInterface{
			Name:     link.IfName,
			MAC:      mac,
			State:    utils.NormalizeLinkState(link.OperState),
			MTU:      link.MTU,
			LinkKind: link.LinkInfo.InfoKind,
			Parent:   link.Link,
			Master:   link.Master,
		}
		if link.LinkInfo.InfoKind == "vlan" {
			nic.VLANID = utils.ToUint64(link.LinkInfo.InfoData.ID)
		}
		for _, a := range link.AddrInfo {
			if a.Local == "" || (ignoreAddr != nil && ignoreAddr.MatchString(a.Local)) {
				continue
			}
			nic.Addresses = append(nic.Addresses, a.Local+"/"+strconv.Itoa(a.PrefixLen))
		}
		f.Interfaces = append(f.Interfaces, nic)
	}
	return nil
}
