package utils

import "strings"

// vendorAliases maps lower-cased vendor spellings seen in tool output to
// one canonical manufacturer name.
var vendorAliases = map[string]string{
	"dell":                               "Dell",
	"dell inc.":                          "Dell",
	"hp":                                 "HPE",
	"hpe":                                "HPE",
	"hewlett-packard":                    "HPE",
	"hewlett packard enterprise":         "HPE",
	"lenovo":                             "Lenovo",
	"supermicro":                         "Supermicro",
	"super micro computer inc":           "Supermicro",
	"intel":                              "Intel",
	"intel corporation":                  "Intel",
	"intel(r) corporation":               "Intel",
	"intel corp.":                        "Intel",
	"genuineintel":                       "Intel",
	"amd":                                "AMD",
	"advanced micro devices, inc.":       "AMD",
	"authenticamd":                       "AMD",
	"huawei":                             "Huawei",
	"huawei technologies co., ltd.":      "Huawei",
	"broadcom / lsi":                     "Broadcom",
	"lsi logic / symbios logic":          "Broadcom",
	"quanta cloud technology inc.":       "QCT",
	"cisco systems inc":                  "Cisco",
	"qemu":                               "QEMU",
	"vmware, inc.":                       "VMware",
	"innotek gmbh":                       "VirtualBox",
	"micro-star international co., ltd.": "MSI",
}

// NormalizeVendor returns the canonical manufacturer name, or the trimmed
// input when no alias is known. Placeholders yield an empty string.
func NormalizeVendor(s string) string {
	s = CleanString(s)
	if s == "" {
		return ""
	}
	if v, ok := vendorAliases[strings.ToLower(strings.TrimSuffix(s, ","))]; ok {
		return v
	}
	return s
}
