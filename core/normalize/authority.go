package normalize

import "inventory-agent/core/model"

// Category groups facts that share one authority ranking.
type Category string

const (
	CategorySystem      Category = "system"
	CategoryBMC         Category = "bmc"
	CategoryController  Category = Category(model.KindController)
	CategoryDisk        Category = Category(model.KindDisk)
	CategoryInterface   Category = Category(model.KindInterface)
	CategoryProcessor   Category = Category(model.KindProcessor)
	CategoryMemory      Category = Category(model.KindMemory)
	CategoryPowerSupply Category = Category(model.KindPowerSupply)
)

// Authority ranks adapters per fact category. A source missing from a
// category is not trusted for it at all.
var Authority = map[Category]map[string]int{
	CategorySystem: {
		model.SourceDmidecode: 100,
		model.SourceLshw:      50,
	},
	CategoryBMC: {
		model.SourceIpmitool: 100,
	},
	CategoryController: {
		model.SourceStorcli: 100,
		model.SourceSsacli:  100,
	},
	CategoryDisk: {
		model.SourceStorcli: 100,
		model.SourceSsacli:  100,
		model.SourceLshw:    50,
	},
	CategoryInterface: {
		model.SourceIP:   100,
		model.SourceLshw: 50,
	},
	CategoryProcessor: {
		model.SourceDmidecode: 100,
		model.SourceLshw:      50,
	},
	CategoryMemory: {
		model.SourceDmidecode: 100,
		model.SourceLshw:      50,
	},
	CategoryPowerSupply: {
		model.SourceLshw: 50,
	},
}

// fieldAuthority narrows the category ranking for single fields.
var fieldAuthority = map[Category]map[string]map[string]int{
	CategoryDisk: {
		"controller_id": {model.SourceStorcli: 100, model.SourceSsacli: 100},
		"raid_role":     {model.SourceStorcli: 100, model.SourceSsacli: 100},
	},
	CategoryInterface: {
		"speed_mbps": {model.SourceLshw: 50},
		"addresses":  {model.SourceIP: 100},
		"link_kind":  {model.SourceIP: 100},
		"parent":     {model.SourceIP: 100},
		"vlan_id":    {model.SourceIP: 100},
		"master":     {model.SourceIP: 100},
	},
}

// priority returns how much a source is trusted for one field; 0 means
// the value must be ignored.
func priority(cat Category, field, source string) int {
	if fields, ok := fieldAuthority[cat]; ok {
		if sources, ok := fields[field]; ok {
			return sources[source]
		}
	}
	return Authority[cat][source]
}
