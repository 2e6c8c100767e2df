package hrfco

import (
	"github.com/yanqian/hydro-agent/internal/domain/station"
	"github.com/yanqian/hydro-agent/internal/infra/upstream"
)

// Field aliases cover the JSON feed and the older XML deployment, which
// names the same values differently.
var (
	fieldObservedAt = upstream.Field{Name: "observedAt", Keys: []string{"ymdhm", "ymdh", "ymd", "obsymdhm", "obsdt"}}
	fieldName       = upstream.Field{Name: "name", Keys: []string{"obsnm", "damnm", "obsname", "name"}}
	fieldAddress    = upstream.Field{Name: "address", Keys: []string{"addr", "address", "location"}}
	fieldAddressEtc = upstream.Field{Name: "addressDetail", Keys: []string{"etcaddr"}}
	fieldRiver      = upstream.Field{Name: "river", Keys: []string{"rivername", "rvrnm", "river"}}

	fieldFlow = upstream.Field{Name: "flow", Keys: []string{"fw", "flow"}}

	fieldDamInflow      = upstream.Field{Name: "inflow", Keys: []string{"inf", "inflowqy"}}
	fieldDamOutflow     = upstream.Field{Name: "outflow", Keys: []string{"tototf", "totdcwtrqy", "otf"}}
	fieldDamStorage     = upstream.Field{Name: "storage", Keys: []string{"sfw", "nowrsvwtqy"}}
	fieldDamFloodLimit  = upstream.Field{Name: "floodLimitLevel", Keys: []string{"fldlmtwl", "floodlimitlevel", "limitwl"}}
	fieldDamPlanned     = upstream.Field{Name: "plannedFloodLevel", Keys: []string{"pfh", "plnfldwl"}}
	fieldDamFloodVolume = upstream.Field{Name: "floodControlCapacity", Keys: []string{"fldcpcty", "fldctrlcap", "pfd"}}
)

// schema names the code and primary value fields of one kind.
type schema struct {
	code  upstream.Field
	value upstream.Field
}

var schemas = map[station.Kind]schema{
	station.KindWaterLevel: {
		code:  upstream.Field{Name: "code", Keys: []string{"wlobscd", "obscd", "code"}},
		value: upstream.Field{Name: "waterLevel", Keys: []string{"wl", "waterlevel", "wlvl"}},
	},
	station.KindRainfall: {
		code:  upstream.Field{Name: "code", Keys: []string{"rfobscd", "obscd", "code"}},
		value: upstream.Field{Name: "rainfall", Keys: []string{"rf", "rainfall"}},
	},
	station.KindDam: {
		code:  upstream.Field{Name: "code", Keys: []string{"dmobscd", "damcd", "obscd", "code"}},
		value: upstream.Field{Name: "waterLevel", Keys: []string{"swl", "lowlevel", "wl"}},
	},
}
