package census

import (
	"slices"
	"strconv"
)

// Scope is the fixed geography every query is bound to: one state and an
// ordered list of ZCTAs within it.
type Scope struct {
	State int
	ZCTAs []string
}

// cookCountyZCTAs lists the Cook County, Illinois ZCTAs in query order.
// 60628 appears twice in the source listing and is kept as listed.
var cookCountyZCTAs = []int{
	60660, 60626, 60645, 60659, 60646, 60631, 60656, 60630, 60625, 60634, 60641,
	60618, 60657, 60613, 60640, 60651, 60622, 60614, 60647, 60639, 60642, 60644,
	60624, 60612, 60601, 60602, 60603, 60604, 60605, 60606, 60607, 60610, 60611,
	60661, 60654, 60628, 60608, 60616, 60653, 60615, 60609, 60632, 60638, 60629,
	60636, 60621, 60637, 60652, 60620, 60619, 60628, 60643, 60655, 60827, 60623,
	60649, 60617, 60633, 60707,
}

// StateIllinois is the Census FIPS code for Illinois.
const StateIllinois = 17

// CookCounty returns the Cook County scope. Each call returns a fresh copy.
func CookCounty() Scope {
	zctas := make([]string, len(cookCountyZCTAs))
	for i, z := range cookCountyZCTAs {
		zctas[i] = strconv.Itoa(z)
	}
	return Scope{State: StateIllinois, ZCTAs: zctas}
}

// Clone returns a deep copy of s.
func (s Scope) Clone() Scope {
	return Scope{State: s.State, ZCTAs: slices.Clone(s.ZCTAs)}
}
