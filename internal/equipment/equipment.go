// Package equipment maps load-search equipment codes onto the coarser
// categories the Rateview API prices.
package equipment

import "github.com/rotisserie/eris"

// Category is the equipment classification Rateview expects.
type Category string

const (
	Van     Category = "VAN"
	Reefer  Category = "REEFER"
	Flatbed Category = "FLATBED"
)

// Load-search codes with a dedicated category. Everything else, including the
// flatbed family (F, FA, FT, FM, FD, FR, FO, FN, FS) and codes we have never
// seen, falls through to Flatbed.
var (
	vanCodes = map[string]struct{}{
		"V": {}, "VA": {}, "VB": {}, "VC": {}, "V2": {}, "VZ": {},
		"VH": {}, "VI": {}, "VN": {}, "VG": {}, "VL": {}, "VV": {},
		"VM": {}, "VT": {}, "VF": {}, "VR": {}, "VP": {}, "VW": {},
	}
	reeferCodes = map[string]struct{}{
		"R": {}, "RA": {}, "R2": {}, "RZ": {}, "RN": {},
		"RL": {}, "RM": {}, "RG": {}, "RV": {}, "RP": {},
	}
)

// MapCode classifies a load-search equipment code. Matching is exact and
// case-sensitive.
func MapCode(code string) Category {
	if _, ok := vanCodes[code]; ok {
		return Van
	}
	if _, ok := reeferCodes[code]; ok {
		return Reefer
	}
	return Flatbed
}

// ParseCategory validates a category name supplied on the command line.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case Van, Reefer, Flatbed:
		return c, nil
	}
	return "", eris.Errorf("equipment: unknown category %q", s)
}
