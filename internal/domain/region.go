package domain

import (
	"fmt"
	"strings"
)

// RegionCode identifies a department: "01".."95", "2A", "2B", or a three-character overseas code.
type RegionCode string

// Outlier reports whether the code belongs to an overseas territory. Outliers
// are excluded from natural-breaks threshold computation.
func (c RegionCode) Outlier() bool {
	return len(c) >= 3
}

// Region is a department or department-equivalent territory.
type Region struct {
	Code RegionCode
	Name string

	// CountryCode is the ISO code the geocoding service reports for places of
	// this region. Metropolitan departments report "FR" and are matched by name.
	CountryCode string
}

// Capital is the department that is its own single commune.
const Capital RegionCode = "75"

var regions = []Region{
	{"01", "Ain", "FR"},
	{"02", "Aisne", "FR"},
	{"03", "Allier", "FR"},
	{"04", "Alpes-de-Haute-Provence", "FR"},
	{"05", "Hautes-Alpes", "FR"},
	{"06", "Alpes-Maritimes", "FR"},
	{"07", "Ardèche", "FR"},
	{"08", "Ardennes", "FR"},
	{"09", "Ariège", "FR"},
	{"10", "Aube", "FR"},
	{"11", "Aude", "FR"},
	{"12", "Aveyron", "FR"},
	{"13", "Bouches-du-Rhône", "FR"},
	{"14", "Calvados", "FR"},
	{"15", "Cantal", "FR"},
	{"16", "Charente", "FR"},
	{"17", "Charente-Maritime", "FR"},
	{"18", "Cher", "FR"},
	{"19", "Corrèze", "FR"},
	{"2A", "Corse-du-Sud", "FR"},
	{"2B", "Haute-Corse", "FR"},
	{"21", "Côte-d'Or", "FR"},
	{"22", "Côtes-d'Armor", "FR"},
	{"23", "Creuse", "FR"},
	{"24", "Dordogne", "FR"},
	{"25", "Doubs", "FR"},
	{"26", "Drôme", "FR"},
	{"27", "Eure", "FR"},
	{"28", "Eure-et-Loir", "FR"},
	{"29", "Finistère", "FR"},
	{"30", "Gard", "FR"},
	{"31", "Haute-Garonne", "FR"},
	{"32", "Gers", "FR"},
	{"33", "Gironde", "FR"},
	{"34", "Hérault", "FR"},
	{"35", "Ille-et-Vilaine", "FR"},
	{"36", "Indre", "FR"},
	{"37", "Indre-et-Loire", "FR"},
	{"38", "Isère", "FR"},
	{"39", "Jura", "FR"},
	{"40", "Landes", "FR"},
	{"41", "Loir-et-Cher", "FR"},
	{"42", "Loire", "FR"},
	{"43", "Haute-Loire", "FR"},
	{"44", "Loire-Atlantique", "FR"},
	{"45", "Loiret", "FR"},
	{"46", "Lot", "FR"},
	{"47", "Lot-et-Garonne", "FR"},
	{"48", "Lozère", "FR"},
	{"49", "Maine-et-Loire", "FR"},
	{"50", "Manche", "FR"},
	{"51", "Marne", "FR"},
	{"52", "Haute-Marne", "FR"},
	{"53", "Mayenne", "FR"},
	{"54", "Meurthe-et-Moselle", "FR"},
	{"55", "Meuse", "FR"},
	{"56", "Morbihan", "FR"},
	{"57", "Moselle", "FR"},
	{"58", "Nièvre", "FR"},
	{"59", "Nord", "FR"},
	{"60", "Oise", "FR"},
	{"61", "Orne", "FR"},
	{"62", "Pas-de-Calais", "FR"},
	{"63", "Puy-de-Dôme", "FR"},
	{"64", "Pyrénées-Atlantiques", "FR"},
	{"65", "Hautes-Pyrénées", "FR"},
	{"66", "Pyrénées-Orientales", "FR"},
	{"67", "Bas-Rhin", "FR"},
	{"68", "Haut-Rhin", "FR"},
	{"69", "Rhône", "FR"},
	{"70", "Haute-Saône", "FR"},
	{"71", "Saône-et-Loire", "FR"},
	{"72", "Sarthe", "FR"},
	{"73", "Savoie", "FR"},
	{"74", "Haute-Savoie", "FR"},
	{"75", "Paris", "FR"},
	{"76", "Seine-Maritime", "FR"},
	{"77", "Seine-et-Marne", "FR"},
	{"78", "Yvelines", "FR"},
	{"79", "Deux-Sèvres", "FR"},
	{"80", "Somme", "FR"},
	{"81", "Tarn", "FR"},
	{"82", "Tarn-et-Garonne", "FR"},
	{"83", "Var", "FR"},
	{"84", "Vaucluse", "FR"},
	{"85", "Vendée", "FR"},
	{"86", "Vienne", "FR"},
	{"87", "Haute-Vienne", "FR"},
	{"88", "Vosges", "FR"},
	{"89", "Yonne", "FR"},
	{"90", "Territoire de Belfort", "FR"},
	{"91", "Essonne", "FR"},
	{"92", "Hauts-de-Seine", "FR"},
	{"93", "Seine-Saint-Denis", "FR"},
	{"94", "Val-de-Marne", "FR"},
	{"95", "Val-d'Oise", "FR"},
	{"971", "Guadeloupe", "GP"},
	{"972", "Martinique", "MQ"},
	{"973", "Guyane", "GF"},
	{"974", "Réunion", "RE"},
	{"975", "Saint Pierre et Miquelon", "PM"},
	{"976", "Mayotte", "YT"},
}

var regionIndex = func() map[RegionCode]int {
	idx := make(map[RegionCode]int, len(regions))
	for i, r := range regions {
		idx[r.Code] = i
	}
	return idx
}()

// Regions returns every known region in canonical order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// LookupRegion returns the region for a code, or ErrUnknownRegion.
func LookupRegion(code RegionCode) (Region, error) {
	i, ok := regionIndex[code]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}
	return regions[i], nil
}

// RegionByName finds a region by its department name, case-insensitively.
func RegionByName(name string) (Region, error) {
	for _, r := range regions {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("%w: name %q", ErrUnknownRegion, name)
}

// DepartmentFromCommune derives the department code from an INSEE commune code.
func DepartmentFromCommune(insee string) RegionCode {
	if strings.HasPrefix(insee, "97") && len(insee) >= 3 {
		return RegionCode(insee[:3])
	}
	if len(insee) < 2 {
		return RegionCode(insee)
	}
	return RegionCode(insee[:2])
}

// RegionTable holds one value per region of the closed region set. Writes and
// reads for codes outside that set fail rather than creating entries.
type RegionTable[T any] struct {
	values map[RegionCode]T
}

// NewRegionTable returns an empty table.
func NewRegionTable[T any]() *RegionTable[T] {
	return &RegionTable[T]{values: make(map[RegionCode]T, len(regions))}
}

// NewFilledRegionTable returns a table where every region holds v.
func NewFilledRegionTable[T any](v T) *RegionTable[T] {
	t := NewRegionTable[T]()
	for _, r := range regions {
		t.values[r.Code] = v
	}
	return t
}

// Set stores v for code.
func (t *RegionTable[T]) Set(code RegionCode, v T) error {
	if _, ok := regionIndex[code]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}
	t.values[code] = v
	return nil
}

// Get returns the value stored for code.
func (t *RegionTable[T]) Get(code RegionCode) (T, error) {
	var zero T
	if _, ok := regionIndex[code]; !ok {
		return zero, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}
	v, ok := t.values[code]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrMissingRegionValue, code)
	}
	return v, nil
}

// Update replaces the value for code with fn(current). A region without a
// value is passed the zero value.
func (t *RegionTable[T]) Update(code RegionCode, fn func(T) T) error {
	if _, ok := regionIndex[code]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}
	t.values[code] = fn(t.values[code])
	return nil
}

// Len returns the number of regions holding a value.
func (t *RegionTable[T]) Len() int {
	return len(t.values)
}

// Range calls fn for every region holding a value, in canonical region order.
// Iteration stops when fn returns false.
func (t *RegionTable[T]) Range(fn func(RegionCode, T) bool) {
	for _, r := range regions {
		v, ok := t.values[r.Code]
		if !ok {
			continue
		}
		if !fn(r.Code, v) {
			return
		}
	}
}

// Map returns a copy of the table contents.
func (t *RegionTable[T]) Map() map[RegionCode]T {
	out := make(map[RegionCode]T, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
