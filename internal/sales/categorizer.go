package sales

import "strings"

// classifyRule inspects an upper-cased, trimmed label and either claims it
// with a category or passes. Rules run in declaration order and the first
// claim wins, which makes precedence auditable rule by rule: a
// "BAH ESCARGOT" must land in Bake at Home before the pastry rule would
// otherwise claim the escargot marker.
type classifyRule func(label string) (Category, bool)

var classifyRules = []classifyRule{
	markerRule(CategoryBakeAtHome,
		"BAKE AT HOME", "BAH", "S/ROLL", "CHEESY VEG", "SHARE PIE"),
	markerRule(CategoryWeekendSpecial,
		"STOLLEN", "SALT & PEPPER BAGUETTE", "SALT AND PEPPER BAGUETTE"),
	loafRule,
	markerRule(CategoryPastries,
		"DANISH", "CROISSANT", "SCROLL", "PASTRY", "ESCARGOT"),
	markerRule(CategoryFMT,
		"FMT", "GINGER SNAP", "TART"),
	markerRule(CategoryRetailItems,
		"COOKIE", "GRANOLA", "COFFEE", "REDBRICK", "HONEY",
		"BEYOND BREAD", "BAKERS OVEN", "B&B"),
	markerRule(CategoryBunsAndRolls,
		"BUN", "ROLL"),
}

// markerRule claims labels containing any of the given markers.
func markerRule(c Category, markers ...string) classifyRule {
	return func(label string) (Category, bool) {
		for _, m := range markers {
			if strings.Contains(label, m) {
				return c, true
			}
		}
		return "", false
	}
}

// loafRule splits loaf products into XL and standard sizes.
func loafRule(label string) (Category, bool) {
	for _, m := range []string{"SOURDOUGH", "BATARD", "BAGUETTE", "S/DOUGH"} {
		if strings.Contains(label, m) {
			if strings.Contains(label, "XL") {
				return CategoryXLLoaves, true
			}
			return CategoryStandardLoaves, true
		}
	}
	return "", false
}

// Categorize classifies a raw product label into the bakery taxonomy.
// Empty and placeholder labels return CategoryIgnore; callers drop those
// records before they reach any downstream view.
func Categorize(label string) Category {
	upper := strings.ToUpper(strings.TrimSpace(label))
	if upper == "" || upper == "NAN" || upper == "BLANK" {
		return CategoryIgnore
	}
	for _, rule := range classifyRules {
		if c, ok := rule(upper); ok {
			return c
		}
	}
	return CategoryOther
}
