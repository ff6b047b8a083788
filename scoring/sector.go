package scoring

import "strings"

// sectorRecommendations is a fixed lookup keyed by substring match on the
// organisation's sector string. Not inference; just a curated table.
var sectorRecommendations = []struct {
	markers []string
	recs    []string
}{
	{
		markers: []string{"energy", "utilities", "oil", "gas"},
		recs: []string{
			"Disclose Scope 1 emissions intensity per unit of generated output",
			"Describe the transition plan for carbon-intensive assets",
		},
	},
	{
		markers: []string{"financial", "banking", "insurance"},
		recs: []string{
			"Report financed emissions for the lending and investment portfolio",
			"Assess climate risk exposure across the loan book",
		},
	},
	{
		markers: []string{"manufacturing", "industrial"},
		recs: []string{
			"Track energy consumption and waste per production unit",
			"Extend emissions accounting to upstream supply-chain activities",
		},
	},
}

// SectorRecommendations returns the fixed extra recommendations for a sector
// string, or nil when no entry matches.
func SectorRecommendations(sector string) []string {
	s := strings.ToLower(strings.TrimSpace(sector))
	if s == "" {
		return nil
	}
	for _, entry := range sectorRecommendations {
		for _, marker := range entry.markers {
			if strings.Contains(s, marker) {
				return entry.recs
			}
		}
	}
	return nil
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
