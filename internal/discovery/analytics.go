package discovery

import (
	"math"
	"sort"
	"strings"
)

// SubcategoryShare is one slice of the sub-industry distribution.
type SubcategoryShare struct {
	Name      string `json:"name"`
	Companies int    `json:"companies"`
	Percent   int    `json:"percent"`
}

// ProblemCategory aggregates client problems sharing a category.
type ProblemCategory struct {
	Category  string `json:"category"`
	Count     int    `json:"count"`
	Immediate int    `json:"immediate"`
	Companies int    `json:"companies"`
	Severity  string `json:"severity"`
}

// SectorAnalytics is derived from the companies (and, when available, the
// calls) of one industry. Nothing here is fetched separately.
type SectorAnalytics struct {
	TotalCompanies int                `json:"totalCompanies"`
	Subcategories  []SubcategoryShare `json:"subcategories"`
	Problems       []ProblemCategory  `json:"problems"`
}

const (
	otherSubcategory = "Other"
	uncategorized    = "Uncategorized"
)

// AnalyzeSector computes the sub-industry distribution of companies and the
// problem categories mentioned across their calls. Output ordering is
// deterministic: by count descending, then name.
func AnalyzeSector(companies []Company, calls []Call) SectorAnalytics {
	out := SectorAnalytics{TotalCompanies: len(companies)}

	counts := make(map[string]int)
	for _, c := range companies {
		c.Normalize()
		name := strings.TrimSpace(c.SubIndustry)
		if name == "" {
			name = otherSubcategory
		}
		counts[name]++
	}
	for name, n := range counts {
		out.Subcategories = append(out.Subcategories, SubcategoryShare{
			Name:      name,
			Companies: n,
			Percent:   percent(n, len(companies)),
		})
	}
	sort.Slice(out.Subcategories, func(i, j int) bool {
		a, b := out.Subcategories[i], out.Subcategories[j]
		if a.Companies != b.Companies {
			return a.Companies > b.Companies
		}
		return a.Name < b.Name
	})

	type agg struct {
		count, immediate int
		companies        map[ID]struct{}
	}
	byCategory := make(map[string]*agg)
	add := func(owner ID, p ClientProblem) {
		cat := strings.TrimSpace(p.Category)
		if cat == "" {
			cat = uncategorized
		}
		a, ok := byCategory[cat]
		if !ok {
			a = &agg{companies: make(map[ID]struct{})}
			byCategory[cat] = a
		}
		a.count++
		if p.Immediate() {
			a.immediate++
		}
		a.companies[owner] = struct{}{}
	}
	for _, c := range companies {
		for _, p := range c.ClientProblems {
			add(c.ID, p)
		}
	}
	for _, call := range calls {
		for _, p := range call.ClientProblems {
			add(call.CompanyID, p)
		}
	}
	for cat, a := range byCategory {
		out.Problems = append(out.Problems, ProblemCategory{
			Category:  cat,
			Count:     a.count,
			Immediate: a.immediate,
			Companies: len(a.companies),
			Severity:  severity(a.count, a.immediate),
		})
	}
	sort.Slice(out.Problems, func(i, j int) bool {
		a, b := out.Problems[i], out.Problems[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})

	return out
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}

func severity(count, immediate int) string {
	switch {
	case count <= 1 && immediate == 0:
		return "Low"
	case immediate*2 >= count:
		return "High"
	default:
		return "Medium"
	}
}
