package page

// CallTab is the active panel on the call detail page. Switching tabs is
// view state only and never triggers a fetch.
type CallTab string

const (
	TabOverview  CallTab = "overview"
	TabProblems  CallTab = "problems"
	TabSolutions CallTab = "solutions"
	TabAnalysis  CallTab = "analysis"
	TabTakeaways CallTab = "takeaways"
)

const DefaultCallTab = TabOverview

type TabInfo struct {
	Tab   CallTab
	Label string
}

var callTabs = []TabInfo{
	{TabOverview, "Overview"},
	{TabProblems, "Problems"},
	{TabSolutions, "Solutions"},
	{TabAnalysis, "Analysis"},
	{TabTakeaways, "Takeaways"},
}

// CallTabs lists the call page tabs in display order.
func CallTabs() []TabInfo {
	out := make([]TabInfo, len(callTabs))
	copy(out, callTabs)
	return out
}

// ParseCallTab maps a query value to a tab; anything unknown is overview.
func ParseCallTab(s string) CallTab {
	for _, t := range callTabs {
		if string(t.Tab) == s {
			return t.Tab
		}
	}
	return DefaultCallTab
}

// SectorView toggles the industry page between charts and the company list.
type SectorView string

const (
	ViewAnalytics SectorView = "analytics"
	ViewCompanies SectorView = "companies"
)

func ParseSectorView(s string) SectorView {
	if SectorView(s) == ViewCompanies {
		return ViewCompanies
	}
	return ViewAnalytics
}
