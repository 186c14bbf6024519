package discovery

import "strings"

// FallbackIndustries is shown on the landing page when the industries
// request fails outright. An empty successful response does not use it.
func FallbackIndustries() []Industry {
	return []Industry{
		{ID: "1", Name: "Technology & Software", IndustryCode: "TECHNOLOGY_SOFTWARE"},
		{ID: "2", Name: "Healthcare", IndustryCode: "HEALTHCARE"},
		{ID: "3", Name: "Financial Services", IndustryCode: "FINANCIAL_SERVICES"},
		{ID: "4", Name: "Manufacturing", IndustryCode: "MANUFACTURING"},
		{ID: "5", Name: "Retail & E-commerce", IndustryCode: "RETAIL_ECOMMERCE"},
		{ID: "6", Name: "Education", IndustryCode: "EDUCATION"},
	}
}

// Reaction returns the leading classifier of a summary row's client
// reaction ("Positive - liked the demo" -> "Positive").
func Reaction(row SummaryRow) string {
	head, _, _ := strings.Cut(row.ClientReaction, " - ")
	head = strings.TrimSpace(head)
	if head == "" {
		return SentimentNeutral
	}
	return head
}

// ReactionDetail returns the free text after the classifier, if any.
func ReactionDetail(row SummaryRow) string {
	_, tail, found := strings.Cut(row.ClientReaction, " - ")
	if !found {
		return ""
	}
	return strings.TrimSpace(tail)
}

// StageVariant maps a free-text pipeline stage to a badge variant.
func StageVariant(stage string) string {
	switch {
	case strings.Contains(stage, "Qualified"):
		return "default"
	case strings.Contains(stage, "Demo"):
		return "secondary"
	case strings.Contains(stage, "Closed"):
		return "destructive"
	}
	return "default"
}

// IndustryLabel turns a route slug or industry code into a readable label:
// "TECHNOLOGY_SOFTWARE" -> "technology software".
func IndustryLabel(code string) string {
	return strings.ReplaceAll(strings.ToLower(code), "_", " ")
}

// Excerpt shortens s to at most n runes, appending "..." when cut.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
