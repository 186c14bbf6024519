package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is a backend identifier. The backend emits ids as strings, but older
// records carry numeric ids; both decode to the same string form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Timestamp is a creation time as sent by the backend. Unparseable values
// decode to the zero time rather than failing the whole record.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisAfter separates epoch milliseconds from epoch seconds.
const epochMillisAfter = 1e11

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil && n != "" {
		t.Time = epochTime(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func epochTime(n json.Number) time.Time {
	f, err := n.Float64()
	if err != nil || f <= 0 {
		return time.Time{}
	}
	if f >= epochMillisAfter {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// Date formats the timestamp as a short US date, or "" when unknown.
func (t Timestamp) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("1/2/2006")
}

type Industry struct {
	ID           ID     `json:"id"`
	IndustryCode string `json:"industryCode"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Icon         string `json:"icon,omitempty"`
}

// Slug is the lower-case industry code used in routes.
func (i Industry) Slug() string {
	return strings.ToLower(i.IndustryCode)
}

// Classification is the legacy nested block some backend versions send
// instead of the flattened industry fields.
type Classification struct {
	Domain      string `json:"domain"`
	Industry    string `json:"industry"`
	SubIndustry string `json:"subIndustry"`
}

type Representative struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
}

type Company struct {
	ID                   ID              `json:"id"`
	CompanyName          string          `json:"companyName"`
	Domain               string          `json:"domain"`
	Industry             string          `json:"industry"`
	SubIndustry          string          `json:"subIndustry"`
	CreatedAt            Timestamp       `json:"createdAt"`
	Classification       *Classification `json:"companyClassification,omitempty"`
	CallSummary          string          `json:"callSummary,omitempty"`
	ClientRepresentative *Representative `json:"clientRepresentative,omitempty"`
	ClientProblems       []ClientProblem `json:"clientProblems,omitempty"`
}

// Normalize folds the legacy classification block into the flat fields
// when those are empty.
func (c *Company) Normalize() {
	if c.Classification == nil {
		return
	}
	if c.Domain == "" {
		c.Domain = c.Classification.Domain
	}
	if c.Industry == "" {
		c.Industry = c.Classification.Industry
	}
	if c.SubIndustry == "" {
		c.SubIndustry = c.Classification.SubIndustry
	}
}

const (
	TagImmediate = "Immediate Problem"
	TagLongTerm  = "Long-Term Problem"

	FitImmediate = "Immediate Fit"
	FitFuture    = "Future Fit"

	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

type ClientProblem struct {
	ProblemStatement string `json:"problemStatement"`
	Tag              string `json:"tag"`
	Category         string `json:"category"`
	IndustryContext  string `json:"industryContext"`
}

// Immediate reports whether the problem is tagged as an immediate one.
func (p ClientProblem) Immediate() bool { return p.Tag == TagImmediate }

type SolutionPitched struct {
	SolutionDescription string `json:"solutionDescription"`
	AddressedProblem    string `json:"addressedProblem"`
	FitLabel            string `json:"fitLabel"`
}

type CompetitorMention struct {
	CompetitorName string `json:"competitorName"`
	Context        string `json:"context"`
	Sentiment      string `json:"sentiment"`
}

type SummaryRow struct {
	Problem           string `json:"problem"`
	SolutionPitched   string `json:"solutionPitched"`
	ClientObjection   string `json:"clientObjection,omitempty"`
	ObjectionHandling string `json:"objectionHandling,omitempty"`
	ClientReaction    string `json:"clientReaction"`
}

type Call struct {
	ID                       ID                  `json:"id"`
	CompanyID                ID                  `json:"companyId"`
	CompanyName              string              `json:"companyName"`
	Stage                    string              `json:"stage"`
	NotesLink                string              `json:"notesLink,omitempty"`
	CreatedAt                Timestamp           `json:"createdAt"`
	CallSummary              string              `json:"callSummary"`
	ClientRepresentative     Representative      `json:"clientRepresentative"`
	ConsultAddRepresentative string              `json:"consultAddRepresentative"`
	ClientProblems           []ClientProblem     `json:"clientProblems"`
	SolutionsPitched         []SolutionPitched   `json:"solutionsPitched,omitempty"`
	CompetitorsMentioned     []CompetitorMention `json:"competitorsMentioned,omitempty"`
	SummaryRows              []SummaryRow        `json:"summaryRows,omitempty"`
	KeyTakeaways             []string            `json:"keyTakeaways,omitempty"`
	FollowUpActions          []string            `json:"followUpActions,omitempty"`
	SolutionDelivered        string              `json:"solutionDelivered,omitempty"`
	Classification           *Classification     `json:"companyClassification,omitempty"`
}

// IndustryCode returns the industry the call's company belongs to, if the
// backend sent one.
func (c Call) IndustryCode() string {
	if c.Classification == nil {
		return ""
	}
	return c.Classification.Industry
}

// User is the display-only profile kept for the navbar.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Profile is the record returned by the backend's profile endpoint.
type Profile struct {
	ID    ID     `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}
