package discovery

import (
	"errors"
	"fmt"
)

// Validate checks the fields the views rely on.
func (i Industry) Validate() error {
	if i.IndustryCode == "" {
		return errors.New("industry: missing industryCode")
	}
	if i.Name == "" {
		return fmt.Errorf("industry %s: missing name", i.IndustryCode)
	}
	return nil
}

func (c Company) Validate() error {
	if c.ID == "" {
		return errors.New("company: missing id")
	}
	if c.CompanyName == "" {
		return fmt.Errorf("company %s: missing companyName", c.ID)
	}
	for i, p := range c.ClientProblems {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("company %s: clientProblems[%d]: %w", c.ID, i, err)
		}
	}
	return nil
}

func (c Call) Validate() error {
	if c.ID == "" {
		return errors.New("call: missing id")
	}
	for i, p := range c.ClientProblems {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("call %s: clientProblems[%d]: %w", c.ID, i, err)
		}
	}
	for i, s := range c.SolutionsPitched {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("call %s: solutionsPitched[%d]: %w", c.ID, i, err)
		}
	}
	for i, m := range c.CompetitorsMentioned {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("call %s: competitorsMentioned[%d]: %w", c.ID, i, err)
		}
	}
	return nil
}

func (p ClientProblem) Validate() error {
	switch p.Tag {
	case TagImmediate, TagLongTerm:
		return nil
	}
	return fmt.Errorf("unknown problem tag %q", p.Tag)
}

func (s SolutionPitched) Validate() error {
	switch s.FitLabel {
	case FitImmediate, FitFuture:
		return nil
	}
	return fmt.Errorf("unknown fit label %q", s.FitLabel)
}

func (m CompetitorMention) Validate() error {
	switch m.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return nil
	}
	return fmt.Errorf("unknown sentiment %q", m.Sentiment)
}

func (p Profile) Validate() error {
	if p.Email == "" {
		return errors.New("profile: missing email")
	}
	return nil
}
