package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kalambet/calldash/internal/discovery"
)

// Endpoint paths, relative to the backend base URL.
const (
	PathLogin      = "/auth/login"
	PathProfile    = "/users/getMyProfile"
	PathIndustries = "/industries"
	PathCalls      = "/calls"
)

// Industry codes travel in upper case ("TECHNOLOGY_SOFTWARE"); the legacy
// per-industry calls endpoint wants them lower-cased.
func industryCompaniesPath(code string) string {
	return "/industries/" + url.PathEscape(strings.ToUpper(code)) + "/companies"
}

func companyCallsPath(companyID string) string {
	return "/companies/" + url.PathEscape(companyID) + "/calls"
}

func industryCallsPath(code string) string {
	return "/calls/industry/" + url.PathEscape(strings.ToLower(code))
}

func callPath(callID string) string {
	return "/calls/" + url.PathEscape(callID)
}

type validator interface {
	Validate() error
}

// decodeList parses a collection payload and validates every element.
// A null payload is an empty collection.
func decodeList[T validator](endpoint string, raw json.RawMessage) ([]T, error) {
	if isNull(raw) {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ShapeError{Endpoint: endpoint, Reason: fmt.Sprintf("expected a list: %v", err)}
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, &ShapeError{Endpoint: endpoint, Reason: fmt.Sprintf("item %d: %v", i, err)}
		}
	}
	return items, nil
}

// decodeRecord parses a single-record payload. A null payload yields nil.
func decodeRecord[T validator](endpoint string, raw json.RawMessage) (*T, error) {
	if isNull(raw) {
		return nil, nil
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &ShapeError{Endpoint: endpoint, Reason: fmt.Sprintf("expected a record: %v", err)}
	}
	if err := rec.Validate(); err != nil {
		return nil, &ShapeError{Endpoint: endpoint, Reason: err.Error()}
	}
	return &rec, nil
}

func (c *Client) authGet(ctx context.Context, endpoint, token string) (json.RawMessage, error) {
	if token == "" {
		return nil, ErrAuthMissing
	}
	return c.Call(ctx, http.MethodGet, endpoint, token, nil)
}

// Profile fetches the signed-in user's backend profile.
func (c *Client) Profile(ctx context.Context, token string) (*discovery.Profile, error) {
	raw, err := c.authGet(ctx, PathProfile, token)
	if err != nil {
		return nil, err
	}
	return decodeRecord[discovery.Profile](PathProfile, raw)
}

// Industries lists all industries.
func (c *Client) Industries(ctx context.Context, token string) ([]discovery.Industry, error) {
	raw, err := c.authGet(ctx, PathIndustries, token)
	if err != nil {
		return nil, err
	}
	return decodeList[discovery.Industry](PathIndustries, raw)
}

// CompaniesByIndustry lists the companies filed under an industry code.
func (c *Client) CompaniesByIndustry(ctx context.Context, token, code string) ([]discovery.Company, error) {
	endpoint := industryCompaniesPath(code)
	raw, err := c.authGet(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	companies, err := decodeList[discovery.Company](endpoint, raw)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		companies[i].Normalize()
	}
	return companies, nil
}

// CallsByCompany lists the calls held with one company.
func (c *Client) CallsByCompany(ctx context.Context, token, companyID string) ([]discovery.Call, error) {
	endpoint := companyCallsPath(companyID)
	raw, err := c.authGet(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	return decodeList[discovery.Call](endpoint, raw)
}

// CallsByIndustry lists calls through the older per-industry endpoint.
func (c *Client) CallsByIndustry(ctx context.Context, token, code string) ([]discovery.Call, error) {
	endpoint := industryCallsPath(code)
	raw, err := c.authGet(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	return decodeList[discovery.Call](endpoint, raw)
}

// GetCall fetches one call with its transcript analysis. A nil call with a
// nil error means the backend had no such record.
func (c *Client) GetCall(ctx context.Context, token, callID string) (*discovery.Call, error) {
	endpoint := callPath(callID)
	raw, err := c.authGet(ctx, endpoint, token)
	if err != nil {
		return nil, err
	}
	return decodeRecord[discovery.Call](endpoint, raw)
}

// Calls lists every call across industries.
func (c *Client) Calls(ctx context.Context, token string) ([]discovery.Call, error) {
	raw, err := c.authGet(ctx, PathCalls, token)
	if err != nil {
		return nil, err
	}
	return decodeList[discovery.Call](PathCalls, raw)
}
