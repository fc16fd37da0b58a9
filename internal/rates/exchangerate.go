package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendlens/internal/analytics"
)

// DefaultBaseURL serves GET {base}/{CURRENCY} with a JSON rate table.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// HTTPProvider fetches rates from an exchangerate-api compatible endpoint.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

// NewHTTPProvider creates a provider against baseURL. An empty baseURL uses
// DefaultBaseURL.
func NewHTTPProvider(httpClient *http.Client, baseURL string) *HTTPProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

type latestResponse struct {
	Base            string                     `json:"base"`
	Date            string                     `json:"date"`
	TimeLastUpdated int64                      `json:"time_last_updated"`
	Rates           map[string]decimal.Decimal `json:"rates"`
}

// Latest fetches the current rate table for base.
func (p *HTTPProvider) Latest(ctx context.Context, base string) (*Snapshot, error) {
	base = strings.ToUpper(base)
	url := p.baseURL + "/" + base

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates http request for %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates request for %s: unexpected status %d", base, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding rates response for %s: %w", base, err)
	}

	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("no rates returned for %s", base)
	}
	if body.Base != "" && !strings.EqualFold(body.Base, base) {
		return nil, fmt.Errorf("rates response base %q does not match requested %s", body.Base, base)
	}

	table := make(analytics.Rates, len(body.Rates))
	for code, r := range body.Rates {
		if !r.IsPositive() {
			continue
		}
		table[strings.ToUpper(code)] = r
	}

	snap := NewSnapshot(base, table, p.now())
	snap.SourceDate = body.Date
	if body.TimeLastUpdated > 0 {
		snap.SourceTime = time.Unix(body.TimeLastUpdated, 0).UTC()
	}
	return snap, nil
}
