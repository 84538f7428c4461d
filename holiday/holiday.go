/*
Package holiday looks up Indonesian national holidays by year.

PURPOSE:
  The calendar resolver takes holidays as a plain set; this package is the
  collaborator that produces that set. The production client queries the
  public api-harilibur service and keeps only national holidays (regional
  observances do not pause collection).

FAILURE MODE:
  The API is best-effort. Callers must treat a failed lookup as "no
  holidays this year" - business days degrade to every non-Sunday rather
  than blocking order processing. This package reports the error; the
  degradation decision belongs to the call site.
*/
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tokocicil/collection-engine/calendar"
)

// DefaultBaseURL is the public national-holiday API.
const DefaultBaseURL = "https://api-harilibur.vercel.app/api"

// Source yields the holiday set for a year.
type Source interface {
	Holidays(ctx context.Context, year int) (calendar.HolidaySet, error)
}

// =============================================================================
// HTTP CLIENT
// =============================================================================

// Client fetches holidays from the api-harilibur service, caching each
// year's result for the life of the process. Holiday calendars for a given
// year are effectively immutable once published.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.Mutex
	cache map[int]calendar.HolidaySet
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		cache:   make(map[int]calendar.HolidaySet),
	}
}

type apiHoliday struct {
	HolidayDate       string `json:"holiday_date"`
	HolidayName       string `json:"holiday_name"`
	IsNationalHoliday bool   `json:"is_national_holiday"`
}

func (c *Client) Holidays(ctx context.Context, year int) (calendar.HolidaySet, error) {
	c.mu.Lock()
	if hs, ok := c.cache[year]; ok {
		c.mu.Unlock()
		return hs, nil
	}
	c.mu.Unlock()

	url := fmt.Sprintf("%s?year=%d", c.BaseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday api: unexpected status %d", resp.StatusCode)
	}

	var entries []apiHoliday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("holiday api: decode: %w", err)
	}

	hs := calendar.HolidaySet{}
	for _, e := range entries {
		if e.IsNationalHoliday && e.HolidayDate != "" {
			hs[e.HolidayDate] = struct{}{}
		}
	}

	c.mu.Lock()
	c.cache[year] = hs
	c.mu.Unlock()
	return hs, nil
}

// =============================================================================
// STATIC SOURCE - tests and offline use
// =============================================================================

// Static serves a fixed per-year holiday table.
type Static map[int][]string

func (s Static) Holidays(_ context.Context, year int) (calendar.HolidaySet, error) {
	return calendar.NewHolidaySet(s[year]), nil
}

// None always returns the empty set: the fully degraded calendar.
type None struct{}

func (None) Holidays(context.Context, int) (calendar.HolidaySet, error) {
	return calendar.HolidaySet{}, nil
}
