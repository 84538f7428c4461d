package holiday_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tokocicil/collection-engine/calendar"
	"github.com/tokocicil/collection-engine/holiday"
)

func TestClient_FiltersToNationalHolidays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("year"); got != "2025" {
			t.Errorf("year query = %q, want 2025", got)
		}
		w.Write([]byte(`[
			{"holiday_date": "2025-01-01", "holiday_name": "Tahun Baru", "is_national_holiday": true},
			{"holiday_date": "2025-01-27", "holiday_name": "Isra Mikraj", "is_national_holiday": true},
			{"holiday_date": "2025-02-12", "holiday_name": "Cuti Bersama", "is_national_holiday": false}
		]`))
	}))
	defer srv.Close()

	c := holiday.NewClient(srv.URL)
	hs, err := c.Holidays(context.Background(), 2025)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if len(hs) != 2 {
		t.Fatalf("got %d holidays, want 2 (regional entries filtered)", len(hs))
	}
	if !hs.Contains(calendar.MustParse("2025-01-01")) {
		t.Errorf("missing 2025-01-01")
	}
}

func TestClient_CachesPerYear(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"holiday_date": "2025-03-31", "is_national_holiday": true}]`))
	}))
	defer srv.Close()

	c := holiday.NewClient(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.Holidays(context.Background(), 2025); err != nil {
			t.Fatalf("Holidays: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream called %d times, want 1", n)
	}
}

func TestClient_ErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := holiday.NewClient(srv.URL)
	if _, err := c.Holidays(context.Background(), 2025); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestStaticSource(t *testing.T) {
	s := holiday.Static{2025: {"2025-01-01"}}
	hs, err := s.Holidays(context.Background(), 2025)
	if err != nil {
		t.Fatalf("Holidays: %v", err)
	}
	if !hs.Contains(calendar.MustParse("2025-01-01")) {
		t.Errorf("static set missing declared holiday")
	}
	empty, _ := s.Holidays(context.Background(), 2030)
	if len(empty) != 0 {
		t.Errorf("unknown year should yield empty set")
	}
}
