package schema

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Daily sales per store and item
var salesCSV = []byte(`Store,Item,Store ID,Date,Sales,Price,Note
S1,apple,101,2023-01-01,12,1.50,restock
S1,pear,101,2023-01-01,7,2.10,promo week
S2,apple,102,2023-01-01,30,1.45,late delivery
S2,pear,102,2023-01-01,5,2.00,rain
S1,apple,101,2023-01-02,18,1.50,holiday
S1,pear,101,2023-01-02,9,2.10,audit
S2,apple,102,2023-01-02,22,1.45,new shelf
S2,pear,102,2023-01-02,14,2.00,staff short
S1,apple,101,2023-01-03,3,1.50,power cut
S1,pear,101,2023-01-03,11,2.10,market day
S2,apple,102,2023-01-03,27,1.45,price check
S2,pear,102,2023-01-03,16,2.00,inventory
`)

// Monthly totals with a month-name period column
var monthlyCSV = []byte(`Month,Region,Amount
Jan-2026,North,8500.00
Jan-2026,South,2200.00
Feb-2026,North,8100.00
Feb-2026,South,2400.50
Mar-2026,North,7900.00
Mar-2026,South,2600.00
`)

func TestDiscoverSalesCSV(t *testing.T) {
	config, err := DiscoverFromCSV(salesCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	pretty, _ := json.MarshalIndent(config, "", "  ")
	fmt.Printf("=== SALES SCHEMA ===\n%s\n\n", string(pretty))

	dimKeys := config.DimensionKeys()
	assertContains(t, dimKeys, "store", "Store should be a dimension")
	assertContains(t, dimKeys, "item", "Item should be a dimension")
	assertContains(t, dimKeys, "store_id", "Store ID should be a dimension")

	measKeys := config.MeasureKeys()
	assertContains(t, measKeys, "sales", "Sales should be a measure")
	assertContains(t, measKeys, "price", "Price should be a measure")
	assertContains(t, measKeys, RecordCountKey, "record_count synthetic measure should exist")

	timeKeys := config.TimeKeys()
	assertContains(t, timeKeys, "date", "Date should be a time column")
	if got := config.TimeLayout("date"); got != "2006-01-02" {
		t.Errorf("date layout = %q, want 2006-01-02", got)
	}

	assertContains(t, config.IdentifierKeys(), "store_id", "store_id should be flagged as identifier")

	skippedNames := make([]string, len(config.SkippedColumns))
	for i, s := range config.SkippedColumns {
		skippedNames[i] = s.Column
	}
	assertContains(t, skippedNames, "Note", "Note should be skipped (unique free text)")

	if got := config.GetDefaultMeasure(); got != "sales" {
		t.Errorf("GetDefaultMeasure() = %q, want sales", got)
	}
	if got := config.GetDefaultTime(); got != "date" {
		t.Errorf("GetDefaultTime() = %q, want date", got)
	}
	if config.DiscoveredFrom != "CSV" {
		t.Errorf("DiscoveredFrom = %q, want CSV", config.DiscoveredFrom)
	}
}

func TestDiscoverMonthlyCSV(t *testing.T) {
	config, err := DiscoverFromCSV(monthlyCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	assertContains(t, config.TimeKeys(), "month", "Month should be a time column")
	if got := config.TimeLayout("month"); got != "Jan-2006" {
		t.Errorf("month layout = %q, want Jan-2006", got)
	}
	assertContains(t, config.DimensionKeys(), "region", "Region should be a dimension")
	assertContains(t, config.MeasureKeys(), "amount", "Amount should be a measure")
}

func TestDiscoverWithOverrides(t *testing.T) {
	config, err := DiscoverFromCSV(salesCSV, DiscoverOptions{
		RecoverColumns: []string{"Note"},
		Identifiers:    []string{"Store", "item"},
		Name:           "Sales with notes",
	})
	if err != nil {
		t.Fatalf("DiscoverFromCSV with overrides failed: %v", err)
	}

	if config.Name != "Sales with notes" {
		t.Errorf("Name = %q", config.Name)
	}

	assertContains(t, config.DimensionKeys(), "note", "Note should be recovered as dimension")
	for _, s := range config.SkippedColumns {
		if s.Column == "Note" {
			t.Error("Note should not be in skipped columns after recovery")
		}
	}

	ids := config.IdentifierKeys()
	assertContains(t, ids, "store", "Store should be forced to identifier")
	assertContains(t, ids, "item", "Item should be forced to identifier")
}

func TestDiscoverForcedTimeColumn(t *testing.T) {
	data := []byte("id,stamp,v\na,2023-01-01,1\nb,2023-01-02,2\n")
	config, err := DiscoverFromCSV(data, DiscoverOptions{TimeColumns: []string{"stamp"}})
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	assertContains(t, config.TimeKeys(), "stamp", "stamp should be a time column")
	assertContains(t, config.IdentifierKeys(), "id", "id should be an identifier")
}

func TestDiscoverErrors(t *testing.T) {
	if _, err := DiscoverFromCSV([]byte("")); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := DiscoverFromCSV([]byte("a,b\n")); err == nil {
		t.Error("expected error for header-only input")
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Story Points", "story_points"},
		{"Store ID", "store_id"},
		{"issueType", "issue_type"},
		{"StoryPoints", "story_points"},
		{"ID", "id"},
		{"created_at", "created_at"},
		{"Date", "date"},
	}

	for _, tt := range tests {
		got := toSnakeCase(tt.input)
		if got != tt.expected {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"story_points", "Story Points"},
		{"Sprint", "Sprint"},
		{"Store ID", "Store ID"},
	}

	for _, tt := range tests {
		got := toDisplayName(tt.input)
		if got != tt.expected {
			t.Errorf("toDisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDetectTimeLayout(t *testing.T) {
	tests := []struct {
		samples []string
		layout  string
		ok      bool
	}{
		{[]string{"Jan-2026", "Feb-2026", "Mar-2026"}, "Jan-2006", true},
		{[]string{"2025-01", "2025-02", "2025-03"}, "2006-01", true},
		{[]string{"2023-01-01", "2023-01-02"}, "2006-01-02", true},
		{[]string{"2023-01-01 10:00:00", "2023-01-01 11:30:00"}, "2006-01-02 15:04:05", true},
		{[]string{"2023-01-01T10:00:00Z"}, time.RFC3339, true},
		{[]string{"2024", "2025", "2026"}, "", false},
		{[]string{"Sprint 15", "Sprint 16", "Sprint 17"}, "", false},
		{nil, "", false},
	}

	for _, tt := range tests {
		layout, ok := DetectTimeLayout(tt.samples)
		if ok != tt.ok || layout != tt.layout {
			t.Errorf("DetectTimeLayout(%v) = (%q, %v), want (%q, %v)", tt.samples, layout, ok, tt.layout, tt.ok)
		}
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime(" 2023-01-02 ", "")
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	want := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseTime = %v, want %v", got, want)
	}

	if _, err := ParseTime("02.01.2023", "02.01.2006"); err != nil {
		t.Errorf("explicit layout should parse: %v", err)
	}
	if _, err := ParseTime("yesterday", ""); err == nil {
		t.Error("expected error for unparseable time")
	}
}

func TestIsNull(t *testing.T) {
	for _, v := range []string{"", " ", "null", "NULL", "N/A", "NaN"} {
		if !IsNull(v) {
			t.Errorf("IsNull(%q) = false", v)
		}
	}
	if IsNull("0") {
		t.Error("IsNull(\"0\") = true")
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func assertContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s: %q not found in %v", msg, item, slice)
}
