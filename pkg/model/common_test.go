package model

import (
	"testing"
)

func TestDateRange_Valid(t *testing.T) {
	tests := []struct {
		name     string
		dr       DateRange
		expected bool
	}{
		{"正常范围", DateRange{"2025-04-01", "2025-04-07"}, true},
		{"单日范围", DateRange{"2025-04-01", "2025-04-01"}, true},
		{"起止颠倒", DateRange{"2025-04-07", "2025-04-01"}, false},
		{"格式错误", DateRange{"01/04/2025", "2025-04-07"}, false},
		{"空范围", DateRange{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.dr.Valid(); result != tt.expected {
				t.Errorf("Valid() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestDateRange_Dates(t *testing.T) {
	dr := DateRange{StartDate: "2025-04-28", EndDate: "2025-05-02"}
	dates := dr.Dates()

	expected := []Date{"2025-04-28", "2025-04-29", "2025-04-30", "2025-05-01", "2025-05-02"}
	if len(dates) != len(expected) {
		t.Fatalf("expected %d dates, got %d", len(expected), len(dates))
	}
	for i, d := range expected {
		if dates[i] != d {
			t.Errorf("dates[%d] = %s, expected %s", i, dates[i], d)
		}
	}
}

func TestDateRange_Contains(t *testing.T) {
	dr := DateRange{StartDate: "2025-04-01", EndDate: "2025-04-07"}

	if !dr.Contains("2025-04-01") || !dr.Contains("2025-04-07") {
		t.Error("边界日期应包含在范围内")
	}
	if dr.Contains("2025-03-31") || dr.Contains("2025-04-08") {
		t.Error("范围外日期不应包含")
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		assigned int
		total    int
		expected float64
	}{
		{1, 2, 50.0},
		{2, 2, 100.0},
		{0, 2, 0.0},
		{0, 0, 0.0}, // 总数为0时固定返回0
		{1, 3, 33.33},
		{2, 3, 66.67},
	}

	for _, tt := range tests {
		if result := Percentage(tt.assigned, tt.total); result != tt.expected {
			t.Errorf("Percentage(%d, %d) = %v, expected %v", tt.assigned, tt.total, result, tt.expected)
		}
	}
}

func TestNewRoster_Dedup(t *testing.T) {
	roster := NewRoster([]Employee{
		{ID: "1", Name: "A", Contract: "X", City: "Cairo"},
		{ID: "2", Name: "B", Contract: "X", City: "Cairo"},
		{ID: "1", Name: "A-dup", Contract: "Y", City: "Suez"}, // 重复ID，应保留首次
		{ID: "", Name: "无ID"},
	})

	if roster.Len() != 2 {
		t.Fatalf("expected 2 employees after dedup, got %d", roster.Len())
	}

	e, ok := roster.Get("1")
	if !ok {
		t.Fatal("employee 1 should exist")
	}
	if e.Name != "A" || e.Contract != "X" {
		t.Errorf("dedup should keep first occurrence, got %+v", e)
	}
}

func TestRoster_ContractsAndCities(t *testing.T) {
	roster := NewRoster([]Employee{
		{ID: "1", Contract: "Al Abtal", City: "Hurghada"},
		{ID: "2", Contract: "Wasaly", City: "Assiut"},
		{ID: "3", Contract: "Al Abtal", City: "Port Said"},
	})

	if got := roster.Contracts(); len(got) != 2 {
		t.Errorf("expected 2 contracts, got %v", got)
	}
	if got := roster.Cities(); len(got) != 3 {
		t.Errorf("expected 3 cities, got %v", got)
	}
}
