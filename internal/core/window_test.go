package core

import (
	"testing"
	"time"
)

func TestDateRange_Inclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	days := DateRange(start, end)
	if len(days) != 3 {
		t.Fatalf("len = %d, want 3", len(days))
	}

	want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i, d := range days {
		if d.Format() != want[i] {
			t.Errorf("day %d = %s, want %s", i, d.Format(), want[i])
		}
	}
	if days[2].Year != 2024 || days[2].Month != 1 || days[2].Day != 3 {
		t.Errorf("parts = %d/%d/%d, want 2024/1/3", days[2].Year, days[2].Month, days[2].Day)
	}
}

func TestDateRange_CrossesMonthBoundary(t *testing.T) {
	start := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	days := DateRange(start, end)
	if len(days) != 3 {
		t.Fatalf("len = %d, want 3 (2024 is a leap year)", len(days))
	}
	if days[1].Format() != "2024-02-29" {
		t.Errorf("middle day = %s, want 2024-02-29", days[1].Format())
	}
}

func TestDateRange_SingleDay(t *testing.T) {
	d := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	days := DateRange(d, d)
	if len(days) != 1 {
		t.Fatalf("len = %d, want 1", len(days))
	}
	if days[0].Format() != "2024-06-15" {
		t.Errorf("day = %s, want 2024-06-15", days[0].Format())
	}
}

func TestDateRange_EndBeforeStart(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if days := DateRange(start, end); len(days) != 0 {
		t.Errorf("len = %d, want 0", len(days))
	}
}

func TestTrailingWindow(t *testing.T) {
	now := time.Date(2024, 1, 20, 17, 30, 0, 0, time.UTC)
	start, end := TrailingWindow(14, now)

	if got := start.Format("2006-01-02"); got != "2024-01-06" {
		t.Errorf("start = %s, want 2024-01-06", got)
	}
	if got := end.Format("2006-01-02"); got != "2024-01-20" {
		t.Errorf("end = %s, want 2024-01-20", got)
	}
	if len(DateRange(start, end)) != 15 {
		t.Errorf("window days = %d, want 15 (trailing 14 plus today)", len(DateRange(start, end)))
	}
}
