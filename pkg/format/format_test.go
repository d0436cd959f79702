package format

import (
	"strings"
	"testing"
	"time"
)

func TestDays(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n    int
		want string
	}{
		{1, "1 день"},
		{2, "2 дня"},
		{4, "4 дня"},
		{5, "5 дней"},
		{11, "11 дней"},
		{12, "12 дней"},
		{14, "14 дней"},
		{21, "21 день"},
		{22, "22 дня"},
		{25, "25 дней"},
		{30, "30 дней"},
		{111, "111 дней"},
		{0, "0 дней"},
	}

	for _, tc := range cases {
		if got := Days(tc.n); got != tc.want {
			t.Errorf("Days(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestDateFormats(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 2, 9, 8, 5, 0, 0, time.UTC)
	if got := Date(ts); got != "09.02.2026" {
		t.Fatalf("Date() = %q", got)
	}
	if got := DateTime(ts); got != "09.02.2026 08:05" {
		t.Fatalf("DateTime() = %q", got)
	}
}

func TestTable(t *testing.T) {
	t.Parallel()

	got := Table([][]string{
		{"Год", "Дней"},
		{"2023", "12"},
	})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if !strings.HasPrefix(lines[1], "2023") || !strings.HasSuffix(lines[1], "12") {
		t.Fatalf("row = %q", lines[1])
	}
	if Table(nil) != "" {
		t.Fatal("empty table must render empty string")
	}
}
