package utils

import "testing"

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		sec  int
		want string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{60, "1:00"},
		{125, "2:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
		{7325, "2:02:05"},
		{360000, "100:00:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.sec); got != c.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", c.sec, got, c.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"45", 45},
		{"2:05", 125},
		{"1:01:01", 3661},
		{"0:00", 0},
		{"", 0},
		{"abc", 0},
		{"1:xx", 0},
		{"1:2:3:4", 0},
		{"-1:30", 0},
	}
	for _, c := range cases {
		if got := ParseDuration(c.text); got != c.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	secs := []int{0, 1, 59, 60, 61, 125, 599, 600, 3599, 3600, 3661, 86399, 86400, 360001}
	for _, n := range secs {
		if got := ParseDuration(FormatDuration(n)); got != n {
			t.Errorf("ParseDuration(FormatDuration(%d)) = %d, want %d", n, got, n)
		}
	}
	for n := 0; n < 5000; n += 7 {
		if got := ParseDuration(FormatDuration(n)); got != n {
			t.Fatalf("round trip failed at %d: got %d", n, got)
		}
	}
}

func TestEscapeMd(t *testing.T) {
	if got := EscapeMd("a*b_c`d~e"); got != "a\\*b\\_c\\`d\\~e" {
		t.Errorf("EscapeMd = %q", got)
	}
}
