package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatDuration renders seconds as M:SS, or H:MM:SS from one hour up.
func FormatDuration(sec int) string {
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseDuration is the inverse of FormatDuration. It accepts "S", "M:S" and
// "H:M:S" and returns 0 for anything it can't read, malformed input included.
func ParseDuration(text string) int {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0
	}
	vals := make([]int, 0, 3)
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0
		}
		vals = append(vals, v)
	}
	switch len(vals) {
	case 1:
		return vals[0]
	case 2:
		return vals[0]*60 + vals[1]
	default:
		return vals[0]*3600 + vals[1]*60 + vals[2]
	}
}

func EscapeMd(s string) string {
	repl := []string{"*", "\\*", "_", "\\_", "`", "\\`", "~", "\\~"}
	r := strings.NewReplacer(repl...)
	return r.Replace(s)
}
