package stream

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

func randomUserAgent() string {
	// Target Chrome major versions roughly within the last ~6 months
	const minMajor = 132
	const maxMajor = 138

	major := rand.IntN(maxMajor-minMajor+1) + minMajor
	return fmt.Sprintf(
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36",
		major,
	)
}

// requestHeaders builds the CRLF-joined header block for ffmpeg's "-headers"
// option. Media CDNs reject requests that look too little like a browser.
func requestHeaders() string {
	pairs := [][2]string{
		{"Accept", "*/*"},
		{"Accept-Language", "en-US,en;q=0.9"},
		{"Connection", "keep-alive"},
		{"User-Agent", randomUserAgent()},
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s: %s\r\n", p[0], p[1])
	}
	return b.String()
}
