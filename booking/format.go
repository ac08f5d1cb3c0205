package booking

import (
	"fmt"
	"strconv"
	"strings"
)

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return FirstStep
	}
	return n
}

func itoa(n int) string { return strconv.Itoa(n) }

// Summary renders the inquiry as labelled plain-text lines for email
// bodies and logs. Empty optional fields are skipped.
func (in Inquiry) Summary() string {
	var b strings.Builder
	for _, f := range fields {
		val := *f.get(&in)
		if val == "" {
			continue
		}
		fmt.Fprintf(&b, "%-14s %s\n", f.label+":", val)
	}
	return b.String()
}
