package auction

import "strconv"

// FormatVND renders an amount with thousands separators, e.g. "105,000 VND".
func FormatVND(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	n := len(s)
	out := make([]byte, 0, n+n/3+5)
	if neg {
		out = append(out, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(append(out, " VND"...))
}
