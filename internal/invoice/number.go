package invoice

import "fmt"

// NumberPrefix is the per-year prefix shared by every invoice number.
func NumberPrefix(year int) string {
	return fmt.Sprintf("INV-%d-", year)
}

// FormatNumber renders INV-{year}-{seq} with seq zero-padded to six digits.
func FormatNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%06d", NumberPrefix(year), seq)
}
