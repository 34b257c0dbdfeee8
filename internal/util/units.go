package util

import "fmt"

const bytesPerGiB = 1024 * 1024 * 1024

// FormatGiB renders a byte count as gibibytes with two decimals ("7.81").
func FormatGiB(bytes int64) string {
	return fmt.Sprintf("%.2f", float64(bytes)/bytesPerGiB)
}

// FormatMemory renders free/total memory the way the dashboard shows it.
func FormatMemory(free, total int64) string {
	return fmt.Sprintf("%s / %s GB", FormatGiB(free), FormatGiB(total))
}

// FormatHashrate renders a hashrate in H/s, scaling to kH/s and MH/s when large.
func FormatHashrate(hs float64) string {
	switch {
	case hs >= 1e6:
		return fmt.Sprintf("%.2f MH/s", hs/1e6)
	case hs >= 1e3:
		return fmt.Sprintf("%.2f kH/s", hs/1e3)
	default:
		return fmt.Sprintf("%.1f H/s", hs)
	}
}
