package conversion

import (
	"fmt"
	"math"

	"github.com/cyverse/pdfa/internal/model"
)

const (
	estimateBaseMs     = 500.0
	estimatePerKBMs    = 50.0
	smallFileBytes     = 512 * 1024
	largeFileBytes     = 5 * 1024 * 1024
	bytesPerPageGuess  = 50 * 1024
	manyPagesThreshold = 50
)

// Estimate predicts how long converting a file of the given size will take.
func Estimate(size int64) *model.Estimate {
	ms := estimateBaseMs + float64(size)/1024*estimatePerKBMs
	est := &model.Estimate{Complexity: "medium"}

	switch {
	case size < smallFileBytes:
		est.Complexity = "low"
		est.Factors = append(est.Factors, "small file")
	case size > largeFileBytes:
		est.Complexity = "high"
		est.Factors = append(est.Factors, "large file")
		ms *= 1.5
	}

	pages := math.Max(1, float64(size)/bytesPerPageGuess)
	if pages > manyPagesThreshold {
		est.Factors = append(est.Factors, fmt.Sprintf("many estimated pages (~%d)", int64(math.Round(pages))))
		ms *= 1.2
	}

	est.Factors = append(est.Factors, fmt.Sprintf("file size: %s", FormatBytes(size)))
	est.Milliseconds = int64(math.Round(ms))
	est.Human = humanDuration(ms)
	return est
}

func humanDuration(ms float64) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", int64(math.Round(ms)))
	case ms < 60000:
		return fmt.Sprintf("%.1fs", ms/1000)
	default:
		return fmt.Sprintf("%.1fmin", ms/60000)
	}
}

// FormatBytes formats a byte count using binary units.
func FormatBytes(size int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", value, units[i])
}
