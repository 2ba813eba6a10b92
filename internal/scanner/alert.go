package scanner

import (
	"fmt"
	"time"

	"github.com/yairfalse/memwatch/internal/config"
)

// TimestampLayout renders as YYYY-MM-DD HH:MM:SS
const TimestampLayout = "2006-01-02 15:04:05"

// Alert is emitted for each process above the threshold
type Alert struct {
	Timestamp time.Time
	Sample    ProcessSample
}

// ResidentGB converts resident bytes to GiB
func ResidentGB(bytes uint64) float64 {
	return float64(bytes) / config.BytesPerGB
}

// FormatGB renders gigabytes with two fractional digits.
// %.2f rounds the exact binary value, so exact decimal ties go to even.
func FormatGB(gb float64) string {
	return fmt.Sprintf("%.2f", gb)
}

func (a Alert) String() string {
	return fmt.Sprintf("%s - ALERT: High memory usage detected! PID: %d, Name: %s, Memory Used: %s GB",
		a.Timestamp.Format(TimestampLayout),
		a.Sample.PID,
		a.Sample.DisplayName(),
		FormatGB(ResidentGB(a.Sample.ResidentBytes)),
	)
}
