package filter

import (
	"math"
	"strings"
)

// Bucket is a named estimated-effort range. Ranges are open on the low side
// and inclusive on the high side.
type Bucket int

const (
	BucketUnderHour Bucket = iota + 1 // m <= 60
	BucketOneToThree                  // 60 < m <= 180
	BucketThreeToEight                // 180 < m <= 480
	BucketOverEight                   // m > 480
)

// Buckets lists every bucket in ascending order
var Buckets = []Bucket{BucketUnderHour, BucketOneToThree, BucketThreeToEight, BucketOverEight}

// bucketBounds holds (low, high] in minutes for each bucket
var bucketBounds = map[Bucket][2]float64{
	BucketUnderHour:    {math.Inf(-1), 60},
	BucketOneToThree:   {60, 180},
	BucketThreeToEight: {180, 480},
	BucketOverEight:    {480, math.Inf(1)},
}

// Contains reports whether an effort in minutes falls into the bucket
func (b Bucket) Contains(minutes float64) bool {
	bounds, ok := bucketBounds[b]
	if !ok {
		return false
	}
	return minutes > bounds[0] && minutes <= bounds[1]
}

// UpperMinutes returns the inclusive upper bound, or false when unbounded
func (b Bucket) UpperMinutes() (float64, bool) {
	bounds, ok := bucketBounds[b]
	if !ok || math.IsInf(bounds[1], 1) {
		return 0, false
	}
	return bounds[1], true
}

// String returns the bucket id used on the command line
func (b Bucket) String() string {
	switch b {
	case BucketUnderHour:
		return "0-1"
	case BucketOneToThree:
		return "1-3"
	case BucketThreeToEight:
		return "3-8"
	case BucketOverEight:
		return "8+"
	}
	return "unknown"
}

// Label returns a human readable description
func (b Bucket) Label() string {
	switch b {
	case BucketUnderHour:
		return "1 hour or less"
	case BucketOneToThree:
		return "1-3 hours"
	case BucketThreeToEight:
		return "3-8 hours"
	case BucketOverEight:
		return "more than 8 hours"
	}
	return "unknown"
}

// ParseBucket accepts bucket ids ("0-1", "1-3", "3-8", "8+") and the minute
// bounds the paginated feed uses (60, 180, 480).
func ParseBucket(s string) (Bucket, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0-1", "1h", "60":
		return BucketUnderHour, true
	case "1-3", "3h", "180":
		return BucketOneToThree, true
	case "3-8", "8h", "480":
		return BucketThreeToEight, true
	case "8+", "8h+", "over8":
		return BucketOverEight, true
	}
	return 0, false
}
