package logging

// ProgressSampler thins per-item progress logs to one line per completion
// bucket. The first and final items always log.
type ProgressSampler struct {
	bucketPercent float64
	lastBucket    int
}

// NewProgressSampler returns a sampler with buckets of bucketPercent
// (10 when non-positive).
func NewProgressSampler(bucketPercent float64) *ProgressSampler {
	if bucketPercent <= 0 {
		bucketPercent = 10
	}
	return &ProgressSampler{bucketPercent: bucketPercent, lastBucket: -1}
}

// ShouldLog reports whether done of total should be logged. A nil sampler
// logs everything.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil || total <= 0 || done >= total {
		return true
	}
	bucket := int(float64(done) * 100 / float64(total) / s.bucketPercent)
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}
