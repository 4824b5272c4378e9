package logging

import (
	"slices"
	"testing"
)

func TestNewProgressSamplerDefaults(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketPercent != 10 || s.lastBucket != -1 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 10) {
		t.Fatal("nil sampler should always log")
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	cases := []struct {
		bucket float64
		total  int
		want   []int
	}{
		{bucket: 50, total: 7, want: []int{1, 4, 7}},
		{bucket: 25, total: 8, want: []int{1, 2, 4, 6, 8}},
		{bucket: 10, total: 3, want: []int{1, 2, 3}},
		{bucket: 100, total: 1, want: []int{1}},
	}
	for _, tc := range cases {
		s := NewProgressSampler(tc.bucket)
		var logged []int
		for done := 1; done <= tc.total; done++ {
			if s.ShouldLog(done, tc.total) {
				logged = append(logged, done)
			}
		}
		if !slices.Equal(logged, tc.want) {
			t.Fatalf("bucket %v of %d: logged %v, want %v", tc.bucket, tc.total, logged, tc.want)
		}
	}
}
