package logging

import "strings"

// ProgressSampler suppresses repetitive scan progress logs while preserving
// signal when the phase ("scan", "resume") or percentage bucket changes. It
// also counts OCR samples for sources whose length is unknown.
type ProgressSampler struct {
	bucketSize float64
	lastPhase  string
	lastBucket int
	samples    int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 5%) or when the phase changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. Percent can be
// negative to indicate "unknown", which is the case for live sources.
func (s *ProgressSampler) ShouldLog(percent float64, phase string) bool {
	if s == nil {
		return true
	}
	phase = strings.TrimSpace(phase)
	emit := false
	if phase != "" && phase != s.lastPhase {
		s.lastPhase = phase
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		bucket := int(percent / s.bucketSize)
		if percent >= 100 {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Sampled counts one OCR sample and reports whether it is the every-th since
// the last reset. every <= 0 disables sample-count logging.
func (s *ProgressSampler) Sampled(every int) bool {
	if s == nil || every <= 0 {
		return false
	}
	s.samples++
	return s.samples%every == 0
}

// Reset clears the sampler state (e.g. when a scan resumes).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastPhase = ""
	s.lastBucket = -1
	s.samples = 0
}
