package scraper

import (
	"sync"
	"time"
)

// ProgressTracker tracks batch pricing progress
type ProgressTracker struct {
	mu sync.RWMutex

	StartedAt      time.Time
	TotalListings  int
	Processed      int
	Priced         int
	Failed         int
	Skipped        int
	NotFound       int
	CurrentListing string
	LastError      string

	// Confidence of priced listings
	ConfidenceHigh   int
	ConfidenceMedium int
	ConfidenceLow    int

	// Performance
	TotalRequests int
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(totalListings int) *ProgressTracker {
	return &ProgressTracker{
		StartedAt:     time.Now(),
		TotalListings: totalListings,
	}
}

// IncrementProcessed increments processed counter
func (p *ProgressTracker) IncrementProcessed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Processed++
}

// IncrementPriced increments the priced counter and the bucket for the
// given confidence level.
func (p *ProgressTracker) IncrementPriced(confidence string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Priced++
	switch confidence {
	case "high":
		p.ConfidenceHigh++
	case "medium":
		p.ConfidenceMedium++
	default:
		p.ConfidenceLow++
	}
}

// IncrementFailed increments failed counter and sets error
func (p *ProgressTracker) IncrementFailed(err string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Failed++
	p.LastError = err
}

// IncrementSkipped increments skipped counter
func (p *ProgressTracker) IncrementSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Skipped++
}

// IncrementNotFound increments the catalog-miss counter
func (p *ProgressTracker) IncrementNotFound() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NotFound++
}

// SetCurrentListing sets the listing currently being processed
func (p *ProgressTracker) SetCurrentListing(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentListing = title
}

// IncrementRequests increments total requests counter
func (p *ProgressTracker) IncrementRequests() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TotalRequests++
}

// GetSnapshot returns a snapshot of current progress
func (p *ProgressTracker) GetSnapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.StartedAt)
	percentage := 0.0
	if p.TotalListings > 0 {
		percentage = (float64(p.Processed) / float64(p.TotalListings)) * 100
	}

	// Calculate ETA
	var eta time.Time
	var remaining time.Duration
	if p.Processed > 0 {
		avgTimePerListing := elapsed / time.Duration(p.Processed)
		remainingListings := p.TotalListings - p.Processed
		remaining = avgTimePerListing * time.Duration(remainingListings)
		eta = time.Now().Add(remaining)
	}

	reqPerSecond := 0.0
	if elapsed.Seconds() > 0 {
		reqPerSecond = float64(p.TotalRequests) / elapsed.Seconds()
	}

	avgTimePerListing := 0.0
	if p.Processed > 0 {
		avgTimePerListing = elapsed.Seconds() / float64(p.Processed)
	}

	return ProgressSnapshot{
		Status:            "running",
		StartedAt:         p.StartedAt,
		Elapsed:           elapsed,
		TotalListings:     p.TotalListings,
		Processed:         p.Processed,
		Priced:            p.Priced,
		Failed:            p.Failed,
		Skipped:           p.Skipped,
		NotFound:          p.NotFound,
		Percentage:        percentage,
		CurrentListing:    p.CurrentListing,
		LastError:         p.LastError,
		ConfidenceHigh:    p.ConfidenceHigh,
		ConfidenceMedium:  p.ConfidenceMedium,
		ConfidenceLow:     p.ConfidenceLow,
		TotalRequests:     p.TotalRequests,
		RequestsPerSec:    reqPerSecond,
		AvgTimePerListing: avgTimePerListing,
		ETA:               eta,
		Remaining:         remaining,
	}
}

// ProgressSnapshot is a point-in-time snapshot of progress
type ProgressSnapshot struct {
	Status            string
	StartedAt         time.Time
	Elapsed           time.Duration
	TotalListings     int
	Processed         int
	Priced            int
	Failed            int
	Skipped           int
	NotFound          int
	Percentage        float64
	CurrentListing    string
	LastError         string
	ConfidenceHigh    int
	ConfidenceMedium  int
	ConfidenceLow     int
	TotalRequests     int
	RequestsPerSec    float64
	AvgTimePerListing float64
	ETA               time.Time
	Remaining         time.Duration
}
