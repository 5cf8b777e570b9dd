package report

import (
	"sort"
	"sync"
	"time"
)

// Result is the latest scheduled run of one job.
type Result struct {
	Job         string    `json:"job"`
	Country     string    `json:"country"`
	Fingerprint string    `json:"fingerprint"`
	Window      Window    `json:"window"`
	Rows        []Row     `json:"rows"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Archive keeps the most recent Result per job in memory.
type Archive struct {
	mu      sync.RWMutex
	results map[string]Result
}

func NewArchive() *Archive {
	return &Archive{results: make(map[string]Result)}
}

// Put replaces the stored result for r.Job.
func (a *Archive) Put(r Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[r.Job] = r
}

// Get returns the latest result for job.
func (a *Archive) Get(job string) (Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.results[job]
	return r, ok
}

// Jobs returns the names of archived jobs in order.
func (a *Archive) Jobs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.results))
	for name := range a.results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
