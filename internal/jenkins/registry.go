package jenkins

import (
	"sync"
	"time"
)

// Snapshot represents the registry contents at a point in time.
type Snapshot struct {
	Jobs        []Info
	LastUpdated time.Time
}

// Registry holds the most recent Info per (server, job) pair, bounded at
// MaxChannels entries. The zero value is ready to use.
type Registry struct {
	mu   sync.RWMutex
	jobs []Info
	upd  time.Time
}

// AddInfo upserts a record, matching existing entries by (server, job).
// String fields are truncated to their wire limits before storing. It
// returns false when the registry is full and the record is new.
func (r *Registry) AddInfo(info Info) bool {
	info.Job = truncate(info.Job, MaxJobNameLen)
	info.Server = truncate(info.Server, MaxServerLen)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.jobs {
		if r.jobs[i].Server == info.Server && r.jobs[i].Job == info.Job {
			r.jobs[i] = info
			r.upd = time.Now()
			return true
		}
	}
	if len(r.jobs) >= MaxChannels {
		return false
	}
	r.jobs = append(r.jobs, info)
	r.upd = time.Now()
	return true
}

// Clear removes all records.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = nil
	r.upd = time.Now()
}

// Len reports the number of stored records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Snapshot returns a copy of the current registry contents. The returned
// slice is independent of the stored one.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{
		Jobs:        cloneInfos(r.jobs),
		LastUpdated: r.upd,
	}
}

func cloneInfos(infos []Info) []Info {
	if len(infos) == 0 {
		return nil
	}
	dup := make([]Info, len(infos))
	copy(dup, infos)
	return dup
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
