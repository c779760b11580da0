package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how many communication steps a master has completed.
type ProgressBar struct {
	sync.Mutex
	ID        string
	Name      string
	StartTime time.Time
	Total     uint64
	Finished  uint64
	SimTime   float64
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
	SimTime   float64   `json:"sim_time"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.Lock()
	defer b.Unlock()

	return progressRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
		SimTime:   b.SimTime,
	}
}

// Step counts one finished communication step that ended at now.
func (b *ProgressBar) Step(now float64) {
	b.Lock()
	defer b.Unlock()

	b.Finished++
	b.SimTime = now
}
