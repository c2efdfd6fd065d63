package cache

import "time"

// Purger is any cache that can drop its expired entries.
type Purger interface {
	PurgeExpired() int
}

// Janitor periodically purges expired entries from registered caches.
type Janitor struct {
	caches []Purger
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewJanitor(caches ...Purger) *Janitor {
	return &Janitor{
		caches: caches,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (j *Janitor) Start(interval time.Duration) {
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range j.caches {
				c.PurgeExpired()
			}
		case <-j.stopCh:
			return
		}
	}
}

func (j *Janitor) Stop() {
	close(j.stopCh)
	<-j.doneCh
}
