package metrics

import (
	"time"
)

// StatsSource is whatever holds the live flow table: the replay CLI's
// in-memory flow registry, or any other embedder that wants periodic
// gauge updates instead of updating ActiveFlows/StoredItems inline on
// every packet.
type StatsSource interface {
	ActiveFlowCount() int
	StoredItemCount() int
}

// Collector periodically polls a StatsSource and updates the
// ActiveFlows/StoredItems gauges.
type Collector struct {
	source StatsSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a fixed interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ActiveFlows.Set(float64(c.source.ActiveFlowCount()))
	StoredItems.Set(float64(c.source.StoredItemCount()))
}
