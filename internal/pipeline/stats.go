package pipeline

import "sync/atomic"

// Stats counts what happened to frames since the controller was created.
type Stats struct {
	Submitted              uint64 `json:"submitted"`
	Processed              uint64 `json:"processed"`
	Dropped                uint64 `json:"dropped"`
	Stale                  uint64 `json:"stale"`
	Superseded             uint64 `json:"superseded"`
	Delivered              uint64 `json:"delivered"`
	ReadFailures           uint64 `json:"read_failures"`
	ExtractionFailures     uint64 `json:"extraction_failures"`
	ClassificationFailures uint64 `json:"classification_failures"`
}

type counters struct {
	submitted              atomic.Uint64
	processed              atomic.Uint64
	dropped                atomic.Uint64
	stale                  atomic.Uint64
	delivered              atomic.Uint64
	readFailures           atomic.Uint64
	extractionFailures     atomic.Uint64
	classificationFailures atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Submitted:              c.submitted.Load(),
		Processed:              c.processed.Load(),
		Dropped:                c.dropped.Load(),
		Stale:                  c.stale.Load(),
		Delivered:              c.delivered.Load(),
		ReadFailures:           c.readFailures.Load(),
		ExtractionFailures:     c.extractionFailures.Load(),
		ClassificationFailures: c.classificationFailures.Load(),
	}
}
