package session

import "sync/atomic"

// Stats exposes the controller counters for diagnostics.
type Stats struct {
	IdentityEvents  uint64 // Identity changes received from the provider
	DuplicateEvents uint64 // Identity changes ignored because nothing changed
	LookupsIssued   uint64
	LookupsApplied  uint64 // Current-generation lookups that resolved a role
	LookupsFailed   uint64 // Current-generation lookups folded into StatusError
	StaleDiscarded  uint64 // Superseded lookups dropped without effect
	Listeners       int
}

type counters struct {
	identityEvents  atomic.Uint64
	duplicateEvents atomic.Uint64
	lookupsIssued   atomic.Uint64
	lookupsApplied  atomic.Uint64
	lookupsFailed   atomic.Uint64
	staleDiscarded  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		IdentityEvents:  c.identityEvents.Load(),
		DuplicateEvents: c.duplicateEvents.Load(),
		LookupsIssued:   c.lookupsIssued.Load(),
		LookupsApplied:  c.lookupsApplied.Load(),
		LookupsFailed:   c.lookupsFailed.Load(),
		StaleDiscarded:  c.staleDiscarded.Load(),
	}
}
