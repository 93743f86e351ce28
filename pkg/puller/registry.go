// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package puller

import (
	"sync"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller/stats"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

// Registry owns the mapping from measurement id to puller and
// metadata. Platform entries are injected at construction and cannot
// be replaced; vendor-range entries are registered and unregistered at
// runtime.
type Registry struct {
	mu      sync.Mutex
	pullers map[measurement.ID]Info
	tracker stats.Tracker
}

// NewRegistry builds a registry seeded with the platform puller table.
// The table is copied; later mutation of builtins has no effect.
func NewRegistry(builtins map[measurement.ID]Info, tracker stats.Tracker) *Registry {
	pullers := make(map[measurement.ID]Info, len(builtins))
	for id, info := range builtins {
		pullers[id] = info
	}
	return &Registry{pullers: pullers, tracker: tracker}
}

// Lookup returns the entry for id, if any.
func (r *Registry) Lookup(id measurement.ID) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.pullers[id]
	return info, ok
}

// Pull retrieves the current records for id. An unknown id yields
// (nil, false) with no side effect: it is unsupported, not a failure
// of a known source. A failed pull of a known source is reported to
// the statistics collaborator.
func (r *Registry) Pull(id measurement.ID) ([]*measurement.Record, bool) {
	r.mu.Lock()
	info, ok := r.pullers[id]
	r.mu.Unlock()

	if !ok {
		log.Debugf("no puller registered for measurement %d", id)
		return nil, false
	}

	log.Tracef("initiating pull of measurement %d", id)
	records, ok := info.Puller.Pull()
	log.Tracef("pulled %d records for measurement %d", len(records), id)
	if !ok {
		r.tracker.NotePullFailed(id)
	}
	return records, ok
}

// PullerExists returns true if id is registered, or provisionally
// valid because it falls in the vendor range: vendor pullers may be
// registered after configs referencing them were parsed.
func (r *Registry) PullerExists(id measurement.ID) bool {
	if id.IsVendor() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pullers[id]
	return ok
}

// RegisterPullerCallback installs a vendor puller backed by cb,
// replacing any previous entry for id. Platform ids cannot be
// overridden; the call is accepted as a no-op to protect built-in
// sources. ownerID identifies the registering caller and is recorded
// for debugging only.
func (r *Registry) RegisterPullerCallback(ownerID int, id measurement.ID, coolDownNs, timeoutNs int64, additiveFields []int32, cb PullFunc) {
	if !id.IsVendor() {
		log.Debugf("measurement %d is not vendor-managed, puller registration from owner %d ignored", id, ownerID)
		return
	}

	r.mu.Lock()
	r.pullers[id] = Info{
		Puller:         NewCallbackPuller(id, coolDownNs, cb),
		AdditiveFields: additiveFields,
		CoolDownNs:     coolDownNs,
		PullTimeoutNs:  timeoutNs,
	}
	r.mu.Unlock()

	log.Debugf("puller for measurement %d registered by owner %d", id, ownerID)
	r.tracker.NoteRegistrationChanged(id, true)
}

// UnregisterPullerCallback removes the vendor entry for id. Platform
// ids and unknown ids are left untouched.
func (r *Registry) UnregisterPullerCallback(ownerID int, id measurement.ID) {
	if !id.IsVendor() {
		return
	}

	r.mu.Lock()
	_, existed := r.pullers[id]
	delete(r.pullers, id)
	r.mu.Unlock()

	if existed {
		log.Debugf("puller for measurement %d unregistered by owner %d", id, ownerID)
		r.tracker.NoteRegistrationChanged(id, false)
	}
}

// ForceClearPullerCache evicts every puller's cache unconditionally
// and returns the total number of evicted entries.
func (r *Registry) ForceClearPullerCache() int {
	total := 0
	for _, info := range r.snapshot() {
		total += info.Puller.ForceClearCache()
	}
	return total
}

// ClearPullerCacheIfNecessary asks every puller to evict entries its
// own cooldown policy considers stale at nowNs, and returns the total.
func (r *Registry) ClearPullerCacheIfNecessary(nowNs int64) int {
	total := 0
	for _, info := range r.snapshot() {
		total += info.Puller.ClearCacheIfStale(nowNs)
	}
	return total
}

func (r *Registry) snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	infos := make([]Info, 0, len(r.pullers))
	for _, info := range r.pullers {
		infos = append(infos, info)
	}
	return infos
}
