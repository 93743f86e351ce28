// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package puller

import (
	"expvar"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller/stats"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

// NoAlarm is the next-pull-time sentinel meaning no receiver is
// scheduled and the alarm must stay disarmed.
const NoAlarm = int64(math.MaxInt64)

// minIntervalNs is the scheduling floor. Intervals are rounded down to
// a whole minute (the alarm collaborator's resolution) and clamped up
// to this value.
const minIntervalNs = int64(time.Minute)

var managerExpvars *expvar.Map

func init() {
	managerExpvars = expvar.NewMap("puller_manager")
}

// monotonicNow is the scheduling clock, swapped in tests.
var monotonicNow = defaultMonotonicNow

// MonotonicNow reads the scheduling clock: monotonic nanoseconds since
// process start. All nextPullNs values are expressed on this clock.
func MonotonicNow() int64 {
	return monotonicNow()
}

// receiverInfo is one registration of a receiver on a measurement id.
type receiverInfo struct {
	receiver   ReceiverRef
	intervalNs int64
	nextPullNs int64
}

// Manager owns the per-id receiver lists and the single global pulling
// alarm, and runs dispatch when the alarm fires. One mutex serializes
// registration, dispatch (pull execution included) and alarm
// reprogramming: callers of the registration APIs block behind any
// in-flight pull, and in exchange a receiver is always either fully
// present or fully absent for a given firing.
type Manager struct {
	mu         sync.Mutex
	registry   *Registry
	tracker    stats.Tracker
	wall       clock.Clock
	receivers  map[measurement.ID][]*receiverInfo
	nextPullNs int64
	alarm      Alarm
}

// NewManager returns a manager dispatching pulls through registry.
// wall is only used to stamp records with a wall-clock time.
func NewManager(registry *Registry, tracker stats.Tracker, wall clock.Clock) *Manager {
	return &Manager{
		registry:   registry,
		tracker:    tracker,
		wall:       wall,
		receivers:  make(map[measurement.ID][]*receiverInfo),
		nextPullNs: NoAlarm,
	}
}

// Registry returns the retrieval registry the manager dispatches
// through.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// AttachAlarm hands the manager its timer collaborator. Attaching
// after receivers were already registered reprograms the alarm from
// the current schedule, so registrations done before the timer service
// came up are not lost.
func (m *Manager) AttachAlarm(a Alarm) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alarm = a
	if a != nil {
		m.updateAlarmLocked()
	}
}

// RegisterReceiver schedules ref to receive id's records every
// intervalNs starting at nextPullNs. Registering the same handle twice
// for one id is a no-op. The interval is rounded down to a whole
// minute and clamped to the one-minute floor; in practice buckets are
// always larger, the clamp only matters for test configurations.
func (m *Manager) RegisterReceiver(id measurement.ID, ref ReceiverRef, nextPullNs, intervalNs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	receivers := m.receivers[id]
	for _, ri := range receivers {
		if ri.receiver == ref {
			log.Debugf("receiver already registered for measurement %d (%d registered)", id, len(receivers))
			return
		}
	}

	rounded := intervalNs / minIntervalNs * minIntervalNs
	if rounded < minIntervalNs {
		rounded = minIntervalNs
	}

	m.receivers[id] = append(receivers, &receiverInfo{
		receiver:   ref,
		intervalNs: rounded,
		nextPullNs: nextPullNs,
	})

	// One alarm serves every scheduled pull, so it tracks the smallest
	// next pull time.
	if nextPullNs < m.nextPullNs {
		log.Debugf("next pull time moving from %d to %d", m.nextPullNs, nextPullNs)
		m.nextPullNs = nextPullNs
		m.updateAlarmLocked()
	}
	log.Debugf("receiver registered for measurement %d (%d registered)", id, len(m.receivers[id]))
}

// UnregisterReceiver removes the registration of ref on id, matched by
// handle identity. Unknown ids or handles are a no-op. The global next
// pull time is not tightened: if the removed registration was holding
// it, the alarm fires once too early and dispatches nothing, which is
// harmless.
func (m *Manager) UnregisterReceiver(id measurement.ID, ref ReceiverRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	receivers, ok := m.receivers[id]
	if !ok {
		log.Debugf("no receivers registered for measurement %d", id)
		return
	}
	for i, ri := range receivers {
		if ri.receiver == ref {
			m.receivers[id] = append(receivers[:i], receivers[i+1:]...)
			log.Debugf("receiver unregistered from measurement %d (%d left)", id, len(m.receivers[id]))
			return
		}
	}
}

// OnAlarmFired is the dispatch transition, invoked once per timer
// firing with the current scheduling-clock time. Every measurement id
// with at least one due registration is pulled exactly once, the
// records are stamped with the tick time, delivered to every due
// receiver that still resolves, and each due registration is advanced
// to its next future-aligned tick.
func (m *Manager) OnAlarmFired(nowNs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	managerExpvars.Add("Dispatches", 1)
	wallNs := m.wall.Now().UnixNano()

	minNextPullNs := NoAlarm

	type pending struct {
		id  measurement.ID
		due []*receiverInfo
	}
	var needToPull []pending
	for id, receivers := range m.receivers {
		var due []*receiverInfo
		for _, ri := range receivers {
			if ri.nextPullNs <= nowNs {
				due = append(due, ri)
			} else if ri.nextPullNs < minNextPullNs {
				minNextPullNs = ri.nextPullNs
			}
		}
		if len(due) > 0 {
			needToPull = append(needToPull, pending{id: id, due: due})
		}
	}

	for _, p := range needToPull {
		records, pullSuccess := m.registry.Pull(p.id)
		if pullSuccess {
			m.tracker.NotePullDelay(p.id, monotonicNow()-nowNs)
		} else {
			log.Debugf("pull of measurement %d failed at %d, will try again at the next tick", p.id, nowNs)
		}

		// Records are stamped with the tick time, not the time the
		// pull completed: attribution must reflect the triggering
		// schedule tick rather than variable pull latency.
		for _, record := range records {
			record.ElapsedNs = nowNs
			record.WallClockNs = wallNs
		}

		for _, ri := range p.due {
			if receiver, alive := ri.receiver.Get(); alive {
				receiver.OnDataPulled(records, pullSuccess, nowNs)
				managerExpvars.Add("Deliveries", 1)
			} else {
				log.Debugf("receiver for measurement %d already gone, skipping delivery", p.id)
				managerExpvars.Add("SkippedReceivers", 1)
			}

			// We may have just come out of a long suspension: jump
			// directly to the next future-aligned bucket instead of
			// replaying every missed tick.
			bucketsAhead := (nowNs - ri.nextPullNs) / ri.intervalNs
			ri.nextPullNs += (bucketsAhead + 1) * ri.intervalNs
			if ri.nextPullNs < minNextPullNs {
				minNextPullNs = ri.nextPullNs
			}
		}
	}

	log.Tracef("next pull time updated from %d to %d", m.nextPullNs, minNextPullNs)
	m.nextPullNs = minNextPullNs
	m.updateAlarmLocked()
}

// NextPullTimeNs returns the current global next pull time, or NoAlarm
// when nothing is scheduled.
func (m *Manager) NextPullTimeNs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextPullNs
}

func (m *Manager) updateAlarmLocked() {
	if m.alarm == nil {
		log.Debug("no alarm service attached, pulling alarm not programmed")
		return
	}
	if m.nextPullNs == NoAlarm {
		m.alarm.Disarm()
		return
	}
	m.alarm.Arm(m.nextPullNs)
}
