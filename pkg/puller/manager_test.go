// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package puller

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
)

const testID = measurement.ID(42)

func secs(n int64) int64 {
	return n * int64(time.Second)
}

type fakeTracker struct {
	failures   []measurement.ID
	delays     map[measurement.ID][]int64
	regChanges map[measurement.ID][]bool
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		delays:     make(map[measurement.ID][]int64),
		regChanges: make(map[measurement.ID][]bool),
	}
}

func (t *fakeTracker) NotePullFailed(id measurement.ID) {
	t.failures = append(t.failures, id)
}

func (t *fakeTracker) NotePullDelay(id measurement.ID, delayNs int64) {
	t.delays[id] = append(t.delays[id], delayNs)
}

func (t *fakeTracker) NoteRegistrationChanged(id measurement.ID, registered bool) {
	t.regChanges[id] = append(t.regChanges[id], registered)
}

type fakeAlarm struct {
	armed    []int64
	disarmed int
}

func (a *fakeAlarm) Arm(targetNs int64) { a.armed = append(a.armed, targetNs) }
func (a *fakeAlarm) Disarm() { a.disarmed++ }

func (a *fakeAlarm) lastArmed() int64 {
	if len(a.armed) == 0 {
		return 0
	}
	return a.armed[len(a.armed)-1]
}

type fakePuller struct {
	pulls   int
	records []*measurement.Record
	ok      bool
}

func (p *fakePuller) Pull() ([]*measurement.Record, bool) {
	p.pulls++
	return p.records, p.ok
}

func (p *fakePuller) ForceClearCache() int { return 0 }
func (p *fakePuller) ClearCacheIfStale(_ int64) int { return 0 }

type delivery struct {
	records   []*measurement.Record
	success   bool
	elapsedNs int64
}

type fakeReceiver struct {
	deliveries []delivery
}

func (r *fakeReceiver) OnDataPulled(records []*measurement.Record, pullSuccess bool, elapsedNs int64) {
	r.deliveries = append(r.deliveries, delivery{records: records, success: pullSuccess, elapsedNs: elapsedNs})
}

func newTestManager(t *testing.T, builtins map[measurement.ID]Info) (*Manager, *fakeTracker, *fakeAlarm) {
	t.Helper()
	tracker := newFakeTracker()
	alarm := &fakeAlarm{}
	m := NewManager(NewRegistry(builtins, tracker), tracker, clock.NewMock())
	m.AttachAlarm(alarm)
	return m, tracker, alarm
}

func TestRegisterReceiverNormalizesInterval(t *testing.T) {
	for _, tc := range []struct {
		requested int64
		expected  int64
	}{
		{requested: secs(90), expected: secs(60)},
		{requested: secs(45), expected: secs(60)},
		{requested: secs(125), expected: secs(120)},
		{requested: secs(180), expected: secs(180)},
	} {
		m, _, _ := newTestManager(t, nil)
		m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(1000), tc.requested)

		require.Len(t, m.receivers[testID], 1)
		assert.Equal(t, tc.expected, m.receivers[testID][0].intervalNs,
			"requested interval %d", tc.requested)
	}
}

func TestRegisterReceiverDedupsByHandle(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	handle := NewReceiverHandle(&fakeReceiver{})

	m.RegisterReceiver(testID, handle, secs(1000), secs(60))
	m.RegisterReceiver(testID, handle, secs(2000), secs(120))

	assert.Len(t, m.receivers[testID], 1)
	assert.Equal(t, secs(1000), m.receivers[testID][0].nextPullNs)
}

func TestRegisterReceiverProgramsEarliestAlarm(t *testing.T) {
	m, _, alarm := newTestManager(t, nil)

	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(120), secs(60))
	assert.Equal(t, secs(120), alarm.lastArmed())

	// an earlier registration moves the alarm up
	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(60), secs(60))
	assert.Equal(t, secs(60), alarm.lastArmed())

	// a later one does not
	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(600), secs(60))
	assert.Equal(t, secs(60), alarm.lastArmed())
}

func TestUnregisterReceiverKeepsStaleMinimum(t *testing.T) {
	m, _, alarm := newTestManager(t, nil)
	early := NewReceiverHandle(&fakeReceiver{})

	m.RegisterReceiver(testID, early, secs(60), secs(60))
	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(300), secs(60))
	require.Equal(t, secs(60), alarm.lastArmed())

	// removing the minimum holder leaves the alarm early, never late
	m.UnregisterReceiver(testID, early)
	assert.Equal(t, secs(60), alarm.lastArmed())
	assert.Len(t, m.receivers[testID], 1)

	// the early firing is an empty wake that resets the schedule
	m.OnAlarmFired(secs(60))
	assert.Equal(t, secs(300), alarm.lastArmed())
}

func TestUnregisterReceiverUnknown(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	handle := NewReceiverHandle(&fakeReceiver{})

	m.UnregisterReceiver(testID, handle)

	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(60), secs(60))
	m.UnregisterReceiver(testID, handle)
	assert.Len(t, m.receivers[testID], 1)
}

func TestOnAlarmFiredEndToEnd(t *testing.T) {
	p := &fakePuller{records: []*measurement.Record{measurement.NewRecord(testID, 7)}, ok: true}
	m, _, alarm := newTestManager(t, map[measurement.ID]Info{testID: {Puller: p}})

	receiver := &fakeReceiver{}
	m.RegisterReceiver(testID, NewReceiverHandle(receiver), secs(1000), secs(60))

	m.OnAlarmFired(secs(1000))

	assert.Equal(t, 1, p.pulls)
	require.Len(t, receiver.deliveries, 1)
	d := receiver.deliveries[0]
	assert.True(t, d.success)
	assert.Equal(t, secs(1000), d.elapsedNs)
	require.Len(t, d.records, 1)
	assert.Equal(t, secs(1000), d.records[0].ElapsedNs)

	assert.Equal(t, secs(1060), m.receivers[testID][0].nextPullNs)
	assert.Equal(t, secs(1060), m.NextPullTimeNs())
	assert.Equal(t, secs(1060), alarm.lastArmed())
}

func TestOnAlarmFiredPullsOncePerMeasurement(t *testing.T) {
	p := &fakePuller{records: []*measurement.Record{measurement.NewRecord(testID, 1)}, ok: true}
	m, _, _ := newTestManager(t, map[measurement.ID]Info{testID: {Puller: p}})

	first := &fakeReceiver{}
	second := &fakeReceiver{}
	m.RegisterReceiver(testID, NewReceiverHandle(first), secs(60), secs(60))
	m.RegisterReceiver(testID, NewReceiverHandle(second), secs(60), secs(120))

	m.OnAlarmFired(secs(60))

	assert.Equal(t, 1, p.pulls, "one physical pull serves every due receiver")
	require.Len(t, first.deliveries, 1)
	require.Len(t, second.deliveries, 1)
	require.Len(t, first.deliveries[0].records, 1)
	assert.Same(t, first.deliveries[0].records[0], second.deliveries[0].records[0],
		"both receivers see the identical record set")
}

func TestOnAlarmFiredCatchUp(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(100), secs(60))

	// two whole buckets elapsed: jump to the next future-aligned tick
	m.OnAlarmFired(secs(250))

	assert.Equal(t, secs(280), m.receivers[testID][0].nextPullNs)
	assert.Equal(t, secs(280), m.NextPullTimeNs())
}

func TestOnAlarmFiredSkipsNotDue(t *testing.T) {
	p := &fakePuller{ok: true}
	m, _, alarm := newTestManager(t, map[measurement.ID]Info{testID: {Puller: p}})

	due := &fakeReceiver{}
	notDue := &fakeReceiver{}
	m.RegisterReceiver(testID, NewReceiverHandle(due), secs(60), secs(60))
	m.RegisterReceiver(testID, NewReceiverHandle(notDue), secs(600), secs(60))

	m.OnAlarmFired(secs(60))

	assert.Len(t, due.deliveries, 1)
	assert.Empty(t, notDue.deliveries)
	// not-due registrations still drive the minimum: 120 < 600
	assert.Equal(t, secs(120), alarm.lastArmed())
}

func TestOnAlarmFiredPullFailureStillDeliversAndAdvances(t *testing.T) {
	p := &fakePuller{ok: false}
	m, tracker, alarm := newTestManager(t, map[measurement.ID]Info{testID: {Puller: p}})

	receiver := &fakeReceiver{}
	m.RegisterReceiver(testID, NewReceiverHandle(receiver), secs(60), secs(60))

	m.OnAlarmFired(secs(60))

	require.Len(t, receiver.deliveries, 1)
	assert.False(t, receiver.deliveries[0].success)
	assert.Empty(t, receiver.deliveries[0].records)
	// schedule advances: the next attempt is the next tick, not a retry
	assert.Equal(t, secs(120), m.receivers[testID][0].nextPullNs)
	assert.Equal(t, secs(120), alarm.lastArmed())
	assert.Equal(t, []measurement.ID{testID}, tracker.failures)
	assert.Empty(t, tracker.delays[testID])
}

func TestOnAlarmFiredReportsPullDelay(t *testing.T) {
	prev := monotonicNow
	monotonicNow = func() int64 { return secs(65) }
	defer func() { monotonicNow = prev }()

	p := &fakePuller{ok: true}
	m, tracker, _ := newTestManager(t, map[measurement.ID]Info{testID: {Puller: p}})
	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(60), secs(60))

	m.OnAlarmFired(secs(60))

	require.Len(t, tracker.delays[testID], 1)
	assert.Equal(t, secs(5), tracker.delays[testID][0])
}

func TestOnAlarmFiredSkipsGoneReceiver(t *testing.T) {
	p := &fakePuller{ok: true}
	m, _, alarm := newTestManager(t, map[measurement.ID]Info{testID: {Puller: p}})

	receiver := &fakeReceiver{}
	handle := NewReceiverHandle(receiver)
	m.RegisterReceiver(testID, handle, secs(60), secs(60))
	handle.Invalidate()

	m.OnAlarmFired(secs(60))

	assert.Empty(t, receiver.deliveries)
	// the registration entry stays, its schedule keeps advancing
	require.Len(t, m.receivers[testID], 1)
	assert.Equal(t, secs(120), m.receivers[testID][0].nextPullNs)
	assert.Equal(t, secs(120), alarm.lastArmed())
}

func TestOnAlarmFiredNoReceiversDisarms(t *testing.T) {
	m, _, alarm := newTestManager(t, nil)

	m.OnAlarmFired(secs(60))

	assert.Equal(t, NoAlarm, m.NextPullTimeNs())
	assert.NotZero(t, alarm.disarmed)
}

func TestAttachAlarmReprogramsFromCurrentSchedule(t *testing.T) {
	tracker := newFakeTracker()
	m := NewManager(NewRegistry(nil, tracker), tracker, clock.NewMock())

	// registration before any timer service is available
	m.RegisterReceiver(testID, NewReceiverHandle(&fakeReceiver{}), secs(60), secs(60))

	alarm := &fakeAlarm{}
	m.AttachAlarm(alarm)
	assert.Equal(t, secs(60), alarm.lastArmed())
}
