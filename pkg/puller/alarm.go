// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package puller

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

// Alarm is the external timer collaborator. The manager is the only
// component that arms or disarms it. Targets are absolute
// scheduling-clock times; the collaborator's native resolution is one
// minute and it gives no exactness guarantee: firings may be delayed
// or coalesced.
type Alarm interface {
	Arm(targetNs int64)
	Disarm()
}

// ClockAlarm backs Alarm with a clock timer. In production the clock
// is the real one; tests drive it with clock.Mock. When the timer
// fires, the fire callback receives the current scheduling-clock time.
type ClockAlarm struct {
	clk   clock.Clock
	nowNs func() int64
	fire  func(nowNs int64)

	mu      sync.Mutex
	timer   *clock.Timer
	armedNs int64
}

// NewClockAlarm returns an alarm ticking on clk. nowNs is the
// scheduling clock; fire is invoked on the timer goroutine.
func NewClockAlarm(clk clock.Clock, nowNs func() int64, fire func(nowNs int64)) *ClockAlarm {
	return &ClockAlarm{clk: clk, nowNs: nowNs, fire: fire}
}

// Arm programs the timer for targetNs, rounded up to minute
// granularity. Firing late is tolerated; firing before the target
// would wake the dispatcher with nothing due and it would immediately
// re-arm for the same past-aligned minute, spinning until wall time
// catches up. Re-arming with the same target is a no-op.
func (a *ClockAlarm) Arm(targetNs int64) {
	target := targetNs
	if rem := target % int64(time.Minute); rem != 0 {
		target += int64(time.Minute) - rem
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil && a.armedNs == target {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}

	delay := time.Duration(target - a.nowNs())
	if delay < 0 {
		delay = 0
	}
	a.armedNs = target
	a.timer = a.clk.AfterFunc(delay, a.onFired)
	log.Tracef("pulling alarm armed for %d (in %s)", target, delay)
}

// Disarm cancels any pending firing. Safe to call when not armed.
func (a *ClockAlarm) Disarm() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
		a.armedNs = 0
		log.Trace("pulling alarm disarmed")
	}
}

// ArmedFor returns the currently armed target, or 0 when disarmed.
func (a *ClockAlarm) ArmedFor() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == nil {
		return 0
	}
	return a.armedNs
}

func (a *ClockAlarm) onFired() {
	a.mu.Lock()
	a.timer = nil
	a.armedNs = 0
	a.mu.Unlock()

	a.fire(a.nowNs())
}
