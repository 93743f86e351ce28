// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package puller implements the scheduling and dispatch core of the
// pull pipeline: the registry mapping a measurement id to its puller,
// the per-id receiver lists with their cadences, the single global
// pulling alarm and the alarm-fired dispatch.
package puller

import (
	"github.com/DataDog/pull-scheduler/pkg/measurement"
)

// Puller is the retrieval capability for one class of measurement.
type Puller interface {
	// Pull retrieves the current records. The boolean reports success;
	// on failure records may be empty or partial.
	Pull() ([]*measurement.Record, bool)
	// ForceClearCache unconditionally evicts any cached records and
	// returns how many entries were dropped.
	ForceClearCache() int
	// ClearCacheIfStale evicts cached records older than the puller's
	// own cooldown policy, given the current scheduling-clock time.
	ClearCacheIfStale(nowNs int64) int
}

// Info carries a puller and its metadata. AdditiveFields lists the
// record field positions that are summable when multiple sliced
// records for the same id are aggregated downstream; it is
// informational only. CoolDownNs and PullTimeoutNs are handed to the
// implementation, the core does not enforce them.
type Info struct {
	Puller         Puller
	AdditiveFields []int32
	CoolDownNs     int64
	PullTimeoutNs  int64
}
