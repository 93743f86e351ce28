// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

var cpuTimes = cpu.Times

// NewCPUTimesPuller pulls per-CPU cumulative times, one record per
// CPU. The time fields are additive across the sliced records.
//
// Record schema: 1=user, 2=system, 3=idle, 4=iowait.
func NewCPUTimesPuller(id measurement.ID, coolDownNs int64) *puller.CachedPuller {
	return puller.NewCachedPuller(id, coolDownNs, func() ([]*measurement.Record, bool) {
		times, err := cpuTimes(true)
		if err != nil {
			log.Errorf("failed to pull cpu times: %v", err) //nolint:errcheck
			return nil, false
		}
		records := make([]*measurement.Record, 0, len(times))
		for _, t := range times {
			records = append(records, measurement.NewRecord(id, t.User, t.System, t.Idle, t.Iowait))
		}
		return records, true
	})
}
