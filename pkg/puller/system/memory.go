// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package system provides the built-in platform pullers, backed by
// gopsutil. Each puller reports its records as positional field
// values; the schemas are fixed per measurement id.
package system

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

var virtualMemory = mem.VirtualMemory

// NewMemoryPuller pulls virtual memory stats.
//
// Record schema: 1=total, 2=available, 3=used, 4=used_percent.
func NewMemoryPuller(id measurement.ID, coolDownNs int64) *puller.CachedPuller {
	return puller.NewCachedPuller(id, coolDownNs, func() ([]*measurement.Record, bool) {
		v, err := virtualMemory()
		if err != nil {
			log.Errorf("failed to pull virtual memory stats: %v", err) //nolint:errcheck
			return nil, false
		}
		return []*measurement.Record{
			measurement.NewRecord(id,
				float64(v.Total),
				float64(v.Available),
				float64(v.Used),
				v.UsedPercent,
			),
		}, true
	})
}
