// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"github.com/shirou/gopsutil/v3/load"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

var loadAvg = load.Avg

// NewLoadPuller pulls the load averages.
//
// Record schema: 1=load1, 2=load5, 3=load15.
func NewLoadPuller(id measurement.ID, coolDownNs int64) *puller.CachedPuller {
	return puller.NewCachedPuller(id, coolDownNs, func() ([]*measurement.Record, bool) {
		avg, err := loadAvg()
		if err != nil {
			log.Errorf("failed to pull load averages: %v", err) //nolint:errcheck
			return nil, false
		}
		return []*measurement.Record{
			measurement.NewRecord(id, avg.Load1, avg.Load5, avg.Load15),
		}, true
	})
}
