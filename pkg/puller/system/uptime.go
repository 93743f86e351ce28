// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"github.com/shirou/gopsutil/v3/host"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

var hostUptime = host.Uptime

// NewUptimePuller pulls the host uptime.
//
// Record schema: 1=uptime_seconds.
func NewUptimePuller(id measurement.ID, coolDownNs int64) *puller.CachedPuller {
	return puller.NewCachedPuller(id, coolDownNs, func() ([]*measurement.Record, bool) {
		up, err := hostUptime()
		if err != nil {
			log.Errorf("failed to pull host uptime: %v", err) //nolint:errcheck
			return nil, false
		}
		return []*measurement.Record{
			measurement.NewRecord(id, float64(up)),
		}, true
	})
}
