// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package system

import (
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

var diskUsage = disk.Usage

// NewDiskUsagePuller pulls usage stats for one mount point.
//
// Record schema: 1=total, 2=free, 3=used, 4=used_percent.
func NewDiskUsagePuller(id measurement.ID, path string, coolDownNs int64) *puller.CachedPuller {
	return puller.NewCachedPuller(id, coolDownNs, func() ([]*measurement.Record, bool) {
		usage, err := diskUsage(path)
		if err != nil {
			log.Errorf("failed to pull disk usage for %s: %v", path, err) //nolint:errcheck
			return nil, false
		}
		return []*measurement.Record{
			measurement.NewRecord(id,
				float64(usage.Total),
				float64(usage.Free),
				float64(usage.Used),
				usage.UsedPercent,
			),
		}, true
	})
}
