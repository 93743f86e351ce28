// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package catalog builds the platform puller table. The table is
// constructed explicitly at startup and handed to the registry, so
// there is no package-initialization ordering to get wrong.
package catalog

import (
	"time"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller"
	"github.com/DataDog/pull-scheduler/pkg/puller/system"
)

// Platform measurement ids. These live below the vendor range and
// cannot be overridden at runtime.
const (
	SystemUptime   measurement.ID = 10001
	SystemMemory   measurement.ID = 10002
	SystemCPUTimes measurement.ID = 10003
	SystemLoad     measurement.ID = 10004
	SystemDisk     measurement.ID = 10005
)

const (
	defaultCoolDownNs    = int64(time.Minute)
	defaultPullTimeoutNs = int64(10 * time.Second)
)

// Default returns the platform id to puller table.
func Default() map[measurement.ID]puller.Info {
	return map[measurement.ID]puller.Info{
		SystemUptime: {
			Puller:        system.NewUptimePuller(SystemUptime, defaultCoolDownNs),
			CoolDownNs:    defaultCoolDownNs,
			PullTimeoutNs: defaultPullTimeoutNs,
		},
		SystemMemory: {
			Puller:        system.NewMemoryPuller(SystemMemory, defaultCoolDownNs),
			CoolDownNs:    defaultCoolDownNs,
			PullTimeoutNs: defaultPullTimeoutNs,
		},
		SystemCPUTimes: {
			// One record per CPU: the time fields sum across slices.
			Puller:         system.NewCPUTimesPuller(SystemCPUTimes, defaultCoolDownNs),
			AdditiveFields: []int32{1, 2, 3, 4},
			CoolDownNs:     defaultCoolDownNs,
			PullTimeoutNs:  defaultPullTimeoutNs,
		},
		SystemLoad: {
			Puller:        system.NewLoadPuller(SystemLoad, defaultCoolDownNs),
			CoolDownNs:    defaultCoolDownNs,
			PullTimeoutNs: defaultPullTimeoutNs,
		},
		SystemDisk: {
			Puller:        system.NewDiskUsagePuller(SystemDisk, "/", defaultCoolDownNs),
			CoolDownNs:    defaultCoolDownNs,
			PullTimeoutNs: defaultPullTimeoutNs,
		},
	}
}
