// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package puller

import (
	"github.com/DataDog/pull-scheduler/pkg/measurement"
)

// CallbackPuller adapts a vendor-registered callback to the Puller
// contract. Timeouts, if any, are the callback's own responsibility:
// the core hands PullTimeoutNs over as metadata and does not cancel
// an in-flight pull.
type CallbackPuller struct {
	*CachedPuller
}

// NewCallbackPuller returns a cooldown-cached puller backed by cb.
func NewCallbackPuller(id measurement.ID, coolDownNs int64, cb PullFunc) *CallbackPuller {
	return &CallbackPuller{CachedPuller: NewCachedPuller(id, coolDownNs, cb)}
}
