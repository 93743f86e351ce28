// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package puller

import (
	"sync"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
)

// Receiver consumes the result of a pull. The records passed to
// OnDataPulled are shared between every receiver registered on the
// same measurement id and must be treated as read-only.
type Receiver interface {
	OnDataPulled(records []*measurement.Record, pullSuccess bool, elapsedNs int64)
}

// ReceiverRef is a non-owning, liveness-checked handle to a Receiver.
// The manager never keeps a receiver alive: when Get reports false the
// receiver is gone and delivery is skipped. Registration dedup is by
// handle identity.
type ReceiverRef interface {
	// Get resolves the receiver, or returns false if it is no longer
	// live.
	Get() (Receiver, bool)
}

// ReceiverHandle is the standard ReceiverRef. Invalidate severs the
// relation, after which Get reports the receiver as gone. The matching
// registration entry stays in the manager until explicitly
// unregistered; dispatch simply skips it.
type ReceiverHandle struct {
	mu sync.Mutex
	r  Receiver
}

// NewReceiverHandle wraps a receiver in a liveness-checked handle.
func NewReceiverHandle(r Receiver) *ReceiverHandle {
	return &ReceiverHandle{r: r}
}

// Get returns the receiver and whether it is still live.
func (h *ReceiverHandle) Get() (Receiver, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.r, h.r != nil
}

// Invalidate drops the reference. Safe to call more than once.
func (h *ReceiverHandle) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.r = nil
}
