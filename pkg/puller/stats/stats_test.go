// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
)

func TestNotePullFailed(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.NotePullFailed(measurement.ID(42))
	r.NotePullFailed(measurement.ID(42))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.failures.WithLabelValues("42")))
}

func TestNotePullDelay(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.NotePullDelay(measurement.ID(42), 5e9)

	assert.Equal(t, 1, testutil.CollectAndCount(r.delays))
}

func TestNoteRegistrationChanged(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.NoteRegistrationChanged(measurement.ID(150007), true)
	r.NoteRegistrationChanged(measurement.ID(150007), false)
	r.NoteRegistrationChanged(measurement.ID(150007), false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.regChange.WithLabelValues("150007", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.regChange.WithLabelValues("150007", "false")))
}
