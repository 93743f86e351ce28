// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package stats collects health events about the pull pipeline: failed
// pulls, pull latency and puller registration churn. Events are
// fire-and-forget and never influence scheduling decisions.
package stats

import (
	"expvar"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DataDog/pull-scheduler/pkg/measurement"
)

// Tracker is the statistics collaborator consumed by the registry and
// the manager.
type Tracker interface {
	NotePullFailed(id measurement.ID)
	NotePullDelay(id measurement.ID, delayNs int64)
	NoteRegistrationChanged(id measurement.ID, registered bool)
}

var (
	pullerExpvars   *expvar.Map
	pullFailures    *expvar.Map
	registrations   *expvar.Map
	unregistrations *expvar.Map
)

func init() {
	pullerExpvars = expvar.NewMap("puller_stats")
	pullFailures = &expvar.Map{}
	pullFailures.Init()
	registrations = &expvar.Map{}
	registrations.Init()
	unregistrations = &expvar.Map{}
	unregistrations.Init()
	pullerExpvars.Set("PullFailures", pullFailures)
	pullerExpvars.Set("Registrations", registrations)
	pullerExpvars.Set("Unregistrations", unregistrations)
}

// Recorder is the default Tracker. It feeds the process expvar maps
// and a set of prometheus counters.
type Recorder struct {
	failures  *prometheus.CounterVec
	delays    *prometheus.HistogramVec
	regChange *prometheus.CounterVec
}

// NewRecorder returns a Recorder with its collectors registered on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pull_scheduler",
			Name:      "pull_failures_total",
			Help:      "Failed pulls per measurement id.",
		}, []string{"measurement_id"}),
		delays: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pull_scheduler",
			Name:      "pull_delay_seconds",
			Help:      "Delay between the scheduled tick and pull completion.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"measurement_id"}),
		regChange: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pull_scheduler",
			Name:      "puller_registration_changes_total",
			Help:      "Puller registrations and unregistrations per measurement id.",
		}, []string{"measurement_id", "registered"}),
	}
}

// NotePullFailed records a failed pull of a known measurement.
func (r *Recorder) NotePullFailed(id measurement.ID) {
	pullFailures.Add(idLabel(id), 1)
	r.failures.WithLabelValues(idLabel(id)).Inc()
}

// NotePullDelay records how long after its scheduled tick a pull
// completed.
func (r *Recorder) NotePullDelay(id measurement.ID, delayNs int64) {
	r.delays.WithLabelValues(idLabel(id)).Observe(time.Duration(delayNs).Seconds())
}

// NoteRegistrationChanged records a puller (un)registration.
func (r *Recorder) NoteRegistrationChanged(id measurement.ID, registered bool) {
	if registered {
		registrations.Add(idLabel(id), 1)
	} else {
		unregistrations.Add(idLabel(id), 1)
	}
	r.regChange.WithLabelValues(idLabel(id), strconv.FormatBool(registered)).Inc()
}

func idLabel(id measurement.ID) string {
	return strconv.FormatInt(int64(id), 10)
}
