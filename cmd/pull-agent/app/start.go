// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cihub/seelog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/DataDog/pull-scheduler/pkg/config"
	"github.com/DataDog/pull-scheduler/pkg/measurement"
	"github.com/DataDog/pull-scheduler/pkg/puller"
	"github.com/DataDog/pull-scheduler/pkg/puller/catalog"
	"github.com/DataDog/pull-scheduler/pkg/puller/stats"
	"github.com/DataDog/pull-scheduler/pkg/util/log"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the pull agent",
	Long:  ``,
	RunE:  start,
}

func init() {
	AgentCmd.AddCommand(startCmd)
}

const loggerConfigTemplate = `
<seelog minlevel="%s">
	<outputs formatid="common">
		<console/>
	</outputs>
	<formats>
		<format id="common" format="%%Date %%Time %%LEVEL (%%File:%%Line) %%Msg%%n"/>
	</formats>
</seelog>`

func setupLogger() error {
	lvl := config.Datadog.GetString("log_level")
	logger, err := seelog.LoggerFromConfigAsString(fmt.Sprintf(loggerConfigTemplate, lvl))
	if err != nil {
		return err
	}
	log.SetupLogger(logger, lvl)
	return nil
}

// logReceiver is the default delivery sink: it logs what was pulled.
// Real deployments plug their own Receiver through the library API.
type logReceiver struct {
	id measurement.ID
}

func (r *logReceiver) OnDataPulled(records []*measurement.Record, pullSuccess bool, elapsedNs int64) {
	if !pullSuccess {
		log.Warnf("pull of measurement %d failed at %d", r.id, elapsedNs) //nolint:errcheck
		return
	}
	log.Infof("measurement %d: %d records at %d", r.id, len(records), elapsedNs)
}

func start(*cobra.Command, []string) error {
	if err := config.Setup(confPath); err != nil {
		return err
	}
	if err := setupLogger(); err != nil {
		return err
	}
	defer log.Flush()

	clk := clock.New()
	recorder := stats.NewRecorder(prometheus.DefaultRegisterer)
	registry := puller.NewRegistry(catalog.Default(), recorder)
	manager := puller.NewManager(registry, recorder, clk)

	alarm := puller.NewClockAlarm(clk, puller.MonotonicNow, manager.OnAlarmFired)
	manager.AttachAlarm(alarm)

	subs, err := config.LoadSubscriptions(config.Datadog.GetString("subscriptions_file"))
	if err != nil {
		return err
	}
	for _, s := range subs.Subscriptions {
		id := measurement.ID(s.MeasurementID)
		if !registry.PullerExists(id) {
			log.Warnf("measurement %d has no puller, subscription skipped", id) //nolint:errcheck
			continue
		}
		firstPullNs := puller.MonotonicNow() + s.FirstPullDelaySeconds*int64(time.Second)
		handle := puller.NewReceiverHandle(&logReceiver{id: id})
		manager.RegisterReceiver(id, handle, firstPullNs, s.IntervalSeconds*int64(time.Second))
	}
	log.Infof("pull-agent started with %d subscriptions, next pull at %d",
		len(subs.Subscriptions), manager.NextPullTimeNs())

	// stale cache maintenance
	maintenance := clk.Ticker(time.Duration(config.Datadog.GetInt64("cache_maintenance_interval_seconds")) * time.Second)
	defer maintenance.Stop()
	go func() {
		for range maintenance.C {
			cleared := registry.ClearPullerCacheIfNecessary(puller.MonotonicNow())
			if cleared > 0 {
				log.Debugf("cleared %d stale puller cache entries", cleared)
			}
		}
	}()

	// expvar + prometheus exposition
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		port := config.Datadog.GetInt("expvar_port")
		if err := http.ListenAndServe(fmt.Sprintf("127.0.0.1:%d", port), nil); err != nil {
			log.Errorf("telemetry server exited: %v", err) //nolint:errcheck
		}
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	sig := <-signalCh
	log.Infof("received signal %s, stopping the pull-agent", sig)
	alarm.Disarm()
	return nil
}
