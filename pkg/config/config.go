// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package config loads the agent settings (viper) and the pull
// subscription files (yaml).
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	yaml "gopkg.in/yaml.v2"
)

// Datadog is the global settings store for the agent process.
var Datadog = viper.New()

func init() {
	Datadog.SetConfigName("pull-agent")
	Datadog.SetConfigType("yaml")
	Datadog.SetEnvPrefix("PULL")
	Datadog.AutomaticEnv()

	Datadog.SetDefault("log_level", "info")
	Datadog.SetDefault("cache_maintenance_interval_seconds", 300)
	Datadog.SetDefault("subscriptions_file", "subscriptions.yaml")
	Datadog.SetDefault("expvar_port", 5000)
}

// Setup reads the agent configuration file from confPath (and the
// working directory as a fallback). A missing file is not an error,
// the defaults apply.
func Setup(confPath string) error {
	if confPath != "" {
		Datadog.AddConfigPath(confPath)
	}
	Datadog.AddConfigPath(".")

	if err := Datadog.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.Wrap(err, "unable to read agent configuration")
	}
	return nil
}

// Subscription schedules one receiver on one measurement id. Intervals
// are expressed in seconds; the scheduling core rounds them down to
// whole minutes with a one-minute floor.
type Subscription struct {
	MeasurementID         int32 `yaml:"measurement_id"`
	IntervalSeconds       int64 `yaml:"interval_seconds"`
	FirstPullDelaySeconds int64 `yaml:"first_pull_delay_seconds"`
}

// Subscriptions is the content of a subscriptions yaml file.
type Subscriptions struct {
	Subscriptions []Subscription `yaml:"subscriptions"`
}

// LoadSubscriptions parses a subscriptions yaml file.
func LoadSubscriptions(path string) (*Subscriptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read subscriptions file %s", path)
	}

	subs := &Subscriptions{}
	if err := yaml.Unmarshal(raw, subs); err != nil {
		return nil, errors.Wrapf(err, "invalid subscriptions file %s", path)
	}

	for i, s := range subs.Subscriptions {
		if s.MeasurementID <= 0 {
			return nil, errors.Errorf("subscription %d: measurement_id must be positive", i)
		}
		if s.IntervalSeconds <= 0 {
			return nil, errors.Errorf("subscription %d: interval_seconds must be positive", i)
		}
	}
	return subs, nil
}
