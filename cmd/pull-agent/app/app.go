// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package app holds the pull-agent CLI.
package app

import (
	"github.com/spf13/cobra"
)

var (
	// AgentCmd is the root command.
	AgentCmd = &cobra.Command{
		Use:   "pull-agent [command]",
		Short: "Pull-based metrics collection agent",
		Long:  `The pull-agent schedules and dispatches pulls of system and vendor measurements.`,
	}

	confPath string
)

func init() {
	AgentCmd.PersistentFlags().StringVarP(&confPath, "cfgpath", "c", "", "path to the directory containing pull-agent.yaml")
}
