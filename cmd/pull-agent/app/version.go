// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AgentVersion is set at build time through ldflags.
var AgentVersion = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version info",
	Long:  ``,
	Run: func(*cobra.Command, []string) {
		fmt.Printf("pull-agent %s\n", AgentVersion)
	},
}

func init() {
	AgentCmd.AddCommand(versionCmd)
}
