// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics
//
// Spiderlink - Tetrabot cross-core motion link
//
// Single binary carrying both daemons (muscled, braind) and the operator
// tools that talk to them.

package main

import (
	"os"

	"github.com/tetrabot/spiderlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
