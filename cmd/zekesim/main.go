// Copyright 2024 The Zeke Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command zekesim is the host-side board simulator: it boots a Kernel
// against simhal and either runs it for a configured duration (boot) or
// prints its device inventory (trace). Structured as a
// github.com/google/subcommands tree the way runsc does, since the
// shape (one binary, several verbs, shared global flags) is identical.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/zeke-os/zeke/pkg/log"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&bootCommand{}, "")
	subcommands.Register(&traceCommand{}, "")

	logLevel := flag.String("log-level", "info", "log level: debug, info, warning, error")
	flag.Parse()

	if err := log.SetLevel(*logLevel); err != nil {
		log.Warningf("zekesim: %v", err)
	}

	os.Exit(int(subcommands.Execute(context.Background())))
}
