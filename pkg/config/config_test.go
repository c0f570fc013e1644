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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
	return path
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "board.toml", `
mcu_model = "arm11-sim"
max_threads = 64
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MCUModel != "arm11-sim" {
		t.Fatalf("MCUModel = %q, want arm11-sim", cfg.MCUModel)
	}
	if cfg.MaxThreads != 64 {
		t.Fatalf("MaxThreads = %d, want 64", cfg.MaxThreads)
	}
	want := Default()
	if cfg.SchedHZ != want.SchedHZ || cfg.TimersMax != want.TimersMax {
		t.Fatalf("unspecified fields drifted from Default: got %+v, want sched_hz=%d timers_max=%d", cfg, want.SchedHZ, want.TimersMax)
	}
}

func TestLavgPeriod(t *testing.T) {
	cfg := Config{LavgPeriodSec: 11}
	if got := cfg.LavgPeriod(); got != 11*time.Second {
		t.Fatalf("LavgPeriod() = %v, want 11s", got)
	}
}

func TestLoadWithScenarioAppliesOverride(t *testing.T) {
	dir := t.TempDir()
	board := writeFile(t, dir, "board.toml", `mcu_model = "cortex-m4-sim"`)
	scenario := writeFile(t, dir, "scenario.toml", `
sched_hz = 1000
dev_subsys_enabled = false
`)

	cfg, err := LoadWithScenario(board, scenario)
	if err != nil {
		t.Fatalf("LoadWithScenario: %v", err)
	}
	if cfg.SchedHZ != 1000 {
		t.Fatalf("SchedHZ = %d, want 1000", cfg.SchedHZ)
	}
	if cfg.DevSubsysEnabled {
		t.Fatal("DevSubsysEnabled = true, want false per scenario override")
	}
	if cfg.MCUModel != "cortex-m4-sim" {
		t.Fatalf("MCUModel = %q, want unchanged cortex-m4-sim", cfg.MCUModel)
	}
}

func TestLoadWithScenarioEmptyPathIsNoop(t *testing.T) {
	dir := t.TempDir()
	board := writeFile(t, dir, "board.toml", `max_threads = 16`)

	cfg, err := LoadWithScenario(board, "")
	if err != nil {
		t.Fatalf("LoadWithScenario: %v", err)
	}
	if cfg.MaxThreads != 16 {
		t.Fatalf("MaxThreads = %d, want 16", cfg.MaxThreads)
	}
}

func TestLogDiffNoErrorOnIdenticalConfigs(t *testing.T) {
	cfg := Default()
	if err := LogDiff(cfg, cfg); err != nil {
		t.Fatalf("LogDiff on identical configs: %v", err)
	}
}

func TestLogDiffReportsChangedFields(t *testing.T) {
	before := Default()
	after := before
	after.SchedHZ = 500
	if err := LogDiff(before, after); err != nil {
		t.Fatalf("LogDiff: %v", err)
	}
}
