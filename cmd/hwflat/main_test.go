package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestFlattenDelayToStdout(t *testing.T) {
	out, _, err := runCLI(t, "flatten", "testdata/delay.yaml")
	require.NoError(t, err)
	for _, want := range []string{
		"#0    listen () -> (v0)",
		"#2    ldreg () -> (v2)",
		"#3    streg (v0) -> next(v2)",
		"#4    comb assign (v2) -> (v1)",
		"in  signal=1 value=v0",
		"out signal=0 value=v1",
	} {
		require.Contains(t, out, want)
	}
	require.NotContains(t, out, "!seq.clock", "clock wires must not be flattened")
}

func TestFlattenMsgpackThenDump(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runCLI(t, "flatten", "--format", "msgpack", "-o", dir, "testdata/counter.yaml")
	require.NoError(t, err)

	stored, _, err := runCLI(t, "dump", filepath.Join(dir, "counter.mp"))
	require.NoError(t, err)
	direct, _, err := runCLI(t, "flatten", "testdata/counter.yaml")
	require.NoError(t, err)
	require.Equal(t, "top: counter\n"+direct, stored)
}

func TestFlattenDumpToDirectory(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runCLI(t, "flatten", "-o", dir, "-j", "2", "testdata/delay.yaml", "testdata/counter.yaml")
	require.NoError(t, err)
	require.Empty(t, out)
	for _, name := range []string{"delay.flat", "counter.flat"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(data), "values:\n"), "%s: %q", name, data)
	}
}

func TestFlattenReportsFailingDesigns(t *testing.T) {
	out, stderr, err := runCLI(t, "flatten", "-j", "2", "testdata/delay.yaml", "testdata/priority.yaml")
	require.EqualError(t, err, "1 of 2 designs failed")
	require.Contains(t, out, "// testdata/delay.yaml (top delay)")
	require.NotContains(t, out, "priority.yaml")
	require.Contains(t, stderr, "testdata/priority.yaml: error: unsupported operation: priority select is not supported")
	require.Contains(t, stderr, "in: %y = cmt.select [%c] [%a]")
}

func TestJSONDiagnostics(t *testing.T) {
	_, stderr, err := runCLI(t, "flatten", "--diag-format", "json", "testdata/priority.yaml")
	require.Error(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stderr)), &rec))
	require.Equal(t, "error", rec["level"])
	require.Equal(t, "testdata/priority.yaml", rec["file"])
}

func TestOrder(t *testing.T) {
	out, _, err := runCLI(t, "order", "testdata/delay.yaml")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	require.Contains(t, lines[0], "listen")
	require.Contains(t, lines[1], "ldreg")
	require.Contains(t, lines[4], "write (v1)")
}

func TestDumpDesign(t *testing.T) {
	out, _, err := runCLI(t, "dump", "testdata/counter.yaml")
	require.NoError(t, err)
	require.Contains(t, out, "hw.module top @counter(%clk: !seq.clock, %en: i1, %clr: i1) -> (count: i8) {")
	require.Contains(t, out, `%inc = hw.instance "adder" @add8(%cur, %one)`)
	require.Contains(t, out, "default {")
}

func TestTopFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "hwflat.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("top = \"add8\"\n"), 0o644))

	_, stderr, err := runCLI(t, "flatten", "--config", cfg, "testdata/counter.yaml")
	require.Error(t, err)
	require.Contains(t, stderr, "module add8 is not marked top")

	_, _, err = runCLI(t, "flatten", "--config", cfg, "--top", "counter", "testdata/counter.yaml")
	require.NoError(t, err)
}

func TestRejectsBadFlags(t *testing.T) {
	_, _, err := runCLI(t, "flatten", "--format", "vcd", "testdata/delay.yaml")
	require.ErrorContains(t, err, "output.format")
	_, _, err = runCLI(t, "flatten")
	require.Error(t, err)
}
