package diag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"hwflat/internal/flat"
)

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "text").WithFile("delay.yaml")
	r.Warning("", "module child is never instantiated")
	if r.HasErrors() {
		t.Fatal("warnings are not errors")
	}
	r.Err(fmt.Errorf("elaborate: %w", flat.Violationf(flat.Unsupported, "priority select is not supported").InOp("%y = cmt.select [%c] [%a]")))

	want := "delay.yaml: warning: module child is never instantiated\n" +
		"delay.yaml: error: unsupported operation: priority select is not supported\n" +
		"\tin: %y = cmt.select [%c] [%a]\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
	if errs, warns := r.Count(); errs != 1 || warns != 1 {
		t.Fatalf("Count() = %d, %d", errs, warns)
	}
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "json").WithFile("top.yaml")
	r.Error("hw.input %a", "duplicate input port operation")

	var rec map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, buf.String())
	}
	for key, want := range map[string]string{
		"level": "error",
		"msg":   "duplicate input port operation",
		"file":  "top.yaml",
		"op":    "hw.input %a",
	} {
		if rec[key] != want {
			t.Errorf("%s = %q, want %q", key, rec[key], want)
		}
	}
	if !r.HasErrors() {
		t.Fatal("expected HasErrors after Error")
	}
}

func TestWithFileSharesCounts(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, "text")
	a, b := r.WithFile("a.yaml"), r.WithFile("b.yaml")
	a.Errorf("bad %s", "thing")
	b.Warning("", "odd")
	if !r.HasErrors() {
		t.Fatal("errors reported through a view must be visible on the parent")
	}
	if errs, warns := b.Count(); errs != 1 || warns != 1 {
		t.Fatalf("Count() = %d, %d", errs, warns)
	}
	want := "a.yaml: error: bad thing\nb.yaml: warning: odd\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
