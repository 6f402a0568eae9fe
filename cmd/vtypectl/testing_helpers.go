package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/joshuapare/vtypekit/internal/testutil"
)

// resetFlags restores global flag state and points the table search at the
// sample tables.
func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut, noColor = false, false, false, true
	tableDirs = []string{testutil.SampleTablesPath(t)}
	tableName = testutil.SampleTable
	bits = 32
	baseAddr = fmt.Sprintf("0x%X", testutil.TaskBase)
	walkBackward, walkHead, walkLimit, walkShow = false, false, 0, nil
}

// writeImage writes the sample task image to a dump file.
func writeImage(t *testing.T) string {
	t.Helper()
	return testutil.TaskImage().WriteFile(t, "memory.raw")
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
}

// decodeJSON unmarshals command output into a generic map
func decodeJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
	return result
}
