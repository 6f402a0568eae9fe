package main

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vtypekit/internal/testutil"
	"github.com/joshuapare/vtypekit/typetable"
)

func TestTablesCommand(t *testing.T) {
	resetFlags(t)

	output, err := captureOutput(t, runTables)
	require.NoError(t, err)
	assert.Contains(t, output, "sample_x86")
	assert.Contains(t, output, "Total: 1 tables")

	jsonOut = true
	output, err = captureOutput(t, runTables)
	require.NoError(t, err)
	result := decodeJSON(t, output)
	assert.Equal(t, float64(1), result["count"])
}

func TestTypesCommand(t *testing.T) {
	resetFlags(t)

	output, err := captureOutput(t, func() error { return runTypes(nil) })
	require.NoError(t, err)
	assert.Contains(t, output, "_TASK")
	assert.Contains(t, output, "MAGIC_NAMESPACE", "types added by modifications are listed")
	assert.Contains(t, output, "Total: 4 types")

	output, err = captureOutput(t, func() error { return runTypes([]string{"_TASK"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "_TASK (52 bytes)")
	assert.Contains(t, output, "+0x02C Parent")

	jsonOut = true
	output, err = captureOutput(t, func() error { return runTypes([]string{"_TASK"}) })
	require.NoError(t, err)
	result := decodeJSON(t, output)
	members, ok := result["members"].([]any)
	require.True(t, ok)
	first := members[0].(map[string]any)
	assert.Equal(t, "Pid", first["name"])
	assert.Equal(t, float64(4), first["size"])

	_, err = captureOutput(t, func() error { return runTypes([]string{"_MISSING"}) })
	assert.Error(t, err)
}

func TestTypesCommandRequiresTable(t *testing.T) {
	resetFlags(t)
	tableName = ""

	_, err := captureOutput(t, func() error { return runTypes(nil) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no type table selected")
}

func TestDumpCommand(t *testing.T) {
	resetFlags(t)
	image := writeImage(t)

	output, err := captureOutput(t, func() error { return runDump([]string{image, "_TASK", "0x1040"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "[_TASK ] @ 0x00001040")
	assert.Contains(t, output, "worker")
	assert.Contains(t, output, "Stopped")

	jsonOut = true
	output, err = captureOutput(t, func() error { return runDump([]string{image, "_TASK", "0x1040"}) })
	require.NoError(t, err)
	result := decodeJSON(t, output)
	assert.Equal(t, true, result["valid"])
	values := map[string]any{}
	for _, m := range result["members"].([]any) {
		mm := m.(map[string]any)
		values[mm["name"].(string)] = mm["value"]
	}
	assert.Equal(t, "9", values["Pid"])
	assert.Equal(t, "0x00001000", values["Parent"])

	output, err = captureOutput(t, func() error { return runDump([]string{image, "unsigned long", "0x1000"}) })
	require.NoError(t, err)
	assert.Contains(t, decodeJSON(t, output)["value"], "4")
}

func TestDumpCommandErrors(t *testing.T) {
	resetFlags(t)
	image := writeImage(t)

	_, err := captureOutput(t, func() error { return runDump([]string{image, "_TASK", "nowhere"}) })
	assert.Error(t, err)

	_, err = captureOutput(t, func() error { return runDump([]string{image, "_TASK", "0x9000"}) })
	assert.Error(t, err, "address outside the image")

	_, err = captureOutput(t, func() error { return runDump([]string{image, "_NOPE", "0x1000"}) })
	assert.Error(t, err)

	_, err = captureOutput(t, func() error { return runDump([]string{"pid:abc", "_TASK", "0x1000"}) })
	assert.Error(t, err)
}

func TestWalkCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		head     bool
		backward bool
		limit    int
		want     []float64
	}{
		{name: "from bare head", args: []string{"_TASK", "0x1080", "Links"}, head: true, want: []float64{0x1000, 0x1040}},
		{name: "backward from head", args: []string{"_TASK", "0x1080", "Links"}, head: true, backward: true, want: []float64{0x1040, 0x1000}},
		{name: "from member with limit", args: []string{"_TASK", "0x1040", "Links"}, backward: true, limit: 2, want: []float64{0x1040, 0x1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			jsonOut = true
			walkHead, walkBackward, walkLimit = tt.head, tt.backward, tt.limit
			walkShow = []string{"Pid"}
			image := writeImage(t)

			output, err := captureOutput(t, func() error { return runWalk(append([]string{image}, tt.args...)) })
			require.NoError(t, err)

			var got []float64
			for _, e := range decodeJSON(t, output)["entries"].([]any) {
				got = append(got, e.(map[string]any)["offset"].(float64))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWalkCommandText(t *testing.T) {
	resetFlags(t)
	walkHead = true
	walkShow = []string{"Pid", "ImageName"}
	image := writeImage(t)

	output, err := captureOutput(t, func() error { return runWalk([]string{image, "_TASK", "0x1080", "Links"}) })
	require.NoError(t, err)
	assert.Contains(t, output, "[_TASK] @ 0x00001000  Pid=4  ImageName=init")
	assert.Contains(t, output, "[_TASK] @ 0x00001040  Pid=9  ImageName=worker")
	assert.Contains(t, output, "Total: 2 entries")

	walkHead = false
	_, err = captureOutput(t, func() error { return runWalk([]string{image, "_TASK", "0x1000", "Pid"}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a _LIST_ENTRY")
}

func TestConvertCommand(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	in := filepath.Join(testutil.SampleTablesPath(t), "sample_x86.toml")
	cborPath := filepath.Join(dir, "sample.cbor")
	tomlPath := filepath.Join(dir, "sample.toml")

	output, err := captureOutput(t, func() error { return runConvert([]string{in, cborPath}) })
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote sample_x86 (3 types)")

	_, err = captureOutput(t, func() error { return runConvert([]string{cborPath, tomlPath}) })
	require.NoError(t, err)

	back, err := typetable.Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "sample_x86", back.Name)
	assert.Equal(t, []string{"_LIST_ENTRY", "_TASK", "_UNICODE_STRING"}, back.TypeNames())

	_, err = captureOutput(t, func() error { return runConvert([]string{in, filepath.Join(dir, "out.yaml")}) })
	assert.Error(t, err)
}

func TestWorkspaceConfigFile(t *testing.T) {
	resetFlags(t)
	tableDirs, tableName, bits = nil, "", 0

	abs := testutil.SampleTablesPath(t)
	dir := t.TempDir()
	cfg := "[tables]\ndirs = [\"" + filepath.ToSlash(abs) + "\"]\ndefault = \"sample_x86\"\n[profile]\nbits = 64\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vtypekit.toml"), []byte(cfg), 0o644))
	t.Chdir(dir)

	ws, err := loadWorkspace()
	require.NoError(t, err)
	defer ws.close()
	assert.Equal(t, testutil.SampleTable, ws.cfg.Tables.Default)
	assert.Equal(t, 64, ws.cfg.Profile.Bits)
	assert.Equal(t, []string{"sample_x86"}, ws.catalog.Names())
}

func TestParseAddr(t *testing.T) {
	for in, want := range map[string]uint64{
		"4096":                4096,
		"0x1000":              0x1000,
		"0xfffff800`01234567": 0xfffff80001234567,
	} {
		got, err := parseAddr(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseAddr("0xZZ")
	assert.Error(t, err)
}

func TestBuildVersion(t *testing.T) {
	v := buildVersion(nil, false)
	assert.Equal(t, versionInfo{Version: "dev", Commit: "none", Built: "unknown"}, v)

	bi := &debug.BuildInfo{
		GoVersion: "go1.25.3",
		Deps: []*debug.Module{
			{Path: "github.com/spf13/cobra", Version: "v1.10.1"},
			{Path: libraryPath, Version: "v0.0.0", Replace: &debug.Module{Path: "../../"}},
		},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2024-01-05T10:00:00Z"},
		},
	}
	v = buildVersion(bi, true)
	assert.Equal(t, "abc123", v.Commit)
	assert.Equal(t, "2024-01-05T10:00:00Z", v.Built)
	assert.Equal(t, "../../", v.Library)
	assert.Equal(t, "go1.25.3", v.GoVersion)
}

func TestVersionCommandJSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true

	output, err := captureOutput(t, runVersion)
	require.NoError(t, err)
	assert.Equal(t, "dev", decodeJSON(t, output)["version"])
}
