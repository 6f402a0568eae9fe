package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=..." at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const libraryPath = "github.com/joshuapare/vtypekit"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Built     string `json:"built"`
	Library   string `json:"library,omitempty"`
	GoVersion string `json:"go,omitempty"`
}

// buildVersion fills in whatever the linker flags left unset from the
// embedded build info: VCS revision and time, and the library version.
func buildVersion(bi *debug.BuildInfo, ok bool) versionInfo {
	v := versionInfo{Version: version, Commit: commit, Built: date}
	if !ok || bi == nil {
		return v
	}
	v.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && v.Commit == "none":
			v.Commit = s.Value
		case s.Key == "vcs.time" && v.Built == "unknown":
			v.Built = s.Value
		}
	}
	for _, dep := range bi.Deps {
		if dep.Path != libraryPath {
			continue
		}
		v.Library = dep.Version
		if dep.Replace != nil {
			v.Library = dep.Replace.Path
		}
	}
	return v
}

func runVersion() error {
	v := buildVersion(debug.ReadBuildInfo())
	if jsonOut {
		return printJSON(v)
	}
	fmt.Printf("vtypectl %s\n", v.Version)
	fmt.Printf("  commit: %s\n", v.Commit)
	fmt.Printf("  built: %s\n", v.Built)
	if v.Library != "" {
		fmt.Printf("  vtypekit: %s\n", v.Library)
	}
	if v.GoVersion != "" {
		fmt.Printf("  go: %s\n", v.GoVersion)
	}
	return nil
}
