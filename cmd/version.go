package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time, e.g.
// go build -ldflags "-X github.com/habedi/cwactl/cmd.version=1.2.0 -X github.com/habedi/cwactl/cmd.commit=$(git rev-parse --short HEAD)"
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
	goVersion = runtime.Version()
	platform  = runtime.GOOS + "/" + runtime.GOARCH
)

// buildInfo fills in commit and date from the VCS stamp when ldflags left
// them empty.
func buildInfo(read func() (*debug.BuildInfo, bool)) (string, string) {
	c, d := commit, buildDate
	info, ok := read()
	if !ok {
		return orUnknown(c), orUnknown(d)
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if c == "" {
				c = s.Value
				if len(c) > 12 {
					c = c[:12]
				}
			}
		case "vcs.time":
			if d == "" {
				d = s.Value
			}
		}
	}
	return orUnknown(c), orUnknown(d)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			c, d := buildInfo(debug.ReadBuildInfo)
			cmd.Println("cwactl version:", version)
			cmd.Println("Commit:", c)
			cmd.Println("Built:", d)
			cmd.Println("Go version:", goVersion)
			cmd.Println("Platform:", platform)
		},
	}
	return cmd
}
