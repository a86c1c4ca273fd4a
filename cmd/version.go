package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// moduleVersion falls back to the module version recorded by `go install`
// when the binary was not built by the release pipeline.
func moduleVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of segreg.",
	Long: `Display the release version, commit, build time and Go runtime.

Include this output when reporting numerical differences between builds.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("segreg CLI\n")
		cmd.Printf("  Version: %s\n", moduleVersion())
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s/%s %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}
