package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var version string
var commitHash string
var buildDate string

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of audioEngine",
	Long:  `All software has versions. This is audioEngine's.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionString())
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}

func versionString() string {
	return fmt.Sprintf("audioEngine Version: %s, %s/%s, BuildDate: %s, Commit: %s",
		version, runtime.GOOS, runtime.GOARCH, buildDate, commitHash)
}
