package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var ConfigFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "m3u8xm",
	Short: "A local HLS gateway for the SiriusXM streaming backend",
	Long: `m3u8xm is a local HTTP gateway that re-serves SiriusXM channels as
plain HLS playlists and AAC segments, so a standard media player can tune
them without understanding the backend protocol or credentials.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "m3u8xm.json", "config file")
}
