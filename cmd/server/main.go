package server

import (
	"github.com/Unverifiedd/m3u8XM/cmd"
	"github.com/Unverifiedd/m3u8XM/pkg/gateway"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gateway server",
	Long:  `Start the gateway that serves the channel playlist, manifests, segments and decryption keys.`,
	Run: func(c *cobra.Command, args []string) {
		gateway.Run(cmd.ConfigFile)
	},
}

func init() {
	cmd.RootCmd.AddCommand(serverCmd)
}
