package channels

import (
	"fmt"
	"os"
	"time"

	"github.com/Unverifiedd/m3u8XM/cmd"
	"github.com/Unverifiedd/m3u8XM/pkg/catalog"
	"github.com/Unverifiedd/m3u8XM/pkg/gateway"
	"github.com/Unverifiedd/m3u8XM/pkg/logger"
	"github.com/Unverifiedd/m3u8XM/pkg/sxmclient"
	"github.com/spf13/cobra"
)

// channelsCmd logs in with the configured account and prints the channel
// lineup, useful to verify credentials and pick channel ids.
var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the channel lineup",
	Run: func(c *cobra.Command, args []string) {
		cfg, err := gateway.LoadConfig(cmd.ConfigFile)
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
		logger.Init(cfg.LogFile)

		client := sxmclient.NewClient(cfg.Account.Username, cfg.Account.Password)
		client.SetTimeout(time.Duration(cfg.Timeout) * time.Second)

		lineup, err := catalog.New(client).Channels()
		if err != nil {
			logger.Errorf("Failed to fetch channels: %v", err)
			os.Exit(1)
		}

		for _, channel := range lineup {
			fmt.Printf("%4s  %-12s  %-40s  %s\n", channel.Number, channel.Kind, channel.Title, channel.ID)
		}
	},
}

func init() {
	cmd.RootCmd.AddCommand(channelsCmd)
}
