package cmd

import (
	"os"

	"PellinesFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动广播服务器",
	Long:  `启动社区电台广播协调器：音频流、播放列表管理和实时状态推送`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Start(); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
