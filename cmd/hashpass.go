package cmd

import (
	"fmt"
	"log"

	"PellinesFM/core/auth"

	"github.com/spf13/cobra"
)

var hashpassCmd = &cobra.Command{
	Use:   "hashpass <password>",
	Short: "生成管理员口令哈希",
	Long:  `生成bcrypt口令哈希，填入 ADMIN_PASSWORD_HASH 环境变量以启用管理端点认证。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			log.Fatalf("生成口令哈希失败: %v", err)
		}
		fmt.Println(hash)
	},
}

func init() {
	rootCmd.AddCommand(hashpassCmd)
}
