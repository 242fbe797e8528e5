package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"PellinesFM/cache"
	"PellinesFM/config"
	"PellinesFM/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并检查持久化的广播状态。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// 读取持久化的广播状态
		state, err := cache.NewStateCache().LoadState(ctx)
		if err != nil {
			log.Fatalf("读取广播状态失败: %v", err)
		}
		if state == nil {
			fmt.Println("没有持久化的广播状态。")
		} else {
			fmt.Printf("广播状态: mode=%s, current=%s, playlist=%d\n",
				state.Mode, state.CurrentTrackID, len(state.Order))
		}

		if err := db.CloseRedis(); err != nil {
			log.Printf("关闭Redis连接时发生错误: %v", err)
		}
		fmt.Println("Redis测试完成，连接已关闭。")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
