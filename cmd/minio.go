package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"PellinesFM/config"
	"PellinesFM/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储检查",
	Long:  `检查MinIO对象存储连接和存储桶是否可用。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Fatalf("MinIO存储桶检查失败: %v", err)
		}

		fmt.Println("MinIO连接和存储桶检查通过！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
