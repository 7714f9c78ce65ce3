// Package main 提供数据库迁移与演示数据写入的命令行工具。
package main

import (
	"context"
	"fmt"
	"os"

	"uvlhub/internal/config"
	"uvlhub/internal/seed"
	"uvlhub/pkg/database"
	"uvlhub/pkg/log"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seeder",
		Short: "UVLHub 数据库维护工具",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.Init(cfgFile)
			log.Init(config.Conf.Log.Level, config.Conf.Log.Format, "")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./configs/config.yaml", "配置文件路径")
	cmd.AddCommand(migrateCmd(), seedCmd())
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或更新全部表结构",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(config.Conf.Database.Driver, config.Conf.Database.DSN)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			log.Info("数据库迁移完成")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "迁移后写入演示用户、社区与数据集",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(config.Conf.Database.Driver, config.Conf.Database.DSN)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			return seed.NewSeeder(db, config.Conf.App.UploadsDir()).Run(context.Background())
		},
	}
}
