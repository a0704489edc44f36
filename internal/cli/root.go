// Package cli ayok 命令行：查看状态、打卡、修改设置、管理联系人
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"AreYouDead/config"
	"AreYouDead/internal/client"
)

var (
	apiURL   string
	apiToken string
	timeout  time.Duration

	// 测试时替换
	newClient = func() (API, error) {
		return client.New(apiURL, apiToken, timeout)
	}
)

var rootCmd = &cobra.Command{
	Use:   "ayok",
	Short: "Daily check-in dead-man's switch",
	Long: `ayok talks to the AreYouDead server: confirm you are okay, inspect the
current check-in status and manage the emergency contacts who are alerted
when a check-in is missed.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		PrintError("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceErrors = true
	rootCmd.Version = config.Cfg.Version

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", config.Cfg.APIBaseURL, "server base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", config.Cfg.APIToken, "bearer token (defaults to API_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
}

// withClient 为单条命令创建客户端和带超时的 context
func withClient(cmd *cobra.Command, fn func(ctx context.Context, api API) error) error {
	api, err := newClient()
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return fn(ctx, api)
}
