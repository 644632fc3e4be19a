package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "studybuddy",
		Short:         "Study Buddy CLI - 沟通能力练习评估命令行工具",
		Long:          "在本地直接评估一段发言文本，或调用 Study Buddy 后端 HTTP API 完成登录、评估与历史记录管理。",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// 添加全局标志
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatusCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
