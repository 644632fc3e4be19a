package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "登录并保存访问令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			userType, _ := cmd.Flags().GetString("user-type")
			noSave, _ := cmd.Flags().GetBool("no-save")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			data, err := NewAPIClient(cfg).Request("POST", "/api/v1/auth/login", map[string]string{
				"username":  username,
				"password":  password,
				"user_type": userType,
			})
			if err != nil {
				return err
			}
			var resp struct {
				Token    string `json:"token"`
				UserType string `json:"user_type"`
			}
			if err := json.Unmarshal(data, &resp); err != nil || resp.Token == "" {
				return fmt.Errorf("login response did not contain a token")
			}

			if !noSave {
				cfg.Token = resp.Token
				path, err := saveConfigFile(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "令牌已保存到 %s\n", path)
			}
			if cfg.Output == "json" {
				return printOutput(cmd.OutOrStdout(), cfg.Output, data)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", username, resp.UserType)
			return nil
		},
	}
	c.Flags().StringP("username", "u", "", "用户名（学生为学号）")
	c.Flags().String("password", "", "密码")
	c.Flags().String("user-type", "student", "用户类型: student / teacher")
	c.Flags().Bool("no-save", false, "不写入配置文件")
	return c
}
