package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config 保存 CLI 全局配置
type Config struct {
	ServerURL string `yaml:"server_url" json:"server_url"`
	Token     string `yaml:"token" json:"token"`
	Output    string `yaml:"-" json:"-"`
}

// configPath 返回配置文件路径，STUDYBUDDY_CONFIG 优先于 ~/.studybuddy/config.yaml
func configPath() string {
	if p := os.Getenv("STUDYBUDDY_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".studybuddy", "config.yaml")
}

// LoadConfig 从命令行标志、环境变量、配置文件加载配置（优先级从高到低）
func LoadConfig(cmd *cobra.Command) *Config {
	cfg := &Config{}

	loadConfigFile(cfg)

	if v := os.Getenv("STUDYBUDDY_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("STUDYBUDDY_TOKEN"); v != "" {
		cfg.Token = v
	}

	if v, _ := cmd.Flags().GetString("server-url"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cfg.Token = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output = v
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost:8000"
	}
	if cfg.Output == "" {
		cfg.Output = "text"
	}
	return cfg
}

func loadConfigFile(cfg *Config) {
	path := configPath()
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, cfg)
}

// saveConfigFile 持久化 server_url 与 token（登录后调用）
func saveConfigFile(cfg *Config) (string, error) {
	path := configPath()
	if path == "" {
		return "", fmt.Errorf("cannot resolve config path")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// addGlobalFlags 为 root 命令添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("server-url", "", "服务器地址 (env: STUDYBUDDY_SERVER_URL, 默认: http://localhost:8000)")
	cmd.PersistentFlags().String("token", "", "认证令牌 (env: STUDYBUDDY_TOKEN)")
	cmd.PersistentFlags().StringP("output", "o", "", "输出格式: json / text (默认: text)")
}
