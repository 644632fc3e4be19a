package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/houzhh15/studybuddy/pkg/commskills"
)

func newEvaluateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "evaluate [text...]",
		Short: "评估一段发言的清晰度、自信度与表达力",
		Long: `评估发言文本或录音。

文本来源：命令行参数，或 --file 指定的文件（"-" 表示标准输入）。
--local 在本地直接运行分析器，无需服务端；--audio 上传录音由服务端转写后评估。`,
		RunE: runEvaluate,
	}
	c.Flags().StringP("file", "f", "", "从文件读取发言文本 (\"-\" 为标准输入)")
	c.Flags().String("audio", "", "录音文件路径（服务端转写）")
	c.Flags().String("format", "", "录音格式，默认取文件扩展名")
	c.Flags().Bool("local", false, "本地评估，不访问服务端")
	c.Flags().String("mode", "enhanced", "本地评估模式: enhanced / simple")
	c.Flags().String("match", "substring", "本地词表匹配方式: substring / token")
	c.Flags().Bool("no-jitter", false, "本地评估关闭随机扰动")
	c.Flags().Uint64("seed", 0, "本地评估随机种子（便于复现）")
	c.Flags().String("save", "", "评估后将结果保存到该学号的历史记录")
	return c
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := LoadConfig(cmd)
	out := cmd.OutOrStdout()

	local, _ := cmd.Flags().GetBool("local")
	audioPath, _ := cmd.Flags().GetString("audio")
	saveFor, _ := cmd.Flags().GetString("save")

	if audioPath != "" && local {
		return fmt.Errorf("--audio requires the server; drop --local")
	}
	if saveFor != "" && local {
		return fmt.Errorf("--save requires the server; drop --local")
	}

	var res commskills.EvaluationResult
	switch {
	case audioPath != "":
		r, err := evaluateAudioRemote(cmd, cfg, audioPath)
		if err != nil {
			return err
		}
		res = r
	default:
		text, err := readTranscript(cmd, args)
		if err != nil {
			return err
		}
		if local {
			a, err := localAnalyzer(cmd)
			if err != nil {
				return err
			}
			res = a.Evaluate(text)
		} else {
			data, err := NewAPIClient(cfg).Request("POST", "/api/v1/transcription/evaluate-text", map[string]string{"transcription": text})
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &res); err != nil {
				return fmt.Errorf("parse evaluation: %w", err)
			}
		}
	}

	if err := printEvaluation(out, cfg.Output, res); err != nil {
		return err
	}

	if saveFor != "" {
		data, err := NewAPIClient(cfg).Request("POST", "/api/v1/communication/history", historyBody(saveFor, res))
		if err != nil {
			return fmt.Errorf("save history: %w", err)
		}
		var resp struct {
			HistoryID string `json:"history_id"`
			RepeatOf  string `json:"repeat_of"`
		}
		if err := json.Unmarshal(data, &resp); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "已保存: history_id=%s\n", resp.HistoryID)
			if resp.RepeatOf != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "与之前的练习 %s 内容相近\n", resp.RepeatOf)
			}
		}
	}
	return nil
}

// readTranscript 参数优先，其次 --file
func readTranscript(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	file, _ := cmd.Flags().GetString("file")
	switch file {
	case "":
		return "", fmt.Errorf("provide the transcript as arguments or with --file")
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		return string(data), nil
	}
}

func localAnalyzer(cmd *cobra.Command) (*commskills.Analyzer, error) {
	modeFlag, _ := cmd.Flags().GetString("mode")
	matchFlag, _ := cmd.Flags().GetString("match")
	noJitter, _ := cmd.Flags().GetBool("no-jitter")

	mode, err := commskills.ParseMode(modeFlag)
	if err != nil {
		return nil, err
	}
	match, err := commskills.ParseMatchMode(matchFlag)
	if err != nil {
		return nil, err
	}
	opts := commskills.Options{Mode: mode, Match: match, DisableJitter: noJitter}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		opts.Rand = commskills.NewSeededSource(seed, seed)
	}
	return commskills.New(opts), nil
}

func evaluateAudioRemote(cmd *cobra.Command, cfg *Config, path string) (commskills.EvaluationResult, error) {
	var res commskills.EvaluationResult
	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read audio: %w", err)
	}
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	body := map[string]string{
		"audioData": base64.StdEncoding.EncodeToString(data),
		"format":    format,
	}
	resp, err := NewAPIClient(cfg).Request("POST", "/api/v1/transcription/evaluate", body)
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(resp, &res); err != nil {
		return res, fmt.Errorf("parse evaluation: %w", err)
	}
	return res, nil
}

func historyBody(student string, res commskills.EvaluationResult) map[string]interface{} {
	return map[string]interface{}{
		"student_register_number": student,
		"transcription":           res.Transcription,
		"clarity":                 res.Clarity,
		"confidence":              res.Confidence,
		"articulation":            res.Articulation,
		"feedback":                res.Feedback,
		"suggestions":             res.Suggestions,
		"analysis":                res.Analysis,
	}
}
