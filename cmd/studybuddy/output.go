package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/houzhh15/studybuddy/pkg/commskills"
)

// printOutput 按指定格式输出响应数据
func printOutput(w io.Writer, format string, data []byte) error {
	if format == "json" {
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			// 非 JSON 数据直接输出
			_, err = fmt.Fprintln(w, string(data))
			return err
		}
		_, err := fmt.Fprintln(w, out.String())
		return err
	}
	_, err := fmt.Fprintln(w, string(data))
	return err
}

// printEvaluation 输出评估结果；text 模式为便于阅读的摘要
func printEvaluation(w io.Writer, format string, res commskills.EvaluationResult) error {
	if format == "json" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintf(w, "Clarity:      %d\n", res.Clarity)
	fmt.Fprintf(w, "Confidence:   %d\n", res.Confidence)
	fmt.Fprintf(w, "Articulation: %d\n", res.Articulation)
	if res.Analysis.Fallback {
		fmt.Fprintln(w, "(estimated: transcript too short or unavailable)")
	} else {
		a := res.Analysis
		fmt.Fprintf(w, "Words: %d  Sentences: %d  Fillers: %d  Diversity: %.2f\n",
			a.WordCount, a.SentenceCount, a.FillerWords, a.VocabularyDiversity)
	}
	fmt.Fprintf(w, "\n%s\n\n%s\n", res.Feedback, res.Suggestions)
	return nil
}
