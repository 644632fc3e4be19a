package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal 沟通能力评估总数
	// Labels: source (text/audio), mode (enhanced/simple), outcome (scored/fallback/degraded)
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_evaluations_total",
			Help: "Total number of communication evaluations by source, mode and outcome",
		},
		[]string{"source", "mode", "outcome"},
	)

	// EvaluationScore 最终得分分布
	// Labels: dimension (clarity/confidence/articulation)
	EvaluationScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studybuddy_evaluation_score",
			Help:    "Distribution of final communication scores by dimension",
			Buckets: []float64{40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"dimension"},
	)

	// EvaluationDuration 评估耗时直方图（秒），音频评估包含转写时间
	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studybuddy_evaluation_duration_seconds",
			Help:    "Communication evaluation duration in seconds by source",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"source"},
	)

	// HistoryRecords 历史记录操作计数
	// Labels: op (save/list/delete), status (success/error)
	HistoryRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_history_operations_total",
			Help: "Total number of communication history store operations",
		},
		[]string{"op", "status"},
	)
)

// RecordEvaluation 记录一次评估的结果与得分
func RecordEvaluation(source, mode, outcome string, clarity, confidence, articulation int, durationSeconds float64) {
	EvaluationsTotal.WithLabelValues(source, mode, outcome).Inc()
	EvaluationScore.WithLabelValues("clarity").Observe(float64(clarity))
	EvaluationScore.WithLabelValues("confidence").Observe(float64(confidence))
	EvaluationScore.WithLabelValues("articulation").Observe(float64(articulation))
	EvaluationDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordHistoryOp 记录历史记录存储操作
func RecordHistoryOp(op string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	HistoryRecords.WithLabelValues(op, status).Inc()
}
