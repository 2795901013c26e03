package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/treelineprof/treeline/internal/analysis"
)

// CallTreeSummaryKafkaMessage is what we publish to Kafka after an
// analysis completes, for downstream aggregation.
type CallTreeSummaryKafkaMessage struct {
	AnalysisID   string                  `json:"analysis_id"`
	Environment  string                  `json:"environment,omitempty"`
	TotalTimeMs  float64                 `json:"total_time_ms"`
	TotalSamples uint64                  `json:"total_samples"`
	Functions    []analysis.FunctionStat `json:"functions"`
	Timestamp    int64                   `json:"timestamp"`
}

func buildCallTreeSummaryMessage(analysisID, environment string, result *analysis.CPUResult) CallTreeSummaryKafkaMessage {
	return CallTreeSummaryKafkaMessage{
		AnalysisID:   analysisID,
		Environment:  environment,
		TotalTimeMs:  result.TotalTime,
		TotalSamples: result.TotalSamples,
		Functions:    result.AllFunctions,
		Timestamp:    time.Now().Unix(),
	}
}

func (e *environment) publishCallTreeSummary(analysisID string, result *analysis.CPUResult) {
	if e.callTreesWriter == nil {
		return
	}
	b, err := json.Marshal(buildCallTreeSummaryMessage(analysisID, e.config.Environment, result))
	if err != nil {
		sentry.CaptureException(err)
		return
	}
	err = e.callTreesWriter.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(analysisID),
		Value: b,
	})
	if err != nil {
		sentry.CaptureException(err)
	}
}
