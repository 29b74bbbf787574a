// Package compiler builds a graph.WorkflowSpec from a TaskType and a Slots
// bag of named fill-in values, grounded on the original Handbox compiler's
// template registry (match_template / build_*).
package compiler

import (
	"fmt"

	"github.com/dshills/workflow-engine/graph"
)

// TaskType names one of the closed set of built-in templates, or Custom for
// a task the compiler has no canned shape for.
type TaskType string

const (
	TaskRAG                TaskType = "rag"
	TaskSummarize          TaskType = "summarize"
	TaskMultiAgentReview   TaskType = "multi_agent_review"
	TaskDataAnalysis       TaskType = "data_analysis"
	TaskReportGeneration   TaskType = "report_generation"
	TaskTranslation        TaskType = "translation"
	TaskCodeReview         TaskType = "code_review"
	TaskQaExtraction       TaskType = "qa_extraction"
	TaskSentimentAnalysis  TaskType = "sentiment_analysis"
	TaskKnowledgeBaseBuild TaskType = "knowledge_base_build"
	TaskCustom             TaskType = "custom"
)

// Slots is a bag of named fill-in values gathered from a slot-filling step
// upstream of the compiler (e.g. an NLU pass over a user's request).
type Slots map[string]string

// GetOrDefault returns the named slot, or fallback if unset or empty.
func (s Slots) GetOrDefault(name, fallback string) string {
	if v, ok := s[name]; ok && v != "" {
		return v
	}
	return fallback
}

// ErrNoTemplate is returned for TaskCustom and any TaskType without a
// matching template.
type ErrNoTemplate struct {
	TaskType TaskType
}

func (e *ErrNoTemplate) Error() string {
	return fmt.Sprintf("compiler: no template registered for task type %q", e.TaskType)
}

// templateFunc builds one WorkflowSpec from Slots.
type templateFunc func(Slots) graph.WorkflowSpec

var templates = map[TaskType]templateFunc{
	TaskRAG:                buildRAGBasic,
	TaskSummarize:          buildDocSummarize,
	TaskMultiAgentReview:   buildMultiAgentReview,
	TaskDataAnalysis:       buildDataAnalysis,
	TaskReportGeneration:   buildReportGeneration,
	TaskTranslation:        buildTranslation,
	TaskCodeReview:         buildCodeReview,
	TaskQaExtraction:       buildQaExtraction,
	TaskSentimentAnalysis:  buildSentimentAnalysis,
	TaskKnowledgeBaseBuild: buildKnowledgeBase,
}

// Compile resolves taskType against the built-in template registry and
// fills it from slots. TaskCustom and any unregistered TaskType return
// *ErrNoTemplate; the caller is expected to build a WorkflowSpec by hand in
// that case.
func Compile(taskType TaskType, slots Slots) (graph.WorkflowSpec, error) {
	fn, ok := templates[taskType]
	if !ok {
		return graph.WorkflowSpec{}, &ErrNoTemplate{TaskType: taskType}
	}
	spec := fn(slots)
	spec.Normalize()
	return spec, nil
}
