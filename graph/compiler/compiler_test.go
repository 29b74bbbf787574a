package compiler_test

import (
	"testing"

	"github.com/dshills/workflow-engine/graph"
	"github.com/dshills/workflow-engine/graph/compiler"
	"github.com/stretchr/testify/require"
)

func TestCompileRAGProducesValidSpec(t *testing.T) {
	spec, err := compiler.Compile(compiler.TaskRAG, compiler.Slots{"data_source": "docs/"})
	require.NoError(t, err)
	require.NotEmpty(t, spec.Nodes)
	require.NoError(t, graph.Validate(&spec))
}

func TestCompileEveryBuiltinTemplateProducesValidSpec(t *testing.T) {
	taskTypes := []compiler.TaskType{
		compiler.TaskRAG,
		compiler.TaskSummarize,
		compiler.TaskMultiAgentReview,
		compiler.TaskDataAnalysis,
		compiler.TaskReportGeneration,
		compiler.TaskTranslation,
		compiler.TaskCodeReview,
		compiler.TaskQaExtraction,
		compiler.TaskSentimentAnalysis,
		compiler.TaskKnowledgeBaseBuild,
	}
	for _, tt := range taskTypes {
		spec, err := compiler.Compile(tt, compiler.Slots{})
		require.NoErrorf(t, err, "task type %s", tt)
		require.NotEmptyf(t, spec.Nodes, "task type %s produced no nodes", tt)
		require.NoErrorf(t, graph.Validate(&spec), "task type %s produced an invalid spec", tt)
	}
}

func TestCompileCustomTaskTypeReturnsErrNoTemplate(t *testing.T) {
	_, err := compiler.Compile(compiler.TaskCustom, compiler.Slots{})
	require.Error(t, err)
	var noTemplate *compiler.ErrNoTemplate
	require.ErrorAs(t, err, &noTemplate)
}

func TestSlotsGetOrDefault(t *testing.T) {
	s := compiler.Slots{"source": "db"}
	require.Equal(t, "db", s.GetOrDefault("source", "fallback"))
	require.Equal(t, "fallback", s.GetOrDefault("missing", "fallback"))
}
