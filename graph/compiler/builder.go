package compiler

import "github.com/dshills/workflow-engine/graph"

// prim builds a Primitive NodeEntry bound to core-tools/<tool>@1, the
// built-in pack every template assumes is registered.
func prim(id, tool, label string, x, y float64) graph.NodeEntry {
	return graph.NodeEntry{
		Kind: graph.NodePrimitive,
		Primitive: &graph.PrimitiveNode{
			ID:       id,
			ToolRef:  "core-tools/" + tool + "@1",
			Position: &graph.Position{X: x, Y: y},
			Label:    label,
		},
	}
}

// edge builds a data EdgeSpec; normalize() fills in its ID at Compile time.
func edge(srcNode, srcPort, tgtNode, tgtPort string) graph.EdgeSpec {
	return graph.EdgeSpec{
		SourceNode: srcNode,
		SourcePort: srcPort,
		TargetNode: tgtNode,
		TargetPort: tgtPort,
		Kind:       graph.EdgeData,
	}
}

// wf assembles a named, described WorkflowSpec from its node and edge list.
func wf(name, description string, nodes []graph.NodeEntry, edges []graph.EdgeSpec) graph.WorkflowSpec {
	spec := graph.NewWorkflowSpec(name)
	spec.Metadata.Description = description
	spec.Nodes = nodes
	spec.Edges = edges
	return spec
}

func buildRAGBasic(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "input.txt")
	return wf(
		"RAG Pipeline",
		"RAG pipeline for "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read File", 0, 100),
			prim("split", "text-split", "Split Text", 250, 100),
			prim("embed", "embedding", "Embed Chunks", 500, 100),
			prim("store", "vector-store", "Store Vectors", 750, 100),
			prim("input", "user-input", "User Query", 500, 250),
			prim("q_embed", "embedding", "Embed Query", 750, 250),
			prim("search", "vector-search", "Search", 1000, 175),
			prim("llm", "llm-chat", "Generate Answer", 1250, 175),
			prim("out", "display-output", "Display", 1500, 175),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "split", "text"),
			edge("split", "chunks", "embed", "text"),
			edge("embed", "vector", "store", "vectors"),
			edge("split", "chunks", "store", "chunks"),
			edge("input", "text", "q_embed", "text"),
			edge("q_embed", "vector", "search", "query_vector"),
			edge("search", "results", "llm", "context"),
			edge("input", "text", "llm", "prompt"),
			edge("llm", "response", "out", "data"),
		},
	)
}

func buildDocSummarize(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "document.txt")
	return wf(
		"Document Summarization",
		"Summarize "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read File", 0, 100),
			prim("split", "text-split", "Split Text", 250, 100),
			prim("summarize", "llm-summarize", "Summarize", 500, 100),
			prim("merge", "text-merge", "Merge", 750, 100),
			prim("out", "display-output", "Display", 1000, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "split", "text"),
			edge("split", "chunks", "summarize", "text"),
			edge("summarize", "summary", "merge", "texts"),
			edge("merge", "merged", "out", "data"),
		},
	)
}

func buildMultiAgentReview(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "document.txt")
	return wf(
		"Multi-Agent Review",
		"Multi-persona review of "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read File", 0, 100),
			prim("reviewer1", "llm-chat", "Expert Reviewer", 300, 0),
			prim("reviewer2", "llm-chat", "Critical Reviewer", 300, 100),
			prim("reviewer3", "llm-chat", "Practical Reviewer", 300, 200),
			prim("merge", "merge", "Merge Reviews", 600, 100),
			prim("synthesize", "llm-chat", "Synthesize", 850, 100),
			prim("out", "display-output", "Display", 1100, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "reviewer1", "prompt"),
			edge("read", "content", "reviewer2", "prompt"),
			edge("read", "content", "reviewer3", "prompt"),
			edge("reviewer1", "response", "merge", "input_a"),
			edge("reviewer2", "response", "merge", "input_b"),
			edge("merge", "merged", "synthesize", "context"),
			edge("reviewer3", "response", "synthesize", "prompt"),
			edge("synthesize", "response", "out", "data"),
		},
	)
}

func buildDataAnalysis(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "data.csv")
	return wf(
		"Data Analysis",
		"Analyze "+src,
		[]graph.NodeEntry{
			prim("read", "csv-read", "Read CSV", 0, 100),
			prim("filter", "data-filter", "Filter Data", 250, 100),
			prim("analyze", "llm-chat", "Analyze", 500, 100),
			prim("out", "display-output", "Display", 750, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "rows", "filter", "items"),
			edge("filter", "filtered", "analyze", "prompt"),
			edge("analyze", "response", "out", "data"),
		},
	)
}

func buildReportGeneration(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "input.txt")
	return wf(
		"Report Generation",
		"Generate report from "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read Source", 0, 100),
			prim("gen", "llm-chat", "Generate Report", 250, 100),
			prim("export", "to-pdf", "Export PDF", 500, 100),
			prim("out", "display-output", "Display", 750, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "gen", "prompt"),
			edge("gen", "response", "export", "content"),
			edge("export", "path", "out", "data"),
		},
	)
}

func buildTranslation(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "document.txt")
	return wf(
		"Translation",
		"Translate "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read File", 0, 100),
			prim("split", "text-split", "Split Text", 250, 100),
			prim("translate", "llm-chat", "Translate", 500, 100),
			prim("merge", "text-merge", "Merge", 750, 100),
			prim("write", "file-write", "Write File", 1000, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "split", "text"),
			edge("split", "chunks", "translate", "prompt"),
			edge("translate", "response", "merge", "texts"),
			edge("merge", "merged", "write", "content"),
		},
	)
}

func buildCodeReview(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "code.py")
	return wf(
		"Code Review",
		"Review "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read Code", 0, 100),
			prim("review", "llm-chat", "Review Code", 250, 100),
			prim("out", "display-output", "Display", 500, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "review", "prompt"),
			edge("review", "response", "out", "data"),
		},
	)
}

func buildQaExtraction(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "document.txt")
	return wf(
		"QA Extraction",
		"Extract QA from "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read File", 0, 100),
			prim("split", "text-split", "Split Text", 250, 100),
			prim("extract", "llm-chat", "Extract QA", 500, 100),
			prim("parse", "json-parse", "Parse JSON", 750, 100),
			prim("out", "display-output", "Display", 1000, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "split", "text"),
			edge("split", "chunks", "extract", "prompt"),
			edge("extract", "response", "parse", "json_string"),
			edge("parse", "data", "out", "data"),
		},
	)
}

func buildSentimentAnalysis(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "reviews.txt")
	return wf(
		"Sentiment Analysis",
		"Analyze sentiment in "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read File", 0, 100),
			prim("split", "text-split", "Split Text", 250, 100),
			prim("sentiment", "llm-chat", "Analyze Sentiment", 500, 100),
			prim("parse", "json-parse", "Parse JSON", 750, 100),
			prim("out", "display-output", "Display", 1000, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "split", "text"),
			edge("split", "chunks", "sentiment", "prompt"),
			edge("sentiment", "response", "parse", "json_string"),
			edge("parse", "data", "out", "data"),
		},
	)
}

func buildKnowledgeBase(slots Slots) graph.WorkflowSpec {
	src := slots.GetOrDefault("data_source", "docs/")
	return wf(
		"Knowledge Base Build",
		"Build KB from "+src,
		[]graph.NodeEntry{
			prim("read", "file-read", "Read Files", 0, 100),
			prim("split", "text-split", "Split Text", 250, 100),
			prim("embed", "embedding", "Embed", 500, 100),
			prim("store", "vector-store", "Store", 750, 100),
			prim("out", "display-output", "Display", 1000, 100),
		},
		[]graph.EdgeSpec{
			edge("read", "content", "split", "text"),
			edge("split", "chunks", "embed", "text"),
			edge("embed", "vector", "store", "vectors"),
			edge("split", "chunks", "store", "chunks"),
			edge("store", "index_id", "out", "data"),
		},
	)
}
