package main

import (
	"os"
	"path/filepath"

	"github.com/dshills/workflow-engine/graph/cache"
	"github.com/dshills/workflow-engine/graph/executor"
	"github.com/dshills/workflow-engine/graph/host"
	"github.com/dshills/workflow-engine/graph/store"
	"github.com/dshills/workflow-engine/graph/tool"
	"github.com/dshills/workflow-engine/graph/tool/builtin"
	"github.com/rs/zerolog"
)

// app bundles the dependencies every subcommand needs: a logger and a Host
// wired to the built-in native tool set, an in-process cache, and a SQLite
// trace store under dataDir.
type app struct {
	log  zerolog.Logger
	host *host.Host
}

func newApp(log zerolog.Logger, dataDir string) (*app, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, err
	}

	registry := tool.NewRegistry()
	for _, iface := range []tool.Interface{
		builtin.EchoInterface,
		builtin.HTTPInterface,
		builtin.AnthropicInterface,
		builtin.GoogleInterface,
		builtin.OpenAIInterface,
	} {
		if err := registry.Register("core-tools", iface); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	native := executor.NewNativeRuntime()
	native.Register("echo", builtin.Echo)
	native.Register("http", builtin.HTTPHandler(nil))
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		native.Register("llm.anthropic", builtin.AnthropicHandler(key, os.Getenv("ANTHROPIC_MODEL")))
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		native.Register("llm.google", builtin.GoogleHandler(key, os.Getenv("GOOGLE_MODEL")))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		native.Register("llm.openai", builtin.OpenAIHandler(key, os.Getenv("OPENAI_MODEL")))
	}

	dispatcher := executor.NewDispatcher(registry)
	dispatcher.Register(tool.RuntimeNative, native)
	dispatcher.Register(tool.RuntimeProcess, executor.NewProcessRuntime(0, 0))

	traceStore, err := store.NewSQLiteStore(filepath.Join(dataDir, "trace.db"))
	if err != nil {
		return nil, err
	}

	h, err := host.New(registry, dispatcher, cache.NewMemoryCache(), traceStore, nil, filepath.Join(dataDir, "specs"))
	if err != nil {
		return nil, err
	}

	return &app{log: log, host: h}, nil
}
