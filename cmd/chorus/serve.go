package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jinterlante1206/chorus/internal/chorusconfig"
	"github.com/jinterlante1206/chorus/internal/engine"
	"github.com/jinterlante1206/chorus/internal/httpapi"
	"github.com/jinterlante1206/chorus/internal/llmclient"
	"github.com/jinterlante1206/chorus/internal/obslog"
	"github.com/jinterlante1206/chorus/internal/obstrace"
	"github.com/jinterlante1206/chorus/internal/registry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load a config file and start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path := resolveConfigPath()
	log := obslog.Default()

	loaded, err := chorusconfig.LoadFile(path, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	shutdown, err := obstrace.Init(ctx, obstrace.Config{
		ServiceName:  "chorus",
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		MetricsAddr:  loaded.Server.MetricsAddr,
		DebugTracing: loaded.Server.DebugTracing,
	})
	if err != nil {
		log.Warn("observability init failed, continuing without tracing/metrics", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer shutdown(ctx)

	eng := engine.New(loaded.Registry, loaded.Timeouts, clientFactory(loaded.Registry, log), log)
	eng.StreamChunksPerSecond = loaded.Server.StreamChunksPerSecond
	server := httpapi.NewServer(eng, loaded.Workflow, loaded.Registry, log)
	router := server.Router()

	port := loaded.Server.Port
	if port == 0 {
		port = 11434
	}
	addr := fmt.Sprintf(":%d", port)
	log.Info("starting chorus", "addr", addr)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		os.Exit(1)
	}
	return nil
}

// clientFactory adapts the Registry's pooled *openai.Client per host
// into an llmclient.Client per descriptor.
func clientFactory(reg *registry.Registry, log *obslog.Logger) engine.ClientFactory {
	return func(desc registry.ModelDescriptor) llmclient.Client {
		return llmclient.New(reg.Client(desc), desc.Credential, log)
	}
}
