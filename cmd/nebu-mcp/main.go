// Command nebu-mcp serves agent-callable tools for Stellar event
// extraction, and exposes the same engine through CLI subcommands.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	nebumcp "github.com/withObsrvr/nebu-mcp"
	"github.com/withObsrvr/nebu-mcp/internal/config"
	"github.com/withObsrvr/nebu-mcp/internal/extract"
	nebusrv "github.com/withObsrvr/nebu-mcp/internal/mcp"
	"github.com/withObsrvr/nebu-mcp/internal/processor"
	"github.com/withObsrvr/nebu-mcp/internal/runlog"
	"github.com/withObsrvr/nebu-mcp/internal/runner"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("nebu-mcp: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "mcp":
		err = mcpMain(args)
	case "extract":
		err = extractMain(args)
	case "pipeline":
		err = pipelineMain(args)
	case "version":
		fmt.Println(nebumcp.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "nebu-mcp: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: nebu-mcp <command> [flags]

Commands:
  mcp         Start the MCP server (stdio, or HTTP with -http)
  extract     Extract events with a single processor
  pipeline    Run a multi-processor pipeline
  version     Print the version
  help        Show this help

Use "nebu-mcp <command> -h" for command-specific flags.`)
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(nebusrv.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	eng, logStore, err := newEngine()
	if err != nil {
		return err
	}

	server := nebusrv.NewServer(eng.Config, eng, logStore)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// --- extract ---

func extractMain(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	proc := fs.String("processor", "", "processor name (e.g. token-transfer)")
	start := fs.Int64("start", 0, "first ledger to process")
	end := fs.Int64("end", 0, "last ledger to process (inclusive)")
	filter := fs.String("filter", "", "optional jq filter expression")
	limit := fs.Int("limit", 0, "maximum events to return")
	formatFlag := fs.String("format", "", "output format: full, compact, or summary")
	_ = fs.Parse(args)

	if *proc == "" {
		return fmt.Errorf("extract: -processor is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, _, err := newEngine()
	if err != nil {
		return err
	}

	result, fault := eng.Extract(ctx, extract.ExtractRequest{
		Processor:   *proc,
		StartLedger: *start,
		EndLedger:   *end,
		Filter:      *filter,
		Limit:       *limit,
		Format:      *formatFlag,
	})
	return printResult(result, fault)
}

// --- pipeline ---

func pipelineMain(args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	start := fs.Int64("start", 0, "first ledger to process")
	end := fs.Int64("end", 0, "last ledger to process (inclusive)")
	limit := fs.Int("limit", 0, "maximum events to return")
	formatFlag := fs.String("format", "", "output format: full, compact, or summary")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf(`pipeline: expected one argument, e.g. "token-transfer | usdc-filter"`)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eng, _, err := newEngine()
	if err != nil {
		return err
	}

	result, fault := eng.Pipeline(ctx, extract.PipelineRequest{
		Pipeline:    fs.Arg(0),
		StartLedger: *start,
		EndLedger:   *end,
		Limit:       *limit,
		Format:      *formatFlag,
	})
	return printResult(result, fault)
}

// --- shared ---

func newEngine() (*extract.Engine, *runlog.Log, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("determining working directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logStore := runlog.New(20)
	eng := &extract.Engine{
		Config:  cfg,
		Locator: processor.Default(cfg.SearchDirs...),
		Runner:  &runner.Runner{MaxOutput: cfg.MaxOutputBytes()},
		Log:     logStore,
	}
	return eng, logStore, nil
}

func printResult(result any, fault *extract.Fault) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if fault != nil {
		if err := enc.Encode(fault); err != nil {
			return err
		}
		os.Exit(1)
	}
	return enc.Encode(result)
}
