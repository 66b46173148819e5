// Package main is the Airman CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/skyops/airman/internal/cli"
	"github.com/skyops/airman/internal/config"
	"github.com/skyops/airman/internal/embedding"
	"github.com/skyops/airman/internal/evalrun"
	"github.com/skyops/airman/internal/extract"
	"github.com/skyops/airman/internal/ingest"
	"github.com/skyops/airman/internal/label"
	"github.com/skyops/airman/internal/llm"
	"github.com/skyops/airman/internal/loader"
	"github.com/skyops/airman/internal/retrieval"
	"github.com/skyops/airman/internal/server"
	"github.com/skyops/airman/internal/store"
	"github.com/skyops/airman/internal/watcher"
	"github.com/skyops/airman/pkg/utils"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "query":
		runQuery()
	case "eval":
		runEval()
	case "label":
		runLabel()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("airman version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`airman - grounded Q&A over drone operating manuals

Usage:
  airman serve   [flags]            start the HTTP API (add --watch to re-ingest on corpus changes)
  airman ingest  [flags]            rebuild the vector store from the docs directory
  airman ask     [flags] <question> answer a question grounded in the manuals
  airman query   [flags] <question> show raw retrieved passages without answering
  airman eval    [flags]            run the eval set and append a JSONL log
  airman label   [flags]            interactively label the latest (or given) eval log
  airman watch   [flags]            keep the vector store in sync with the docs directory
  airman status                     show the current corpus generation
  airman version                    print version

Configuration comes from AIRMAN_* environment variables (a .env file in
the working directory is read if present).
`)
}

// components bundles everything built from config.
type components struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *store.SQLiteStore
	Embedder  embedding.Embedder
	Pipeline  *ingest.Pipeline
	Answerer  *retrieval.Answerer
	Retriever *retrieval.Retriever
}

func (c *components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initComponents(debug bool) (*components, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	emb := embedding.NewCached(
		embedding.NewOllamaEmbedder(cfg.OllamaURL, cfg.Embedding.Model, cfg.OllamaToken, cfg.Embedding.Dimensions),
		cfg.Embedding.CacheSize,
	)
	chat := llm.NewOllamaClient(cfg.OllamaURL, cfg.Chat.Model, cfg.OllamaToken)

	chunker, err := ingest.NewChunker(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	ld := loader.New(cfg.DocsDir, extract.NewExtractor(), loader.WithLogger(logger))
	pipeline := ingest.NewPipeline(ld, chunker, emb, st, logger)

	retriever := retrieval.NewRetriever(emb, st, logger)
	answerer := retrieval.NewAnswerer(retriever, chat, cfg.Chat.MaxOutputTokens, logger)

	return &components{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Embedder:  emb,
		Pipeline:  pipeline,
		Answerer:  answerer,
		Retriever: retriever,
	}, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	watch := fs.Bool("watch", false, "re-ingest automatically when corpus files change")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if *watch {
		w := watcher.New(c.Config.DocsDir, func() {
			if _, err := c.Pipeline.Run(context.Background()); err != nil {
				c.Logger.Warn("watch rebuild failed", zap.Error(err))
			}
		}, c.Logger)
		if err := w.Start(watchCtx); err != nil {
			fatal("Failed to start watcher: %v", err)
		}
		defer w.Stop()
	}

	srv := server.NewServer(c.Answerer, c.Store, c.Config, c.Logger)
	go func() {
		if err := srv.Start(); err != nil {
			c.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	c.Logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	stats, err := c.Pipeline.Run(context.Background())
	if err != nil {
		fatal("Ingest failed: %v", err)
	}
	fmt.Printf("Ingested %d documents into %d chunks in %s (%d skipped)\n",
		stats.Documents, stats.Chunks, stats.Duration.Round(time.Millisecond), stats.Skipped)
}

// buildQuestion joins all positional args with spaces so multi-word
// questions work with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	topK := fs.Int("top-k", 0, "passages to retrieve (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	question := buildQuestion(fs.Args())
	if question == "" {
		fatal("Usage: airman ask [flags] <question>")
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatal("%v", err)
	}

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	k := *topK
	if k == 0 {
		k = c.Config.Retrieval.DefaultTopK
	}
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(c.Config.RequestTimeoutSeconds)*time.Second)
	defer cancel()

	result, err := c.Answerer.Answer(ctx, question, k)
	if err != nil {
		fatal("Answer failed: %v", err)
	}
	if err := cli.WriteAnswer(os.Stdout, result, format); err != nil {
		fatal("Failed to write output: %v", err)
	}
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	topK := fs.Int("top-k", 0, "passages to retrieve (default from config)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	question := buildQuestion(fs.Args())
	if question == "" {
		fatal("Usage: airman query [flags] <question>")
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatal("%v", err)
	}

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	k := *topK
	if k == 0 {
		k = c.Config.Retrieval.DefaultTopK
	}
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(c.Config.RequestTimeoutSeconds)*time.Second)
	defer cancel()

	passages, err := c.Retriever.Retrieve(ctx, question, k)
	if err != nil {
		fatal("Retrieval failed: %v", err)
	}
	if err := cli.WritePassages(os.Stdout, passages, format); err != nil {
		fatal("Failed to write output: %v", err)
	}
}

func runEval() {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	topK := fs.Int("top-k", 0, "passages to retrieve per question (default from config)")
	setPath := fs.String("set", "", "eval set YAML path (default: built-in set or AIRMAN_EVAL_SET)")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	path := *setPath
	if path == "" {
		path = c.Config.Eval.SetPath
	}
	items, err := evalrun.LoadEvalSet(path)
	if err != nil {
		fatal("Failed to load eval set: %v", err)
	}

	k := *topK
	if k == 0 {
		k = c.Config.Retrieval.DefaultTopK
	}
	itemTimeout := time.Duration(c.Config.RequestTimeoutSeconds) * time.Second
	harness := evalrun.NewHarness(c.Answerer, itemTimeout, c.Logger)

	fmt.Printf("Running eval with %d questions...\n", len(items))
	res, err := harness.Run(context.Background(), items, k)
	if err != nil {
		fatal("Eval run aborted: %v", err)
	}

	logPath := evalrun.LogPath(c.Config.Eval.LogDir, time.Now())
	if err := evalrun.AppendRecords(logPath, res.Records); err != nil {
		fatal("Failed to write eval log: %v", err)
	}

	cli.WriteEvalSummary(os.Stdout, evalrun.Summarize(res.Records))
	fmt.Printf("Log file: %s\n", logPath)
}

func runLabel() {
	fs := flag.NewFlagSet("label", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	inPath := fs.String("in", "", "eval log to label (default: latest in the eval log dir)")
	limit := fs.Int("limit", 5, "how many records to label this pass (0 = all)")
	start := fs.Int("start", 0, "record index to start from")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	path := *inPath
	if path == "" {
		path, err = evalrun.LatestLog(c.Config.Eval.LogDir)
		if err != nil {
			fatal("No eval log to label: %v", err)
		}
	}
	records, err := evalrun.ReadRecords(path)
	if err != nil {
		fatal("Failed to read eval log: %v", err)
	}
	fmt.Printf("Input: %s (%d records)\n", path, len(records))

	judge := label.NewInteractiveJudge(os.Stdin, os.Stdout)
	reviewer := label.NewReviewer(judge, c.Logger)
	labeled, judged, err := reviewer.Review(context.Background(), records, *start, *limit)
	if err != nil {
		fatal("Labeling failed: %v", err)
	}

	out, err := label.WriteLabeled(c.Config.Eval.LabeledDir, path, labeled)
	if err != nil {
		fatal("Failed to write labeled log: %v", err)
	}
	fmt.Printf("\nLabeled %d records this pass\n", judged)
	cli.WriteEvalSummary(os.Stdout, evalrun.Summarize(labeled))
	fmt.Printf("Output file: %s\n", out)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	initial := fs.Bool("initial", true, "ingest once before watching")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	if *initial {
		if _, err := c.Pipeline.Run(context.Background()); err != nil {
			fatal("Initial ingest failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := watcher.New(c.Config.DocsDir, func() {
		if _, err := c.Pipeline.Run(context.Background()); err != nil {
			c.Logger.Warn("watch rebuild failed", zap.Error(err))
		}
	}, c.Logger)
	if err := w.Start(ctx); err != nil {
		fatal("Failed to start watcher: %v", err)
	}
	defer w.Stop()

	fmt.Printf("Watching %s (ctrl-c to stop)\n", c.Config.DocsDir)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	c, err := initComponents(*debug)
	if err != nil {
		fatal("Failed to initialize: %v", err)
	}
	defer c.Close()

	st, err := c.Store.Status(context.Background())
	if err != nil {
		if errors.Is(err, store.ErrStoreUnavailable) {
			fmt.Println("No corpus ingested yet. Run: airman ingest")
			return
		}
		fatal("Status failed: %v", err)
	}
	fmt.Printf("Generation: %s\n", st.GenerationID)
	fmt.Printf("Embedding model: %s (%d dimensions)\n", st.ModelID, st.Dimensions)
	fmt.Printf("Chunks: %d\n", st.ChunkCount)
	fmt.Printf("Ingested at: %s\n", st.CreatedAt.Format(time.RFC3339))
}
