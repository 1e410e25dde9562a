package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/nickheyer/crawlkit/internal/api"
	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/cachestore/memory"
	"github.com/nickheyer/crawlkit/internal/cachestore/sqlite"
	"github.com/nickheyer/crawlkit/internal/config"
	"github.com/nickheyer/crawlkit/internal/flow"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/httpclient"
	"github.com/nickheyer/crawlkit/internal/logging"
	"github.com/nickheyer/crawlkit/internal/model"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/schedule"
	"github.com/nickheyer/crawlkit/internal/workerpool"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "generate-schema":
		err = runGenerateSchema(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "login":
		err = runLoginCmd(os.Args[2:])
	case "run":
		err = runRun(os.Args[2:])
	case "crawl":
		err = runCrawl(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "crawlkit:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `crawlkit %s

Usage:
  crawlkit generate-schema           print the rule document JSON Schema
  crawlkit validate <rule.json>      load and validate a rule document
  crawlkit login <rule.json>         run the rule's login flow, print "login OK" or the error
  crawlkit run [-query q] [-page n] <rule.json> <url>
                                     run search (with -query), else list, else detail on <url>; print JSON
  crawlkit crawl <rule.json>         list then detail every item, print JSON
  crawlkit serve [-config path]      start the HTTP control surface
`, version)
}

// runGenerateSchema reflects the rule.Rule struct tree into a JSON Schema
// document and writes it to stdout, the same reflector the /api/schema
// handler uses.
func runGenerateSchema(args []string) error {
	reflector := &jsonschema.Reflector{}
	schema := reflector.Reflect(&rule.Rule{})
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}

func runValidate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: crawlkit validate <rule.json>")
	}
	r, err := loadRule(args[0])
	if err != nil {
		return err
	}
	if verr := r.Validate(); verr != nil {
		return verr
	}
	fmt.Println("OK")
	return nil
}

// runLoginCmd runs a rule's login flow in isolation, so a rule author can
// confirm it succeeds before a real run/crawl invocation depends on it. The
// session it establishes is not kept or printed.
func runLoginCmd(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: crawlkit login <rule.json>")
	}
	r, err := loadRule(args[0])
	if err != nil {
		return err
	}
	if verr := r.Validate(); verr != nil {
		return verr
	}
	if r.Login == nil {
		return fmt.Errorf("rule has no login flow configured")
	}

	client, err := httpclient.New(r.HTTP)
	if err != nil {
		return err
	}
	ctx := flowctx.New(r, httpGetter{client}, memory.New(), nil, nil, "")
	if err := flow.RunLogin(context.Background(), r, ctx); err != nil {
		return err
	}
	fmt.Println("login OK")
	return nil
}

func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	query := fs.String("query", "", "search query, for rules whose media kind is reached via search")
	page := fs.Int("page", 1, "page number, for list flows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: crawlkit run [-query q] [-page n] <rule.json> <url>")
	}

	r, err := loadRule(rest[0])
	if err != nil {
		return err
	}
	if verr := r.Validate(); verr != nil {
		return verr
	}

	client, err := httpclient.New(r.HTTP)
	if err != nil {
		return err
	}
	ctx := flowctx.New(r, httpGetter{client}, memory.New(), nil, nil, "")
	goctx := context.Background()

	var result any
	switch {
	case r.Search.URLTemplate.Raw() != "" && *query != "":
		result, err = flow.RunSearch(goctx, r, *query, ctx)
	case r.List != nil:
		var items any
		var nextURL string
		items, nextURL, err = flow.RunList(goctx, r, *page, ctx)
		result = map[string]any{"items": items, "nextUrl": nextURL}
	default:
		result, err = flow.RunDetail(goctx, r, rest[1], ctx)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// crawlResult pairs a list item with the detail page it resolved to, or the
// error that stopped it, for runCrawl's combined JSON report.
type crawlResult struct {
	Item   model.SearchItem   `json:"item"`
	Detail *flow.DetailResult `json:"detail,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// runCrawl fans a rule's list flow out across a bounded workerpool.Pool,
// running the detail flow for every listed item concurrently rather than
// stopping at the first failure. With -cron set, it repeats on that
// schedule via internal/schedule instead of running once.
func runCrawl(args []string) error {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	concurrency := fs.Int("concurrency", 5, "number of detail flows to run in parallel")
	maxPages := fs.Int("pages", 1, "maximum number of list pages to walk")
	cron := fs.String("cron", "", "cron expression; if set, crawl repeats on this schedule instead of running once")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: crawlkit crawl [-concurrency n] [-pages n] [-cron expr] <rule.json>")
	}

	r, err := loadRule(rest[0])
	if err != nil {
		return err
	}
	if verr := r.Validate(); verr != nil {
		return verr
	}

	runOnce := func() ([]crawlResult, error) {
		return crawlOnce(r, *concurrency, *maxPages)
	}

	if *cron == "" {
		results, cerr := runOnce()
		if cerr != nil {
			return cerr
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	sched := schedule.New()
	sched.Start()
	defer sched.Stop()

	err = sched.Add(&schedule.Job{
		ID:       rest[0],
		CronExpr: *cron,
		Rule:     r,
		Run: func(_ context.Context, rl *rule.Rule) error {
			results, cerr := crawlOnce(rl, *concurrency, *maxPages)
			if cerr != nil {
				return cerr
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	})
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}

func crawlOnce(r *rule.Rule, concurrency, maxPages int) ([]crawlResult, error) {
	client, err := httpclient.New(r.HTTP)
	if err != nil {
		return nil, err
	}
	ctx := flowctx.New(r, httpGetter{client}, memory.New(), nil, nil, "")
	goctx := context.Background()

	var items []model.SearchItem
	page := 1
	for {
		pageItems, nextURL, err := flow.RunList(goctx, r, page, ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, pageItems...)
		if nextURL == "" || page >= maxPages {
			break
		}
		page++
	}

	pool := workerpool.New(concurrency)
	defer pool.Stop()

	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make([]crawlResult, len(items))
	failed := 0

	for i, item := range items {
		i, item := i, item
		wg.Add(1)
		_ = pool.Submit(func() error {
			defer wg.Done()
			detail, derr := flow.RunDetail(goctx, r, item.ID, ctx)
			mu.Lock()
			defer mu.Unlock()
			if derr != nil {
				results[i] = crawlResult{Item: item, Error: derr.Error()}
				failed++
				return derr
			}
			results[i] = crawlResult{Item: item, Detail: detail}
			return nil
		})
	}
	wg.Wait()

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "crawlkit: %d of %d detail pages failed\n", failed, len(items))
	}
	return results, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a crawlkit config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
		return err
	}

	logger, err := logging.New(cfg.DataPath, logging.LevelInfo, true)
	if err != nil {
		return err
	}
	defer logger.Close()

	newCache := func() cachestore.Cache { return memory.New() }
	if cfg.CacheBackend == config.CacheBackendSQLite {
		sqliteCache, err := sqlite.Open(cfg.CacheDBPath)
		if err != nil {
			return err
		}
		defer sqliteCache.Close()
		newCache = func() cachestore.Cache { return sqliteCache }
	}

	router := api.NewRouterWithCache(newCache)
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("crawlkit %s starting on %s", version, cfg.ListenAddr), nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", map[string]any{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadRule(path string) (*rule.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return rule.ParseRule(data)
}

// httpGetter satisfies flowctx.HTTP by wrapping a concrete *httpclient.Client.
type httpGetter struct{ client *httpclient.Client }

func (g httpGetter) Get(ctx context.Context, rawURL string) (flowctx.Response, error) {
	return g.client.Get(ctx, rawURL)
}
