package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newsdesk/internal/config"
	"newsdesk/internal/database"
	"newsdesk/internal/ingest"
	"newsdesk/internal/llm"
	"newsdesk/internal/moderation"
	"newsdesk/internal/scheduler"
	"newsdesk/internal/scrape"
	"newsdesk/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsdesk",
	Short:   "Moderated news pipeline",
	Long:    "Newsdesk discovers news from feeds, webpages, and channels, rewrites it, and queues it for human moderation.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(keywordsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsdesk", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newsdesk/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure sources, keywords, and API keys.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Sources:")
		fmt.Printf("  Total: %d\n", stats.Sources)
		fmt.Printf("  Active: %d\n", stats.ActiveSources)
		fmt.Println("\nArticles:")
		fmt.Printf("  Total: %d\n", stats.Articles)
		fmt.Printf("  Pending: %d\n", stats.Pending)
		fmt.Printf("  Published: %d\n", stats.Published)
		fmt.Printf("  Rejected: %d\n", stats.Rejected)
		fmt.Printf("\nKeywords: %d\n", stats.Keywords)
		return nil
	},
}

// --- sweep command ---

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Check all active sources for new articles once",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Checking sources for news...")

		coordinator := buildCoordinator(db)
		ctx := context.Background()
		result := coordinator.Sweep(ctx)
		processed := coordinator.ProcessPending(ctx)

		fmt.Println("\nSweep complete:")
		fmt.Printf("  New articles: %d\n", result.TotalNew)
		fmt.Printf("  Processed: %d\n", processed)

		if len(result.BySource) > 0 {
			fmt.Println("\nArticles by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.BySource {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler and moderation web UI until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		coordinator := buildCoordinator(db)
		sched := scheduler.New(coordinator, db, cfg.SweepInterval(),
			cfg.Sweep.RetentionDays, cfg.Sweep.RetentionHour)
		sched.Start()
		defer sched.Stop()

		svc := buildService(db, sched)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Serve(svc, cfg.ImagesDir(), cfg.Server.Port)
		}()

		fmt.Printf("Newsdesk running at http://localhost:%d\n", cfg.Server.Port)
		fmt.Printf("Sweeping every %s. Press Ctrl+C to stop.\n", cfg.SweepInterval())

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
			return nil
		case err := <-errCh:
			return err
		}
	},
}

// --- serve command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the moderation web UI without the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		coordinator := buildCoordinator(db)
		sched := scheduler.New(coordinator, db, cfg.SweepInterval(),
			cfg.Sweep.RetentionDays, cfg.Sweep.RetentionHour)
		svc := buildService(db, sched)

		fmt.Printf("Starting server at http://localhost:%d\n", cfg.Server.Port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(svc, cfg.ImagesDir(), cfg.Server.Port)
	},
}

// --- prune command ---

var pruneDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete articles older than a number of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		removed, err := db.DeleteOlderThan(pruneDays)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d articles older than %d days\n", removed, pruneDays)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", 7, "Delete articles older than this many days")
}

// --- clear command ---

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return err
		}
		if stats.Articles == 0 {
			fmt.Println("No articles to delete.")
			return nil
		}

		fmt.Printf("Delete all %d articles? [y/N]: ", stats.Articles)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			return fmt.Errorf("aborted")
		}

		removed, err := db.ClearArticles()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d articles\n", removed)
		return nil
	},
}

// --- sources command ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage content sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sources, err := db.ListSources(false)
		if err != nil {
			return err
		}

		if len(sources) == 0 {
			fmt.Println("No sources configured. Add one with: newsdesk sources add")
			return nil
		}

		fmt.Println("Sources:")
		fmt.Println()
		for _, s := range sources {
			icon := " "
			if s.IsActive {
				icon = "*"
			}
			fmt.Printf("  [%d] %s %s (%s)\n", s.ID, icon, s.Name, s.Type)
			fmt.Printf("        %s\n", s.URL)
		}
		return nil
	},
}

var sourceType string

var sourcesAddCmd = &cobra.Command{
	Use:   "add [name] [url]",
	Short: "Add a new source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.InsertSource(args[0], args[1], database.SourceType(sourceType))
		if err != nil {
			return err
		}
		fmt.Printf("Added source [%d]: %s\n", id, args[0])
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a source and its articles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid source ID: %s", args[0])
		}

		source, err := db.GetSource(id)
		if err != nil {
			return err
		}

		if err := db.DeleteSource(id); err != nil {
			return err
		}
		fmt.Printf("Removed source [%d]: %s\n", id, source.Name)
		return nil
	},
}

var sourcesToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Toggle a source's active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid source ID: %s", args[0])
		}

		source, err := db.GetSource(id)
		if err != nil {
			return err
		}

		if err := db.ToggleSource(id); err != nil {
			return err
		}
		newState := "disabled"
		if !source.IsActive {
			newState = "enabled"
		}
		fmt.Printf("Source [%d] %s: %s\n", id, source.Name, newState)
		return nil
	},
}

func init() {
	sourcesAddCmd.Flags().StringVarP(&sourceType, "type", "t", "feed", "Source type: feed, webpage, or channel")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	sourcesCmd.AddCommand(sourcesToggleCmd)
}

// --- keywords command ---

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage relevance keywords",
}

var keywordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		keywords, err := db.ListKeywords()
		if err != nil {
			return err
		}

		if len(keywords) == 0 {
			fmt.Println("No keywords configured; every fetched item passes the filter.")
			return nil
		}
		for _, k := range keywords {
			fmt.Println(k)
		}
		return nil
	},
}

var keywordsAddCmd = &cobra.Command{
	Use:   "add [keyword]",
	Short: "Add a keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		added, err := db.AddKeyword(args[0])
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("Keyword already exists: %s\n", strings.ToLower(args[0]))
			return nil
		}
		fmt.Printf("Added keyword: %s\n", strings.ToLower(args[0]))
		return nil
	},
}

var keywordsRemoveCmd = &cobra.Command{
	Use:   "remove [keyword]",
	Short: "Remove a keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		removed, err := db.RemoveKeyword(args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("Keyword not found: %s\n", strings.ToLower(args[0]))
			return nil
		}
		fmt.Printf("Removed keyword: %s\n", strings.ToLower(args[0]))
		return nil
	},
}

func init() {
	keywordsCmd.AddCommand(keywordsListCmd)
	keywordsCmd.AddCommand(keywordsAddCmd)
	keywordsCmd.AddCommand(keywordsRemoveCmd)
}

// --- wiring ---

func openDB() (*database.DB, error) {
	dbPath := cfg.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.SeedKeywords(cfg.Keywords); err != nil {
		log.Printf("seeding keywords: %v", err)
	}
	return db, nil
}

// buildCoordinator wires the sweep pipeline from the config: fetch
// strategies, the text transformer, and the image generator.
func buildCoordinator(db *database.DB) *ingest.Coordinator {
	client := llm.NewClient(cfg.Transform)
	scrapeTimeout := time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second

	var renderer scrape.Renderer
	if cfg.Scrape.Render.Enabled {
		renderer = scrape.NewChromeRenderer(cfg.Scrape.UserAgent,
			time.Duration(cfg.Scrape.Render.WaitSeconds)*time.Second, scrapeTimeout)
	}

	var analyzer scrape.PageAnalyzer
	if client.IsConfigured() {
		analyzer = llm.NewPageAnalyzer(client)
	}

	var reader scrape.ChannelReader
	if cfg.Channel.Enabled {
		reader = scrape.NewTelegramPreviewReader(cfg.Scrape.UserAgent, scrapeTimeout)
	}

	dispatcher := scrape.NewDispatcher(cfg, renderer, analyzer, reader)

	var rewriter ingest.Rewriter
	if client.IsConfigured() {
		rewriter = llm.NewRewriter(client)
	}

	return ingest.New(db, dispatcher, rewriter, llm.NewImageGenerator(cfg.Image, cfg.ImagesDir()))
}

// buildService wires the moderation boundary the web UI talks to.
func buildService(db *database.DB, sched *scheduler.Scheduler) *moderation.Service {
	client := llm.NewClient(cfg.Transform)
	scrapeTimeout := time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second

	var rewriter moderation.Rewriter
	if client.IsConfigured() {
		rewriter = llm.NewRewriter(client)
	}

	enricher := moderation.NewContentEnricher(cfg.Scrape.UserAgent, scrapeTimeout)
	imager := llm.NewImageGenerator(cfg.Image, cfg.ImagesDir())

	return moderation.NewService(db, sched, rewriter, imager, enricher, cfg.Server.AdminToken)
}
