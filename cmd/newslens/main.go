package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fwehrle/newslens/internal/collect"
	"github.com/fwehrle/newslens/internal/config"
	"github.com/fwehrle/newslens/internal/export"
	"github.com/fwehrle/newslens/internal/pipeline"
	"github.com/fwehrle/newslens/internal/server"
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
	Use:     "newslens",
	Short:   "AI-assisted news analysis",
	Long:    "NewsLens collects news on a topic, analyzes sentiment and market impact with an LLM, and produces a summary report.",
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
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newslens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newslens/",
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
		fmt.Println("Edit it to configure feeds, API keys, and LLM provider.")
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured news sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("General:")
		for _, f := range cfg.Sources.General {
			fmt.Printf("  %s (%s)\n", f.Name, f.URL)
		}
		fmt.Println("\nTech:")
		for _, f := range cfg.Sources.Tech {
			fmt.Printf("  %s (%s)\n", f.Name, f.URL)
		}
		if cfg.Search.Enabled {
			fmt.Println("\nSearch:")
			fmt.Println("  Google News")
		}
		return nil
	},
}

// --- run command ---

var (
	runSources  []string
	daysBack    int
	startDate   string
	endDate     string
	maxArticles int
	dryRun      bool
)

var runCmd = &cobra.Command{
	Use:   "run [search terms...]",
	Short: "Collect and analyze news for the given search terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateSources(cfg, runSources); err != nil {
			return err
		}

		opts, err := buildOptions(args)
		if err != nil {
			return err
		}

		pipe := pipeline.New(cfg)
		ctx := context.Background()

		if dryRun {
			articles, err := pipe.DryRun(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Printf("Would analyze %d articles:\n", len(articles))
			for _, a := range articles {
				fmt.Printf("  [%s] %s\n", a.Source, a.Title)
			}
			return nil
		}

		result, err := pipe.Run(ctx, opts)
		if err != nil {
			return err
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		dataDir := cfg.GetDataDir()
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		reportPath := filepath.Join(dataDir, "report.json")
		if err := export.WriteReport(reportPath, result.Report); err != nil {
			return err
		}

		csvPath := filepath.Join(dataDir, "news_analysis.csv")
		csvFile, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating CSV: %w", err)
		}
		defer csvFile.Close()
		if err := export.WriteCSV(csvFile, result.Report.Articles); err != nil {
			return err
		}

		s := result.Report.Summary
		fmt.Printf("\nAnalyzed %d articles (sentiment score %.2f, avg confidence %.2f, impact %s).\n",
			s.TotalCount, s.OverallSentimentScore, s.AverageConfidence, result.Report.Impact.Level)
		fmt.Printf("Report: %s\n", reportPath)
		fmt.Printf("CSV:    %s\n", csvPath)
		fmt.Println("\nRun 'newslens serve' to view the report.")
		return nil
	},
}

func init() {
	runCmd.Flags().StringSliceVar(&runSources, "sources", nil, "Sources to query, in priority order (default: all configured)")
	runCmd.Flags().IntVar(&daysBack, "days-back", 7, "Lookback window in days")
	runCmd.Flags().StringVar(&startDate, "start", "", "Window start (YYYY-MM-DD, overrides --days-back)")
	runCmd.Flags().StringVar(&endDate, "end", "", "Window end (YYYY-MM-DD)")
	runCmd.Flags().IntVar(&maxArticles, "max", 20, "Maximum number of articles to analyze")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Collect and list articles without analyzing")
}

// validateSources rejects --sources names with no configured adapter before
// any work starts, instead of letting the run silently skip them.
func validateSources(cfg *config.Config, names []string) error {
	for _, name := range names {
		if name == collect.GoogleNewsName {
			if !cfg.Search.Enabled {
				return fmt.Errorf("source %q requested but search is disabled in config", name)
			}
			continue
		}
		if _, _, ok := cfg.FindFeed(name); !ok {
			return fmt.Errorf("unknown source %q; run 'newslens sources' to list configured sources", name)
		}
	}
	return nil
}

// buildOptions resolves the run flags into pipeline options. The window is
// a closed interval: --start/--end take precedence, otherwise --days-back
// counts back from now.
func buildOptions(terms []string) (pipeline.Options, error) {
	opts := pipeline.Options{
		SearchTerms: terms,
		Sources:     runSources,
		MaxArticles: maxArticles,
	}

	now := time.Now()
	switch {
	case startDate != "":
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return opts, fmt.Errorf("parsing --start: %w", err)
		}
		opts.StartDate = start

		end := now
		if endDate != "" {
			parsed, err := time.Parse("2006-01-02", endDate)
			if err != nil {
				return opts, fmt.Errorf("parsing --end: %w", err)
			}
			// End of the named day, so the interval includes it.
			end = parsed.AddDate(0, 0, 1).Add(-time.Second)
		}
		if end.Before(opts.StartDate) {
			return opts, fmt.Errorf("window end %s precedes start %s", end.Format("2006-01-02"), startDate)
		}
		opts.EndDate = end
	case endDate != "":
		return opts, fmt.Errorf("--end requires --start")
	default:
		opts.StartDate = now.AddDate(0, 0, -daysBack)
		opts.EndDate = now
	}

	return opts, nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest report over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		return server.Serve(filepath.Join(cfg.GetDataDir(), "report.json"), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
}
