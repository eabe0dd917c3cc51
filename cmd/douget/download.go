package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/since25/douyin-downloader/pkg/browser"
	"github.com/since25/douyin-downloader/pkg/config"
	"github.com/since25/douyin-downloader/pkg/douyin"
	"github.com/since25/douyin-downloader/pkg/logger"
	"github.com/since25/douyin-downloader/pkg/scraper"
	"github.com/since25/douyin-downloader/pkg/storage"
	"github.com/since25/douyin-downloader/pkg/ui"
)

var (
	// Download command flags
	outputDir string
	threads   int
	rateLimit float64
	number    int
	noDB      bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <profile-url | sec_uid>",
	Short: "Download all posts of one creator",
	Long: `Download all posts of a creator identified by a profile URL or a
bare sec_uid.

Media files land under <output>/<author>/<mode>/ with names derived from
the publish date, the description and the item identifier. Every
successfully processed item is appended to the manifest log at the output
root and, unless the database is disabled, recorded in sqlite.`,
	Example: `  # Download a full catalog
  douget download https://www.douyin.com/user/MS4wLjABAAAAxxxx

  # Only the 50 newest posts, 8 workers
  douget download MS4wLjABAAAAxxxx --number 50 --thread 8

  # Skip the sqlite record, write files only
  douget download MS4wLjABAAAAxxxx --no-db`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	downloadCmd.Flags().IntVar(&threads, "thread", 0, "number of concurrent download workers")
	downloadCmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "outbound requests per second")
	downloadCmd.Flags().IntVar(&number, "number", 0, "hard cap on items per mode (0 = unlimited)")
	downloadCmd.Flags().BoolVar(&noDB, "no-db", false, "disable the sqlite download record")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	secUID, err := douyin.ExtractSecUID(args[0])
	if err != nil {
		return err
	}

	var store scraper.Store
	if cfg.Database.Enabled {
		db, err := storage.OpenDB(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
	}

	signer := douyin.PlainSigner{}
	client := douyin.NewClient(60*time.Second, signer, log)

	var collector browser.Collector
	if cfg.BrowserFallback.CollectorPath != "" {
		collector = browser.NewExec(cfg.BrowserFallback.CollectorPath, log)
	}

	tracker := ui.NewStatusTracker(quiet)
	downloader, err := scraper.NewDownloader(scraper.Options{
		Config:    cfg,
		Client:    client,
		Signer:    signer,
		UserAgent: client.UserAgent(),
		Collector: collector,
		Store:     store,
		Reporter:  tracker,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := downloader.Download(ctx, secUID)
	tracker.PrintSummary()
	if err != nil {
		return err
	}

	ui.PrintSuccess(result.String())
	return nil
}

// loadConfig assembles the effective configuration from the precedence
// chain plus the command line flags
func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if threads > 0 {
		flags["thread"] = threads
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if number > 0 {
		flags["number"] = number
	}
	if noDB {
		flags["no-db"] = true
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return config.Load(configFile, flags)
}
