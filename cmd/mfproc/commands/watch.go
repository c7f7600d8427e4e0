package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-multifn/internal/watch"
	"github.com/l3aro/go-multifn/pkg/cache"
	"github.com/l3aro/go-multifn/pkg/procedure"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <path>...",
	Short: "Revalidate procedure descriptions when they change",
	Long: `Validates the given files and directories once, then watches them and
revalidates every description that is written, created or renamed until
interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failFast, _ := cmd.Flags().GetBool("fail-fast")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		failFast = failFast || cfg.FailFast

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runWatch(ctx, cmd, args, failFast, !noCache && cfg.CacheEnabled)
	},
}

func init() {
	watchCmd.Flags().Bool("fail-fast", false, "Stop at the first defect of each procedure")
	watchCmd.Flags().Bool("no-cache", false, "Do not read or write the report cache")
	RootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context, cmd *cobra.Command, args []string, failFast, useCache bool) error {
	var store *cache.Store[procedure.Report]
	if useCache {
		var err error
		store, err = cache.Open[procedure.Report](cfg.CachePath, cfg.CacheMaxEntries)
		if err != nil {
			logger.Warn("discarding report cache", "path", cfg.CachePath, "err", err)
		}
		defer func() {
			if err := store.Flush(); err != nil {
				logger.Warn("writing report cache", "path", cfg.CachePath, "err", err)
			}
		}()
	}

	out := cmd.OutOrStdout()
	validate := func(paths []string) {
		results := make([]FileResult, 0, len(paths))
		for _, path := range paths {
			results = append(results, validateFile(path, failFast, store))
		}
		if len(results) > 0 {
			printValidation(out, results)
		}
	}

	paths, err := newScanner().Resolve(args)
	if err != nil {
		return err
	}
	validate(paths)

	opts := watch.DefaultOptions()
	opts.Extension = cfg.DescriptionExt
	opts.Logger = logger
	w, err := watch.New(args, opts)
	if err != nil {
		return err
	}
	defer w.Close()
	logger.Info("watching for changes", "paths", len(args))

	return w.Run(ctx, func(changed []string) {
		// Resolve again so that ignore rules and new files are honored.
		current, err := newScanner().Resolve(args)
		if err != nil {
			logger.Error("resolving paths", "err", err)
			return
		}
		wanted := make(map[string]bool, len(current))
		for _, p := range current {
			wanted[p] = true
		}
		var batch []string
		for _, p := range changed {
			if wanted[p] {
				batch = append(batch, p)
			} else {
				logger.Debug("skipping change", "file", p)
			}
		}
		validate(batch)
		if store != nil {
			if err := store.Flush(); err != nil {
				logger.Warn("writing report cache", "path", cfg.CachePath, "err", err)
			}
		}
	})
}
