package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/pipeline"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "compile the source tree",
	Long:  `Parses every changed source file, resolves toctrees and references, and writes one output per document and format`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd)
	},
}

var force bool

func init() {
	buildCmd.Flags().StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Directory receiving rendered files")
	buildCmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Directory holding the metadata cache")
	buildCmd.Flags().StringSliceVar(&formats, "formats", cfg.Formats, "Output formats (html, latex, docx)")
	buildCmd.Flags().IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "Documents parsed and rendered in parallel")
	buildCmd.Flags().BoolVar(&force, "force", false, "Rebuild every document regardless of freshness")
	buildCmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore and do not write the metadata cache")
	buildCmd.Flags().BoolVar(&cfg.FJSON, "fjson", cfg.FJSON, "Also write .fjson page fragments")
	buildCmd.Flags().BoolVar(&cfg.SearchIndex, "search-index", cfg.SearchIndex, "Write the chunked search index")
}

func runBuild(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := pipeline.OpenStore(cfg)
	defer closeStore()

	builder := pipeline.NewBuilder(cfg,
		fsys.NewOS(cfg.SourceDir), fsys.NewOS(cfg.OutputDir),
		store, nil, nil, log)

	opts := pipeline.DefaultOptions(cfg)
	opts.Force = force
	opts.OnPhase = func(_ pipeline.JobStatus, phase string) {
		log.Debug("build phase", "phase", phase)
	}

	res, err := builder.Build(ctx, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "collected %d, parsed %d, reused %d, wrote %d files in %s\n",
		res.Collected, res.Parsed, res.Reused, res.Rendered, res.Duration.Round(time.Millisecond))
	if res.InvalidReferences > 0 {
		fmt.Fprintf(out, "%d invalid references\n", res.InvalidReferences)
	}

	var merr *multierror.Error
	if errors.As(res.Err, &merr) {
		for _, e := range merr.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", e)
		}
		return fmt.Errorf("%d documents failed", len(merr.Errors))
	}
	return res.Err
}
