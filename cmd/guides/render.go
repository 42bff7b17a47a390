package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/pipeline"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "render one file to stdout",
	Long:  `Renders a single source file as a standalone document, without a toctree or cache`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		builder := pipeline.NewBuilder(cfg,
			fsys.NewOS(filepath.Dir(args[0])), fsys.NewMemory(),
			nil, nil, nil, log)
		out, invalid, err := builder.RenderSingle(filepath.Base(args[0]), src, renderFormat)
		if err != nil {
			return err
		}
		if invalid > 0 {
			log.Warn("invalid references", "count", invalid)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var renderFormat string

func init() {
	renderCmd.Flags().StringVar(&renderFormat, "format", "html", "Output format (html, latex, docx)")
}

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "guides", version)
	},
}
