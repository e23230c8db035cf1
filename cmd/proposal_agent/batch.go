package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/ingestion"
	"github.com/jonathan/proposal-writer/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate proposals for every brief in a directory",
	Long: `Generate one proposal per .txt or .md job brief in --dir, running up to
--concurrency generations at once. Each proposal is written to --out-dir as
<brief name>.proposal.md; briefs that fail are reported and skipped.`,
	RunE: runBatch,
}

var (
	batchDir         string
	batchOutDir      string
	batchConcurrency int
)

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "Directory of job brief files")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Directory to write proposals to (defaults to --dir)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", pipeline.DefaultBatchConcurrency, "Maximum concurrent generations")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// briefFiles lists the brief files in dir in name order.
func briefFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read brief directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".proposal.md") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// proposalPath names the output file for a brief.
func proposalPath(outDir, briefPath string) string {
	base := strings.TrimSuffix(filepath.Base(briefPath), filepath.Ext(briefPath))
	return filepath.Join(outDir, base+".proposal.md")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := briefFiles(batchDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .txt or .md briefs found in %s", batchDir)
	}

	outDir := batchOutDir
	if outDir == "" {
		outDir = batchDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// unreadable briefs are reported without being sent to the pipeline
	var (
		briefs  []string
		sources []string
		failed  int
	)
	for _, f := range files {
		brief, _, err := ingestion.FromFile(f)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", f, err)
			failed++
			continue
		}
		briefs = append(briefs, brief)
		sources = append(sources, f)
	}

	results, err := a.pipeline.RunBatch(ctx, briefs, batchConcurrency, func(event pipeline.ProgressEvent) {
		a.logger.Debug("batch progress", zap.String("run_id", event.RunID), zap.String("step", event.Step))
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		src := sources[r.Index]
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", src, r.Err)
			failed++
			continue
		}
		out := proposalPath(outDir, src)
		if err := os.WriteFile(out, []byte(r.Proposal.Text+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (portfolio items: %d)\n", src, out, r.Proposal.PortfolioUsed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d briefs failed", failed, len(files))
	}
	return nil
}
