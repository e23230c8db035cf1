package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/assembly"
	"github.com/jonathan/proposal-writer/internal/ingestion"
	"github.com/jonathan/proposal-writer/internal/observability"
	"github.com/jonathan/proposal-writer/internal/pipeline"
	"github.com/jonathan/proposal-writer/internal/rendering"
	"github.com/jonathan/proposal-writer/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a proposal for one job posting",
	Long: `Generate a cover letter for a job brief read from a text file (--brief) or
fetched from a job posting URL (--brief-url). The letter is written to --out,
or to stdout when --out is not set.`,
	RunE: runGenerate,
}

var (
	genBrief    string
	genBriefURL string
	genBrowser  bool
	genOut      string
	genHTML     bool
)

func init() {
	generateCmd.Flags().StringVar(&genBrief, "brief", "", "Path to a job brief text file (mutually exclusive with --brief-url)")
	generateCmd.Flags().StringVar(&genBriefURL, "brief-url", "", "Job posting URL to fetch (mutually exclusive with --brief)")
	generateCmd.Flags().BoolVar(&genBrowser, "browser", false, "Render the posting in headless Chrome when the page needs JavaScript")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output file (stdout when empty)")
	generateCmd.Flags().BoolVar(&genHTML, "html", false, "Write a standalone HTML page instead of plain text")
	generateCmd.MarkFlagsMutuallyExclusive("brief", "brief-url")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if genBrief == "" && genBriefURL == "" {
		return fmt.Errorf("either --brief or --brief-url must be provided")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if genBrowser {
		cfg.UseBrowser = true
	}
	logger, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	brief, err := a.readBrief(ctx, genBrief, genBriefURL)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	catalogSize := 0
	if cfg.Verbose {
		if assembled, err := assembly.New(a.records, logger).Assemble(ctx); err == nil {
			printer.PrintContext(assembled.PersonalContext, assembled.ProposalRules, assembled.Portfolio)
			catalogSize = len(assembled.Portfolio)
		}
	}

	proposal, err := a.pipeline.Run(ctx, brief, func(event pipeline.ProgressEvent) {
		if cfg.Verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", event.Step, event.Message)
		}
	})
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printer.PrintSelection(proposal.Portfolio, max(catalogSize, len(proposal.Portfolio)))
		printer.PrintProposal(proposal)
	}

	return writeProposal(cmd, proposal, genOut, genHTML)
}

// readBrief loads the brief from a file or a posting URL.
func (a *app) readBrief(ctx context.Context, path, url string) (string, error) {
	if url != "" {
		brief, meta, err := a.ingester.FromURL(ctx, url)
		if err != nil {
			return "", fmt.Errorf("failed to fetch job posting: %w", err)
		}
		a.logger.Info("fetched job posting",
			zap.String("url", url),
			zap.String("platform", meta.Platform),
			zap.String("source", meta.Source))
		return brief, nil
	}

	brief, _, err := ingestion.FromFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job brief: %w", err)
	}
	return brief, nil
}

// writeProposal writes the letter as text or as a standalone HTML page.
func writeProposal(cmd *cobra.Command, proposal types.Proposal, out string, asHTML bool) error {
	content := proposal.Text
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if asHTML {
		page, err := rendering.ToPage("Proposal", proposal)
		if err != nil {
			return err
		}
		content = page
	}

	if out == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write proposal: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Proposal written to %s\n", out)
	return nil
}
