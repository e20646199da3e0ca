package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/sennatag/pkg/annotate"
	"github.com/praetorian-inc/sennatag/pkg/config"
	"github.com/praetorian-inc/sennatag/pkg/engine"
	"github.com/praetorian-inc/sennatag/pkg/enum"
	"github.com/praetorian-inc/sennatag/pkg/store"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

var (
	tagEngine         engineFlags
	tagOutputPath     string
	tagOutputFormat   string
	tagInputSet       string
	tagOutputSet      string
	tagSentenceType   string
	tagTokenType      string
	tagMaxInputLength int
	tagSegment        bool
	tagIncremental    bool
	tagMaxFileSize    int64
	tagIncludeHidden  bool
	tagExtract        bool
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <target>",
		Short: "Tag documents with the SENNA engine",
		Long: `Tag a file or every document under a directory ("-" reads stdin).
Documents are added to the store, split into sentences at line breaks unless
sentence annotations already exist, tagged, and the results written back as
annotations.`,
		Args: cobra.ExactArgs(1),
		RunE: runTag,
	}

	tagEngine = engineFlags{}
	tagEngine.bind(cmd)

	defaults := config.Default()
	cmd.Flags().StringVarP(&tagOutputPath, "output", "o", defaults.Store.Path, "Store path (\":memory:\" keeps nothing)")
	cmd.Flags().StringVar(&tagOutputFormat, "format", "human", "Output format: human, json")
	cmd.Flags().StringVar(&tagInputSet, "input-set", defaults.Annotate.InputSet, "Annotation set holding sentences and tokens")
	cmd.Flags().StringVar(&tagOutputSet, "output-set", defaults.Annotate.OutputSet, "Annotation set receiving results")
	cmd.Flags().StringVar(&tagSentenceType, "sentence-type", defaults.Annotate.SentenceType, "Sentence annotation type (empty: whole document)")
	cmd.Flags().StringVar(&tagTokenType, "token-type", defaults.Annotate.TokenType, "Token annotation type (empty: engine tokenizer)")
	cmd.Flags().IntVar(&tagMaxInputLength, "max-input-length", defaults.Annotate.MaxInputLength, "Longest text handed to the engine at once (bytes)")
	cmd.Flags().BoolVar(&tagSegment, "segment", true, "Add a sentence per line to documents without sentences")
	cmd.Flags().BoolVar(&tagIncremental, "incremental", false, "Skip documents already in the store")
	cmd.Flags().Int64Var(&tagMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to read (bytes)")
	cmd.Flags().BoolVar(&tagIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	cmd.Flags().BoolVar(&tagExtract, "extract", true, "Extract text from PDF and DOCX files")
	return cmd
}

// tagResult is the outcome of a tag run.
type tagResult struct {
	annotate.Summary
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Store   string `json:"store"`
}

// tagConfig merges the configuration file with the flags set on cmd.
func tagConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if err := tagEngine.apply(cmd, &cfg.Engine); err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("output") {
		cfg.Store.Path = tagOutputPath
	}
	if fs.Changed("input-set") {
		cfg.Annotate.InputSet = tagInputSet
	}
	if fs.Changed("output-set") {
		cfg.Annotate.OutputSet = tagOutputSet
	}
	if fs.Changed("sentence-type") {
		cfg.Annotate.SentenceType = tagSentenceType
	}
	if fs.Changed("token-type") {
		cfg.Annotate.TokenType = tagTokenType
	}
	if fs.Changed("max-input-length") {
		cfg.Annotate.MaxInputLength = tagMaxInputLength
	}
	return cfg, nil
}

func runTag(cmd *cobra.Command, args []string) error {
	target := args[0]

	if tagOutputFormat != "human" && tagOutputFormat != "json" {
		return fmt.Errorf("unknown output format: %s", tagOutputFormat)
	}
	if target != "-" {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}

	cfg, err := tagConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	eng, err := engine.New(cfg.Engine, engine.WithLogger(logger), engine.WithStderr(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	s, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := tagDocuments(ctx, createEnumerator(cmd, target), s, annotate.New(s, eng, cfg.Annotate, logger), cfg.Annotate, logger)
	if err != nil {
		return fmt.Errorf("tagging: %w", err)
	}
	result.Store = cfg.Store.Path

	if err := outputTagResult(cmd, result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d documents failed", result.Failed)
	}
	return nil
}

func createEnumerator(cmd *cobra.Command, target string) enum.Enumerator {
	if target == "-" {
		return enum.NewReaderEnumerator(cmd.InOrStdin(), "stdin")
	}
	return enum.NewFilesystemEnumerator(enum.Config{
		Root:           target,
		IncludeHidden:  tagIncludeHidden,
		MaxFileSize:    tagMaxFileSize,
		FollowSymlinks: false,
		Extract:        tagExtract,
	})
}

// tagDocuments stores and tags every enumerated document. A document that
// fails to tag is logged and counted; an interrupt stops the run.
func tagDocuments(ctx context.Context, enumerator enum.Enumerator, s store.Store, a *annotate.Annotator, opts annotate.Options, logger *slog.Logger) (tagResult, error) {
	var (
		mu     sync.Mutex
		result tagResult
	)

	err := enumerator.Enumerate(ctx, func(text string, prov types.Provenance) error {
		if tagIncremental {
			_, err := s.DocumentByContent(types.ComputeContentID(text))
			if err == nil {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("checking document: %w", err)
			}
		}

		docID, err := s.AddDocument(text, prov)
		if err != nil {
			return fmt.Errorf("storing document: %w", err)
		}
		if tagSegment && opts.SentenceType != "" {
			if _, err := annotate.SegmentLines(s, docID, opts.InputSet, opts.SentenceType); err != nil {
				return fmt.Errorf("segmenting document: %w", err)
			}
		}

		summary, err := a.Annotate(ctx, docID)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			var interrupted *types.InterruptedError
			if errors.As(err, &interrupted) {
				return err
			}
			logger.Warn("document failed", "path", prov.Path(), "document", docID, "error", err)
			result.Failed++
			return nil
		}
		result.Add(summary)
		return nil
	})
	return result, err
}

func outputTagResult(cmd *cobra.Command, result tagResult) error {
	if tagOutputFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	out := cmd.OutOrStdout()
	heading := color.New(color.Bold)
	fmt.Fprintf(out, "%s %d documents, %d sentences, %d tokens, %d spans, %d relations\n",
		heading.Sprint("Tag complete:"),
		result.Documents, result.Sentences, result.Tokens, result.Spans, result.Relations)
	if tagIncremental {
		fmt.Fprintf(out, "Skipped: %d documents already stored\n", result.Skipped)
	}
	if result.Failed > 0 {
		fmt.Fprintf(out, "%s %d documents\n", color.New(color.FgRed).Sprint("Failed:"), result.Failed)
	}
	fmt.Fprintf(out, "Results stored in: %s\n", result.Store)
	return nil
}
