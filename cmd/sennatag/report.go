package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/praetorian-inc/sennatag/pkg/annotate"
	"github.com/praetorian-inc/sennatag/pkg/store"
)

var (
	reportDatastore string
	reportFormat    string
	reportColor     string
	reportSet       string
	reportTokens    bool
)

// styles holds color formatters for report output
type styles struct {
	documentHeading *color.Color
	id              *color.Color
	heading         *color.Color
	layer           *color.Color
	label           *color.Color
	text            *color.Color
	metadata        *color.Color
}

// newStyles creates color formatters for report output
// enabled=false respects --color never and the NO_COLOR env var
func newStyles(enabled bool) *styles {
	s := &styles{
		documentHeading: color.New(color.Bold, color.FgHiWhite),
		id:              color.New(color.FgHiGreen),
		heading:         color.New(color.Bold),
		layer:           color.New(color.Bold, color.FgHiBlue),
		label:           color.New(color.FgHiMagenta),
		text:            color.New(color.FgYellow),
		metadata:        color.New(color.FgHiBlue),
	}

	if !enabled {
		for _, c := range []*color.Color{s.documentHeading, s.id, s.heading, s.layer, s.label, s.text, s.metadata} {
			c.DisableColor()
		}
	}

	return s
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report the annotations of a store",
		Long:  "Read documents from a store and print their tagging results",
		RunE:  runReport,
	}
	cmd.Flags().StringVar(&reportDatastore, "datastore", "sennatag.db", "Path to the store")
	cmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json")
	cmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	cmd.Flags().StringVar(&reportSet, "set", "", "Annotation set to report")
	cmd.Flags().BoolVar(&reportTokens, "tokens", false, "Include token annotations")
	return cmd
}

// reportDocument is the JSON form of one stored document.
type reportDocument struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"`
	Kind        string             `json:"kind"`
	Added       time.Time          `json:"added"`
	Annotations []reportAnnotation `json:"annotations"`
	Relations   []*store.Relation  `json:"relations,omitempty"`
}

type reportAnnotation struct {
	*store.Annotation
	Text string `json:"text"`
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportDatastore == ":memory:" {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(reportDatastore); err != nil {
		return fmt.Errorf("datastore not found: %s", reportDatastore)
	}

	s, err := store.New(store.Config{Path: reportDatastore})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	docs, err := collectReport(s)
	if err != nil {
		return err
	}

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(docs)
	case "human":
		outputReportHuman(cmd.OutOrStdout(), docs)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// collectReport reads every document with the annotations of the reported
// set. Sentences, and tokens unless --tokens is given, are left out.
func collectReport(s store.Store) ([]reportDocument, error) {
	stored, err := s.Documents()
	if err != nil {
		return nil, fmt.Errorf("retrieving documents: %w", err)
	}

	docs := make([]reportDocument, 0, len(stored))
	for _, d := range stored {
		doc := reportDocument{ID: d.ID, Added: d.Added, Annotations: []reportAnnotation{}}
		if d.Provenance != nil {
			doc.Source = d.Provenance.Path()
			doc.Kind = d.Provenance.Kind()
		}

		annotations, err := s.Annotations(d.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieving annotations: %w", err)
		}
		for _, a := range annotations {
			if a.Set != reportSet || a.Type == annotate.TypeSentence {
				continue
			}
			if a.Type == annotate.TypeToken && !reportTokens {
				continue
			}
			doc.Annotations = append(doc.Annotations, reportAnnotation{Annotation: a, Text: d.Text[a.Span.Start:a.Span.End]})
		}

		relations, err := s.Relations(d.ID)
		if err != nil {
			return nil, fmt.Errorf("retrieving relations: %w", err)
		}
		for _, r := range relations {
			if r.Set == reportSet {
				doc.Relations = append(doc.Relations, r)
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// annotationLabel is the value shown next to an annotation: its tag value,
// its role type, or for tokens the part-of-speech tag.
func annotationLabel(a *store.Annotation) string {
	for _, key := range []string{annotate.FeatureValue, annotate.FeatureType, "POS"} {
		if v, ok := a.Features[key].(string); ok {
			return v
		}
	}
	return ""
}

func outputReportHuman(out io.Writer, docs []reportDocument) {
	// Determine if colors should be enabled based on --color flag
	switch reportColor {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		} else {
			color.NoColor = false
		}
	}
	s := newStyles(!color.NoColor)

	fmt.Fprintf(out, "%s\n", s.heading.Sprint("=== sennatag Report ==="))
	fmt.Fprintf(out, "Datastore: %s\n", reportDatastore)
	fmt.Fprintf(out, "Total documents: %d\n", len(docs))

	for i, doc := range docs {
		fmt.Fprintf(out, "\n%s (%s %s)\n",
			s.documentHeading.Sprintf("Document %d/%d", i+1, len(docs)),
			s.heading.Sprint("id"),
			s.id.Sprint(doc.ID))
		if doc.Source != "" {
			fmt.Fprintf(out, "%s %s %s\n", s.heading.Sprint("Source:"), doc.Source, s.metadata.Sprintf("(%s)", doc.Kind))
		}

		if len(doc.Annotations) == 0 {
			fmt.Fprintln(out, "No annotations.")
			continue
		}
		for _, a := range doc.Annotations {
			fmt.Fprintf(out, "  %-5s %-6s %s %s\n",
				s.layer.Sprint(a.Type),
				s.label.Sprint(annotationLabel(a.Annotation)),
				s.text.Sprintf("%q", a.Text),
				s.metadata.Sprintf("[%d,%d)", a.Span.Start, a.Span.End))
		}
		if len(doc.Relations) > 0 {
			fmt.Fprintf(out, "%s %d\n", s.heading.Sprint("Relations:"), len(doc.Relations))
		}
	}
}
