package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"docsearch/internal/chunker"
	"docsearch/internal/extract"
)

const previewLen = 100

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chunkctl",
		Short:         "Inspect header-aware chunking of local documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newChunkCmd())
	cmd.AddCommand(newHeadersCmd())
	return cmd
}

func newChunkCmd() *cobra.Command {
	var (
		asJSON    bool
		chunkSize int
		overlap   int
	)

	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Chunk a document and print every chunk",
		Long: `Extract text from a document and split it into chunks.

Supported formats: .pdf, .docx, .odt, .md, .markdown, .txt.

Examples:
  chunkctl chunk report.pdf
  chunkctl chunk --chunk-size 800 notes.md
  chunkctl chunk --json handbook.docx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := chunker.Config{ChunkSize: chunkSize, ChunkOverlap: overlap}
			if err := cfg.Validate(); err != nil {
				return err
			}

			text, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			chunks := chunker.New(cfg).Chunk(text, filepath.Base(args[0]))
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(chunks)
			}
			printChunks(cmd.OutOrStdout(), chunks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print chunks as JSON")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 500, "Target chunk size in characters")
	cmd.Flags().IntVar(&overlap, "overlap", 50, "Chunk overlap in characters")

	return cmd
}

func newHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers <file>",
		Short: "List the section headers detected in a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			headers := chunker.DetectHeaders(text)
			out := cmd.OutOrStdout()
			if len(headers) == 0 {
				fmt.Fprintln(out, "No headers detected.")
				return nil
			}
			for _, h := range headers {
				fmt.Fprintf(out, "%4d  L%d  %s%s\n", h.LineNumber+1, h.Level, strings.Repeat("  ", h.Level-1), h.Text)
			}
			return nil
		},
	}
}

// readDocument extracts text from a local file using the upload extractors.
func readDocument(cmd *cobra.Command, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	text, err := extract.NewRegistry().Extract(cmd.Context(), filepath.Base(path), content)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", path, err)
	}
	return text, nil
}

func printChunks(w io.Writer, chunks []chunker.Chunk) {
	for _, c := range chunks {
		fmt.Fprintf(w, "--- chunk %d ---\n", c.Index)
		switch {
		case c.HasHeader():
			fmt.Fprintf(w, "header:  %s (level %d)\n", c.Header, c.HeaderLevel)
			if c.IsPartial {
				fmt.Fprintln(w, "partial: true")
			}
		case c.ChunkType != "":
			fmt.Fprintf(w, "type:    %s\n", c.ChunkType)
		}
		fmt.Fprintf(w, "length:  %d\n", len([]rune(c.Text)))
		fmt.Fprintf(w, "preview: %s\n\n", preview(c.Text))
	}

	stats := chunker.ComputeStats(chunks)
	fmt.Fprintf(w, "chunks: %d (header %d, partial %d, paragraph groups %d)\n",
		stats.Chunks, stats.HeaderChunks, stats.PartialChunks, stats.ParagraphGroups)
	fmt.Fprintf(w, "length: min %d, max %d, mean %.1f, p95 %d\n",
		stats.Length.Min, stats.Length.Max, stats.Length.Mean, stats.Length.P95)
}

// preview flattens newlines and shortens s to previewLen runes.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewLen {
		return s
	}
	return string(runes[:previewLen-3]) + "..."
}
