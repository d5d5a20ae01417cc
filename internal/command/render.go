package command

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/solace-dev/export-worker/internal/export"
)

// RenderCommand renders one document offline with the same exporters the server uses
func RenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render --type <pdf|docx|csv>",
		Short: "Render a document from text without starting the server",
		Long: `Render reads newline-delimited text and writes a PDF, DOCX or CSV document.

Examples:
  # Render notes.txt as a PDF
  export-worker render --type pdf --title "Meeting Notes" --in notes.txt --out notes.pdf

  # Pipe text in and the CSV out
  printf 'a,b\nc\n' | export-worker render --type csv > out.csv`,
		Args: cobra.NoArgs,
		RunE: runRender,
	}

	cmd.Flags().String("type", "", "Output format: pdf, docx or csv (required)")
	cmd.Flags().String("title", export.DefaultTitle, "Document heading (ignored for csv)")
	cmd.Flags().String("in", "-", "Input text file, - for stdin")
	cmd.Flags().String("out", "", "Output file path (default: stdout)")
	cmd.Flags().Bool("pdf-compress", true, "Compress PDF content streams")

	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	typeStr, _ := cmd.Flags().GetString("type")
	title, _ := cmd.Flags().GetString("title")
	inFile, _ := cmd.Flags().GetString("in")
	outFile, _ := cmd.Flags().GetString("out")
	compress, _ := cmd.Flags().GetBool("pdf-compress")

	format, err := export.ParseFormat(typeStr)
	if err != nil {
		return fmt.Errorf("invalid type '%s': supported types are pdf, docx and csv", typeStr)
	}

	content, err := readInput(cmd, inFile)
	if err != nil {
		return err
	}

	result, err := export.Export(cmd.Context(), export.NewDocument(title, string(content)), format,
		export.WithPDFCompression(compress))
	if err != nil {
		return err
	}

	if outFile == "" {
		_, err = cmd.OutOrStdout().Write(result.Data)
		return err
	}
	if err := os.WriteFile(outFile, result.Data, 0644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Rendered %s (%d bytes) to %s\n", format, len(result.Data), outFile)
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
