package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kfreiman/interviewcoach/internal/converter"
	"github.com/kfreiman/interviewcoach/internal/ingest"
	"github.com/kfreiman/interviewcoach/internal/mcp"
	"github.com/kfreiman/interviewcoach/internal/redaction"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

var (
	ingestType string
	ingestSave bool
)

// ingestCmd extracts the text of a CV or job description file
var ingestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Extract text from a CV or job description",
	Long: `Extract the text of a PDF, DOCX, HTML, Markdown or text file and print its
hash and length. With --save a PII-redacted copy is written to STORAGE_PATH.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := setupLogger()

		kind := storage.DocumentType(ingestType)
		if !kind.IsValid() {
			return fmt.Errorf("--type must be cv or jd, got %q", ingestType)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		extractor := converter.NewExtractor().WithLogger(logger)
		defer extractor.Close()

		ingestCfg := ingest.IngestorConfig{
			Extractor: extractor,
			Redactor:  redaction.NewRedactor(),
			Logger:    logger,
		}
		if ingestSave {
			cfg, err := mcp.LoadConfig()
			if err != nil {
				return err
			}
			ttl, err := cfg.TTL()
			if err != nil {
				return err
			}
			sm, err := storage.NewStorageManager(ctx, storage.StorageConfig{
				BasePath:   cfg.StoragePath,
				DefaultTTL: ttl,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			ingestCfg.Store = sm
		}

		doc, err := ingest.NewIngestorWithConfig(ingestCfg).Ingest(ctx, kind, filepath.Base(args[0]), data)
		if err != nil && !ingest.IsDegraded(err) {
			return err
		}

		fmt.Printf("type:      %s\n", doc.Kind)
		fmt.Printf("hash:      %s\n", doc.Hash)
		fmt.Printf("chars:     %d\n", len([]rune(doc.Text)))
		fmt.Printf("truncated: %t\n", doc.Truncated)
		if doc.URI != "" {
			fmt.Printf("uri:       %s\n", doc.URI)
		}
		if err != nil {
			fmt.Printf("warning:   %v\n", err)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "cv", "document type: cv or jd")
	ingestCmd.Flags().BoolVar(&ingestSave, "save", false, "store a redacted copy in STORAGE_PATH")
	rootCmd.AddCommand(ingestCmd)
}
