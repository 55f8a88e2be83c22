package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/extract"
	"github.com/abhisek/prepwise/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Add study material from a text file",
	Long:  "Add study material from a plain text file. Form feed characters separate pages.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		title, _ := cmd.Flags().GetString("title")

		doc, err := extract.ExtractFile(ctx, extract.TextExtractor{}, args[0])
		if err != nil {
			return fmt.Errorf("extract text: %w", err)
		}

		quality := extract.CheckText(doc.Text)
		for _, issue := range quality.Issues {
			fmt.Fprintln(os.Stderr, "warning:", issue)
		}
		if strings.TrimSpace(doc.Text) == "" {
			return fmt.Errorf("%s contains no text", args[0])
		}
		if extract.IsProbablyScanned(doc) {
			fmt.Fprintln(os.Stderr, "warning: very few words per page; the source may be scanned or image-based")
		}

		if title == "" {
			title = strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		m := &store.Material{
			ID:         "mat_" + uuid.NewString(),
			Title:      title,
			FileName:   doc.FileName,
			FileSize:   doc.FileSize,
			PageCount:  doc.PageCount,
			TotalWords: doc.TotalWords,
			Text:       doc.Text,
		}
		if err := s.MaterialRepo().Put(ctx, m); err != nil {
			return fmt.Errorf("save material: %w", err)
		}
		log.Info("material added", "id", m.ID, "pages", m.PageCount, "words", m.TotalWords)

		fmt.Printf("Added %q (%d pages, %d words)\n", m.Title, m.PageCount, m.TotalWords)
		fmt.Println("ID:", m.ID)
		return nil
	},
}

func init() {
	addCmd.Flags().StringP("title", "t", "", "Title of the material (default: file name)")
}
