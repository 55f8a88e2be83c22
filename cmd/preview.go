package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/evaluation"
	"github.com/abhisek/prepwise/internal/extract"
	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/question"
	"github.com/abhisek/prepwise/internal/questiongen"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Generate and answer questions from a file without saving anything",
	Long: `Generate questions of one type from a text file and answer them interactively.

This is a stateless tool: no database, no saved quiz, no recorded LLM events.
Useful for checking question quality on new material.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("type", "mcq", "Question type: mcq, singleWord or shortAnswer")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	typeVal, _ := cmd.Flags().GetString("type")
	count, _ := cmd.Flags().GetInt("count")

	t, err := question.ParseType(typeVal)
	if err != nil {
		return err
	}

	doc, err := extract.ExtractFile(ctx, extract.TextExtractor{}, args[0])
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	cfg := loadLLMConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	// No event repo: logging to the database is skipped.
	gw, err := llm.NewGatewayFromConfig(ctx, cfg, nil, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	fmt.Printf("%s: %d pages, %d words\n", doc.FileName, doc.PageCount, doc.TotalWords)
	fmt.Printf("Generating %d %s questions...\n\n", count, t.Label())

	qs, err := questiongen.New(gw, questiongen.DefaultConfig(), log).Regenerate(ctx, doc.Text, t, count)
	if err != nil {
		return explainLLMError("generate questions", err)
	}

	ev := evaluation.New(gw, evaluation.DefaultConfig())
	scanner := bufio.NewScanner(os.Stdin)
	var correct, answered int

	for i, q := range qs {
		fmt.Printf("── Question %d/%d ──\n", i+1, len(qs))
		printQuestion(i+1, q)

		fmt.Print("\nYour answer: ")
		line, ok := readLine(scanner)
		if !ok {
			fmt.Println("\n(input closed)")
			break
		}
		if line == "" {
			fmt.Print("(skipped)\n\n")
			continue
		}

		answer := resolveAnswer(q, line)
		res, err := ev.Evaluate(ctx, q, answer)
		if err != nil {
			fmt.Printf("Could not grade: %v\n\n", err)
			continue
		}
		answered++
		if res.IsCorrect {
			correct++
		}
		printEvaluation(res)
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct (%d answered) ──\n", correct, len(qs), answered)
	return nil
}
