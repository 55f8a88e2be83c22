package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/question"
	"github.com/abhisek/prepwise/internal/questiongen"
)

var generateCmd = &cobra.Command{
	Use:   "generate <material-id>",
	Short: "Generate a question bank for a material",
	Long:  "Generate a question bank for a material. An existing bank is replaced.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		counts, err := countsFromFlags(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := loadMaterial(ctx, s, args[0])
		if err != nil {
			return err
		}

		gw, err := newGateway(ctx, s.EventRepo())
		if err != nil {
			return err
		}

		gen := questiongen.New(gw, questiongen.DefaultConfig(), log)
		res, err := gen.Generate(ctx, m.Text, counts, func(step, total int, message string) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", step, total, message)
		})
		if err != nil {
			return explainLLMError("generate questions", err)
		}

		m.Bank = res.Bank
		if err := s.MaterialRepo().Put(ctx, m); err != nil {
			return fmt.Errorf("save question bank: %w", err)
		}

		printCountsReport(res)
		return nil
	},
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate <material-id>",
	Short: "Replace the questions of one type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		typeName, _ := cmd.Flags().GetString("type")
		count, _ := cmd.Flags().GetInt("count")
		t, err := question.ParseType(typeName)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := loadMaterial(ctx, s, args[0])
		if err != nil {
			return err
		}

		gw, err := newGateway(ctx, s.EventRepo())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Regenerating %s questions...\n", t.Label())
		qs, err := questiongen.New(gw, questiongen.DefaultConfig(), log).Regenerate(ctx, m.Text, t, count)
		if err != nil {
			return explainLLMError("regenerate questions", err)
		}

		m.Bank = m.Bank.WithType(t, qs)
		if err := s.MaterialRepo().Put(ctx, m); err != nil {
			return fmt.Errorf("save question bank: %w", err)
		}
		fmt.Printf("Replaced %s questions: %d of %d requested. Bank now holds %d questions.\n",
			t.Label(), len(qs), count, m.Bank.TotalQuestions)
		return nil
	},
}

func addCountFlags(cmd *cobra.Command, mcq, singleWord, shortAnswer int) {
	cmd.Flags().Int("mcq", mcq, "Number of multiple-choice questions (0-100)")
	cmd.Flags().Int("single-word", singleWord, "Number of single-word questions (0-100)")
	cmd.Flags().Int("short-answer", shortAnswer, "Number of short-answer questions (0-100)")
}

func countsFromFlags(cmd *cobra.Command) (question.Counts, error) {
	var c question.Counts
	c.MCQ, _ = cmd.Flags().GetInt("mcq")
	c.SingleWord, _ = cmd.Flags().GetInt("single-word")
	c.ShortAnswer, _ = cmd.Flags().GetInt("short-answer")
	return c, c.Validate()
}

func printCountsReport(res *questiongen.Result) {
	fmt.Printf("Generated %d questions\n", res.Bank.TotalQuestions)
	for _, t := range question.Types {
		req := res.Requested.Of(t)
		if req == 0 {
			continue
		}
		line := fmt.Sprintf("  %-16s %3d of %3d", t.Label(), res.Achieved.Of(t), req)
		if d := res.Dropped.Of(t); d > 0 {
			line += fmt.Sprintf(", %d invalid dropped", d)
		}
		if f := res.FailedChunks.Of(t); f > 0 {
			line += fmt.Sprintf(", %d chunk calls failed", f)
		}
		fmt.Println(line)
	}
	if res.Partial() {
		fmt.Println("Some types came up short; run 'prepwise regenerate' to retry a type.")
	}
}

// explainLLMError adds a hint for the failures a user can act on.
func explainLLMError(action string, err error) error {
	var auth *llm.ErrAuthentication
	if errors.As(err, &auth) {
		return fmt.Errorf("%s: %w (check your API key with 'prepwise key validate')", action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func init() {
	addCountFlags(generateCmd, 10, 10, 5)

	regenerateCmd.Flags().String("type", "", "Question type: mcq, singleWord or shortAnswer")
	regenerateCmd.Flags().Int("count", 10, "Number of questions to generate")
	_ = regenerateCmd.MarkFlagRequired("type")
}
