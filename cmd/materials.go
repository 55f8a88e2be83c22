package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/question"
	"github.com/abhisek/prepwise/internal/quiz"
)

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "Manage stored study material",
}

var materialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored material",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		materials, err := s.MaterialRepo().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list materials: %w", err)
		}
		if len(materials) == 0 {
			fmt.Println("No material yet. Add some with 'prepwise add <file>'.")
			return nil
		}

		fmt.Printf("%-40s  %-30s  %6s  %9s  %s\n", "ID", "Title", "Words", "Questions", "Updated")
		fmt.Println(strings.Repeat("─", 110))
		for _, m := range materials {
			fmt.Printf("%-40s  %-30s  %6d  %9d  %s\n",
				m.ID,
				truncate(m.Title, 30),
				m.TotalWords,
				m.Bank.TotalQuestions,
				m.UpdatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var materialsShowCmd = &cobra.Command{
	Use:   "show <material-id>",
	Short: "Show a material, its questions and past quizzes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		withAnswers, _ := cmd.Flags().GetBool("answers")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := loadMaterial(ctx, s, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Title:     %s\n", m.Title)
		fmt.Printf("File:      %s (%d bytes)\n", m.FileName, m.FileSize)
		fmt.Printf("Pages:     %d\n", m.PageCount)
		fmt.Printf("Words:     %d\n", m.TotalWords)
		fmt.Printf("Added:     %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04:05"))

		counts := m.Bank.Counts()
		fmt.Printf("Questions: %d (%d multiple choice, %d single word, %d short answer)\n",
			m.Bank.TotalQuestions, counts.MCQ, counts.SingleWord, counts.ShortAnswer)

		for _, t := range question.Types {
			qs := m.Bank.Of(t)
			if len(qs) == 0 {
				continue
			}
			fmt.Printf("\n%s\n%s\n", t.Label(), strings.Repeat("─", 60))
			for i, q := range qs {
				printQuestion(i+1, q)
				if withAnswers {
					printAnswerKey(q)
				}
			}
		}

		records, err := s.QuizRepo().ListByMaterial(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		if len(records) > 0 {
			fmt.Printf("\nQuizzes\n%s\n", strings.Repeat("─", 60))
			for _, r := range records {
				qz, err := quiz.FromRecord(r)
				if err != nil {
					return err
				}
				score := "-"
				if qz.Results != nil {
					score = fmt.Sprintf("%d%%", qz.Results.AverageScore)
				}
				fmt.Printf("%-42s  %-11s  %5s  %s\n",
					qz.ID, qz.Status, score, qz.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}

var materialsDeleteCmd = &cobra.Command{
	Use:   "delete <material-id>",
	Short: "Delete a material and all of its quizzes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := loadMaterial(cmd.Context(), s, args[0]); err != nil {
			return err
		}
		if err := s.MaterialRepo().Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete material: %w", err)
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

func printQuestion(n int, q question.Question) {
	fmt.Printf("%d. %s\n", n, q.Question)
	for i, opt := range q.Options {
		fmt.Printf("   %c) %s\n", 'A'+i, opt)
	}
}

func printAnswerKey(q question.Question) {
	switch q.Type {
	case question.TypeMCQ:
		if i, ok := q.CorrectAnswer.OptionIndex(len(q.Options)); ok {
			fmt.Printf("   Answer: %c) %s\n", 'A'+i, q.Options[i])
		} else {
			fmt.Printf("   Answer: %s\n", q.CorrectAnswer)
		}
	case question.TypeSingleWord:
		fmt.Printf("   Answer: %s (also: %s)\n", q.CorrectAnswer, strings.Join(q.AcceptableAnswers, ", "))
	case question.TypeShortAnswer:
		fmt.Printf("   Model answer: %s\n", q.ModelAnswer)
		for _, kp := range q.KeyPoints {
			fmt.Printf("     - %s\n", kp)
		}
	}
	if q.Explanation != "" {
		fmt.Printf("   Why: %s\n", q.Explanation)
	}
}

func init() {
	materialsShowCmd.Flags().Bool("answers", false, "Include the answer key")

	materialsCmd.AddCommand(materialsListCmd)
	materialsCmd.AddCommand(materialsShowCmd)
	materialsCmd.AddCommand(materialsDeleteCmd)
}
