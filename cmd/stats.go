package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/quiz"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quiz statistics per material",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		materials, err := s.MaterialRepo().List(ctx)
		if err != nil {
			return fmt.Errorf("list materials: %w", err)
		}
		if len(materials) == 0 {
			fmt.Println("No material yet.")
			return nil
		}

		fmt.Printf("%-30s  %9s  %7s  %6s  %6s  %6s\n", "Material", "Questions", "Quizzes", "Last", "Best", "Avg")
		fmt.Println(strings.Repeat("─", 76))

		var allQuizzes, allScore int
		for _, m := range materials {
			records, err := s.QuizRepo().ListByMaterial(ctx, m.ID)
			if err != nil {
				return fmt.Errorf("list quizzes: %w", err)
			}

			var done, best, sum int
			last := -1
			for _, r := range records {
				qz, err := quiz.FromRecord(r)
				if err != nil {
					return err
				}
				if qz.Results == nil {
					continue
				}
				score := qz.Results.AverageScore
				if last < 0 {
					// Records are newest first.
					last = score
				}
				best = max(best, score)
				sum += score
				done++
			}

			if done == 0 {
				fmt.Printf("%-30s  %9d  %7d  %6s  %6s  %6s\n",
					truncate(m.Title, 30), m.Bank.TotalQuestions, 0, "-", "-", "-")
				continue
			}
			fmt.Printf("%-30s  %9d  %7d  %6d  %6d  %6d\n",
				truncate(m.Title, 30), m.Bank.TotalQuestions, done, last, best, (sum+done/2)/done)
			allQuizzes += done
			allScore += sum
		}

		fmt.Println(strings.Repeat("─", 76))
		if allQuizzes > 0 {
			fmt.Printf("%d completed quizzes, average score %d\n", allQuizzes, (allScore+allQuizzes/2)/allQuizzes)
		} else {
			fmt.Println("No completed quizzes yet.")
		}
		return nil
	},
}
