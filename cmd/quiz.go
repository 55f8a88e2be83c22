package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/evaluation"
	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/question"
	"github.com/abhisek/prepwise/internal/quiz"
	"github.com/abhisek/prepwise/internal/store"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take quizzes and review results",
}

var quizTakeCmd = &cobra.Command{
	Use:   "take <material-id>",
	Short: "Answer questions from a material's bank",
	Long: `Answer questions from a material's bank on the terminal.

Multiple-choice questions take a letter (A-D) or number (1-4). Press Enter on
an empty line to skip a question, or type "quit" to stop and score what you
have answered so far.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		counts, err := countsFromFlags(cmd)
		if err != nil {
			return err
		}
		ordered, _ := cmd.Flags().GetBool("ordered")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		m, err := loadMaterial(ctx, s, args[0])
		if err != nil {
			return err
		}
		if m.Bank.TotalQuestions == 0 {
			return fmt.Errorf("material %q has no questions yet; run 'prepwise generate %s' first", m.Title, m.ID)
		}

		var rng *rand.Rand
		if !ordered {
			seed := uint64(time.Now().UnixNano())
			rng = rand.New(rand.NewPCG(seed, seed>>1))
		}
		questions := quiz.Select(m.Bank, counts, rng)
		if len(questions) == 0 {
			return errors.New("no questions selected; raise the per-type counts")
		}

		var ev *evaluation.Evaluator
		if needsModel(questions) {
			gw, err := newGateway(ctx, s.EventRepo())
			if err != nil {
				return err
			}
			ev = evaluation.New(gw, evaluation.DefaultConfig())
		} else {
			ev = evaluation.New(nil, evaluation.DefaultConfig())
		}

		qz := quiz.New(m.ID, questions, time.Now())
		repo := s.QuizRepo()
		if err := saveQuiz(cmd, repo, qz); err != nil {
			return err
		}

		in := bufio.NewScanner(os.Stdin)
		for i, q := range questions {
			fmt.Printf("\n[%d/%d] ", i+1, len(questions))
			printQuestion(i+1, q)
			fmt.Print("> ")

			line, ok := readLine(in)
			if !ok || strings.EqualFold(line, "quit") {
				break
			}
			if line == "" {
				_ = qz.Skip(q.ID)
				fmt.Println("Skipped.")
				if err := saveQuiz(cmd, repo, qz); err != nil {
					return err
				}
				continue
			}

			ask := func() (string, bool) { return readLine(in) }
			answer, res := gradeWithRetry(ctx, ev, q, resolveAnswer(q, line), ask, os.Stderr)
			if res == nil {
				fmt.Fprintln(os.Stderr, "It will count as skipped.")
				_ = qz.Skip(q.ID)
			} else {
				_ = qz.Record(q.ID, answer, res)
				printEvaluation(res)
			}
			if err := saveQuiz(cmd, repo, qz); err != nil {
				return err
			}
		}
		if err := in.Err(); err != nil {
			return fmt.Errorf("read answers: %w", err)
		}

		results, err := qz.Complete(time.Now())
		if err != nil {
			return err
		}
		if err := saveQuiz(cmd, repo, qz); err != nil {
			return err
		}
		fmt.Println()
		printResults(qz.ID, results)
		return nil
	},
}

var quizResultsCmd = &cobra.Command{
	Use:   "results <quiz-id>",
	Short: "Show the results of a quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		detail, _ := cmd.Flags().GetBool("detail")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.QuizRepo().Get(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("quiz %q not found", args[0])
		}
		if err != nil {
			return err
		}
		qz, err := quiz.FromRecord(rec)
		if err != nil {
			return err
		}

		results := qz.Results
		if results == nil {
			results = quiz.CalculateResults(qz.Questions, qz.Answers)
			fmt.Println("(quiz still in progress; partial results)")
		}
		printResults(qz.ID, results)

		if detail {
			fmt.Println()
			for i, q := range qz.Questions {
				printQuestion(i+1, q)
				a, ok := qz.Answers[q.ID]
				switch {
				case !ok || a.Skipped || a.Evaluation == nil:
					fmt.Println("   (skipped)")
				default:
					fmt.Printf("   Your answer: %s\n", a.UserAnswer)
					printEvaluation(a.Evaluation)
				}
			}
		}
		return nil
	},
}

func saveQuiz(cmd *cobra.Command, repo store.QuizRepo, qz *quiz.Quiz) error {
	rec, err := qz.ToRecord()
	if err != nil {
		return err
	}
	if err := repo.Put(cmd.Context(), rec); err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func needsModel(qs []question.Question) bool {
	for _, q := range qs {
		if q.Type != question.TypeMCQ {
			return true
		}
	}
	return false
}

type answerGrader interface {
	Evaluate(ctx context.Context, q question.Question, userAnswer string) (*evaluation.Result, error)
}

// gradeWithRetry grades answer and, when grading fails, asks the user to
// retry, type a different answer, or skip. It returns the graded answer and
// its result, or a nil result when the answer should count as skipped.
// Authentication failures are not retried.
func gradeWithRetry(ctx context.Context, g answerGrader, q question.Question, answer string, ask func() (string, bool), errOut io.Writer) (string, *evaluation.Result) {
	for {
		res, err := g.Evaluate(ctx, q, answer)
		if err == nil {
			return answer, res
		}
		fmt.Fprintln(errOut, "Could not grade this answer:", explainLLMError("evaluate", err))

		var auth *llm.ErrAuthentication
		if errors.As(err, &auth) || ctx.Err() != nil {
			return answer, nil
		}

		fmt.Fprint(errOut, "Press Enter to retry, type a new answer, or 'skip': ")
		line, ok := ask()
		if !ok || strings.EqualFold(line, "skip") {
			return answer, nil
		}
		if line != "" {
			answer = resolveAnswer(q, line)
		}
	}
}

func readLine(in *bufio.Scanner) (string, bool) {
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

// resolveAnswer maps a typed letter or number to the option text for
// multiple-choice questions. Other input is passed through.
func resolveAnswer(q question.Question, line string) string {
	if q.Type != question.TypeMCQ || len(q.Options) == 0 {
		return line
	}
	if len(line) == 1 {
		c := line[0] | 0x20 // lower-case ASCII letters
		if c >= 'a' && int(c-'a') < len(q.Options) {
			return q.Options[c-'a']
		}
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1]
	}
	return line
}

func printEvaluation(r *evaluation.Result) {
	mark := "✗"
	if r.IsCorrect {
		mark = "✓"
	}
	fmt.Printf("   %s %d/100  %s\n", mark, r.Score, r.Feedback)
	for _, s := range r.Strengths {
		fmt.Printf("     + %s\n", s)
	}
	for _, s := range r.Missing {
		fmt.Printf("     - missing: %s\n", s)
	}
	for _, s := range r.Errors {
		fmt.Printf("     ! %s\n", s)
	}
}

func printResults(id string, r *quiz.Results) {
	fmt.Println("Quiz", id)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("Score:     %d/100\n", r.AverageScore)
	fmt.Printf("Correct:   %d of %d (%d%%)\n", r.Correct, r.TotalQuestions, r.Percentage)
	fmt.Printf("Incorrect: %d\n", r.Incorrect)
	fmt.Printf("Skipped:   %d\n", r.Skipped)
	for _, t := range question.Types {
		tr := r.ByType[t]
		if tr == nil || tr.Total == 0 {
			continue
		}
		fmt.Printf("  %-16s %d/%d correct, avg %d\n", t.Label(), tr.Correct, tr.Total, tr.AverageScore)
	}
}

func init() {
	addCountFlags(quizTakeCmd, 5, 5, 2)
	quizTakeCmd.Flags().Bool("ordered", false, "Keep bank order instead of shuffling")

	quizResultsCmd.Flags().Bool("detail", false, "Show every question with its grade")

	quizCmd.AddCommand(quizTakeCmd)
	quizCmd.AddCommand(quizResultsCmd)
}
