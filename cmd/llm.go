package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// activities groups request purposes the way a user thinks about them.
var activities = []struct {
	name     string
	label    string
	purposes []string
}{
	{"generation", "Question generation", []string{llm.PurposeGeneration, llm.PurposeRegeneration}},
	{"grading", "Answer grading", []string{llm.PurposeEvaluation}},
	{"key", "Key checks", []string{llm.PurposeKeyCheck}},
}

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect model requests made while generating and grading",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")
		activity, _ := cmd.Flags().GetString("activity")

		purposes, err := purposesFor(activity)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{
			Limit:      limit,
			From:       since(cmd),
			Purposes:   purposes,
			FailedOnly: failed,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No model requests recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-14s  %-26s  %13s  %6s  %s\n",
			"ID", "Time", "Purpose", "Model", "Tokens in/out", "Ms", "Status")
		for _, e := range events {
			status := "ok"
			if !e.Success {
				status = "failed: " + truncate(e.ErrorMessage, 40)
			}
			fmt.Printf("%-5d  %-19s  %-14s  %-26s  %13s  %6d  %s\n",
				e.ID,
				e.Timestamp.Local().Format(timeLayout),
				e.Purpose,
				truncate(e.Model, 26),
				fmt.Sprintf("%d/%d", e.InputTokens, e.OutputTokens),
				e.LatencyMs,
				status,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one model request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("request %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}

		fmt.Printf("Request %d (%s)\n", e.ID, activityLabel(e.Purpose))
		fmt.Printf("  at %s via %s, model %s\n", e.Timestamp.Local().Format(timeLayout), e.Provider, e.Model)
		fmt.Printf("  %d input + %d output tokens in %dms", e.InputTokens, e.OutputTokens, e.LatencyMs)
		if cost := llm.LookupCost(e.Model); cost != nil {
			fmt.Printf(", about %s", formatCost(cost.Cost(e.InputTokens, e.OutputTokens)))
		}
		fmt.Println()
		if !e.Success {
			fmt.Printf("  failed: %s\n", e.ErrorMessage)
		}

		printSection("Prompt", e.RequestBody)
		printSection("Reply", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost per activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(stats) == 0 {
			fmt.Println("No model requests recorded yet.")
			return nil
		}

		fmt.Printf("%-22s  %6s  %10s  %10s  %8s\n", "Activity", "Calls", "Input", "Output", "Avg Ms")
		var total usageGroup
		for _, g := range groupUsage(stats) {
			fmt.Printf("%-22s  %6d  %10d  %10d  %8.0f\n",
				g.Label, g.Calls, g.InputTokens, g.OutputTokens, g.AvgLatencyMs())
			if len(g.Purposes) > 1 {
				for _, p := range g.Purposes {
					fmt.Printf("  %-20s  %6d  %10d  %10d  %8.0f\n",
						p.Purpose, p.Calls, p.InputTokens, p.OutputTokens, p.AvgLatencyMs)
				}
			}
			total.add(g.Purposes...)
		}
		fmt.Printf("%-22s  %6d  %10d  %10d\n", "Total", total.Calls, total.InputTokens, total.OutputTokens)

		modelUsage, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(modelUsage) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Printf("%-32s  %6s  %10s\n", "Model", "Calls", "Cost (USD)")
		var totalCost float64
		var unpriced []string
		for _, mu := range modelUsage {
			cost := llm.LookupCost(mu.Model)
			if cost == nil {
				unpriced = append(unpriced, mu.Model)
				fmt.Printf("%-32s  %6d  %10s\n", truncate(mu.Model, 32), mu.Calls, "?")
				continue
			}
			c := cost.Cost(mu.InputTokens, mu.OutputTokens)
			totalCost += c
			fmt.Printf("%-32s  %6d  %10s\n", truncate(mu.Model, 32), mu.Calls, formatCost(c))
		}
		label := "Total"
		if len(unpriced) > 0 {
			label = "Total (priced models only)"
		}
		fmt.Printf("%-32s  %6s  %10s\n", label, "", formatCost(totalCost))
		if len(unpriced) > 0 {
			fmt.Printf("\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

// usageGroup sums per-purpose usage for one activity.
type usageGroup struct {
	Label        string
	Purposes     []store.LLMUsageStats
	Calls        int
	InputTokens  int
	OutputTokens int
	latencySum   float64
}

func (g *usageGroup) add(stats ...store.LLMUsageStats) {
	for _, st := range stats {
		g.Calls += st.Calls
		g.InputTokens += st.InputTokens
		g.OutputTokens += st.OutputTokens
		g.latencySum += st.AvgLatencyMs * float64(st.Calls)
	}
}

// AvgLatencyMs is the call-weighted mean latency across the group.
func (g usageGroup) AvgLatencyMs() float64 {
	if g.Calls == 0 {
		return 0
	}
	return g.latencySum / float64(g.Calls)
}

// groupUsage folds per-purpose stats into activities, in activity order.
// Purposes that belong to no activity are reported under "Other".
func groupUsage(stats []store.LLMUsageStats) []usageGroup {
	byPurpose := make(map[string]store.LLMUsageStats, len(stats))
	for _, st := range stats {
		byPurpose[st.Purpose] = st
	}

	var out []usageGroup
	for _, a := range activities {
		g := usageGroup{Label: a.label}
		for _, p := range a.purposes {
			if st, ok := byPurpose[p]; ok {
				g.Purposes = append(g.Purposes, st)
				g.add(st)
				delete(byPurpose, p)
			}
		}
		if g.Calls > 0 {
			out = append(out, g)
		}
	}

	other := usageGroup{Label: "Other"}
	for _, st := range stats {
		if _, ok := byPurpose[st.Purpose]; ok {
			other.Purposes = append(other.Purposes, st)
			other.add(st)
		}
	}
	if other.Calls > 0 {
		out = append(out, other)
	}
	return out
}

// purposesFor resolves an --activity value to request purposes. An empty
// name matches everything; a raw purpose label is accepted too.
func purposesFor(name string) ([]string, error) {
	if name == "" {
		return nil, nil
	}
	for _, a := range activities {
		if a.name == name {
			return a.purposes, nil
		}
		for _, p := range a.purposes {
			if p == name {
				return []string{p}, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown activity %q (want generation, grading or key)", name)
}

func activityLabel(purpose string) string {
	for _, a := range activities {
		for _, p := range a.purposes {
			if p == purpose {
				return a.label + ", " + purpose
			}
		}
	}
	if purpose == "" {
		return "untagged"
	}
	return purpose
}

func printSection(title, body string) {
	fmt.Printf("\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	if body == "" {
		fmt.Println("(not captured)")
		return
	}
	fmt.Println(body)
}

// since returns the lower time bound from --since, or zero.
func since(cmd *cobra.Command) time.Time {
	d, _ := cmd.Flags().GetDuration("since")
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-d)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().Duration("since", 0, "Only show requests newer than this (e.g. 24h)")
	llmListCmd.Flags().StringP("activity", "a", "", "Filter by activity: generation, grading, key, or a purpose label")
	llmListCmd.Flags().Bool("failed", false, "Only show failed requests")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
