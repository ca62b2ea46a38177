package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/spf13/cobra"
)

const breakdownTimeout = 2 * time.Minute

func newAddCmd() *cobra.Command {
	var priority string
	var active bool
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task at the top of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.tasks.CreateTask(strings.Join(args, " "), priority, active)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", shortID(task.ID), task.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "high, medium or low")
	cmd.Flags().BoolVar(&active, "active", false, "Make it the active task")
	return cmd
}

func newListCmd() *cobra.Command {
	var all bool
	var query string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			var tasks []domain.Task
			if query != "" {
				tasks = a.tasks.Search(query, all)
			} else {
				tasks = a.tasks.ListTasks(all)
			}
			activeID := ""
			if t, ok := a.tasks.ActiveTask(); ok {
				activeID = t.ID
			}
			printTasks(cmd.OutOrStdout(), tasks, activeID)

			stats := a.tasks.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d active, %d done\n", stats.Active, stats.Completed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	cmd.Flags().StringVarP(&query, "search", "s", "", "Fuzzy filter")
	return cmd
}

func newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task done (id prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := resolveID(a.tasks.ListTasks(true), args[0])
			if err != nil {
				return err
			}
			task, err := a.tasks.ToggleTask(id)
			if err != nil {
				return err
			}
			state := "not done"
			if task.Completed {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s marked %s\n", task.Title, state)
			return nil
		},
	}
}

func newBreakdownCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "breakdown <id>",
		Short: "Ask the AI provider for subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := resolveID(a.tasks.ListTasks(true), args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), breakdownTimeout)
			defer cancel()
			added, err := a.tasks.GenerateBreakdown(ctx, id, prompt)
			if err != nil {
				return err
			}
			for _, st := range added {
				fmt.Fprintf(cmd.OutOrStdout(), "+ %s\n", st.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "Extra instructions for the AI")
	return cmd
}

func printTasks(w io.Writer, tasks []domain.Task, activeID string) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	for _, t := range tasks {
		check := " "
		if t.Completed {
			check = "x"
		}
		marker := " "
		if t.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s[%s] %s  %-6s %s\n", marker, check, shortID(t.ID), t.Priority, t.Title)
		for _, st := range t.SubTasks {
			sc := " "
			if st.Completed {
				sc = "x"
			}
			fmt.Fprintf(w, "       [%s] %s\n", sc, st.Title)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID accepts a full id or a unique prefix.
func resolveID(tasks []domain.Task, prefix string) (string, error) {
	var match string
	for _, t := range tasks {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no task with id %q", prefix)
	}
	return match, nil
}
