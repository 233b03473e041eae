package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-gradebook/internal/app"
	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/pkg/jobs"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard of the signed in user",
	Long: "Students see their assignments with status and weighted score. Teachers see every " +
		"student with submission counts and weighted score, or one student's gradebook with --student.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		username, password := credentials(cmd)
		sess, err := signIn(ctx, a, username, password)
		if err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Signed in as %s (%s)\n\n", sess.User.Username, sess.User.Role)

		if sess.User.Role == models.RoleStudent {
			book, err := a.Student.Dashboard(ctx, sess)
			if err != nil {
				return err
			}
			printGradebook(out, book)
			return nil
		}

		if studentID, _ := cmd.Flags().GetInt64("student"); studentID > 0 {
			book, err := a.Teacher.StudentGradebook(ctx, sess, studentID)
			if err != nil {
				return err
			}
			printGradebook(out, book)
			return nil
		}
		workers, _ := cmd.Flags().GetInt("workers")
		return printRoster(ctx, out, a, sess, workers)
	},
}

func init() {
	credentialFlags(dashboardCmd)
	dashboardCmd.Flags().Int64("student", 0, "Teacher only: show this student's gradebook")
	dashboardCmd.Flags().Int("workers", 4, "Teacher only: gradebooks fetched in parallel")
}

func printGradebook(out io.Writer, book *dto.Gradebook) {
	fmt.Fprintf(out, "%-4s  %-36s  %-16s  %-10s  %-8s  %s\n", "#", "Assignment", "Due", "Status", "Score", "Weight")
	fmt.Fprintln(out, strings.Repeat("─", 90))
	for i, item := range book.Items {
		status := string(item.Status)
		if item.Overdue {
			status += "!"
		}
		fmt.Fprintf(out, "%-4d  %-36s  %-16s  %-10s  %-8s  %s\n",
			i+1,
			truncate(item.Assignment.Title, 36),
			item.Assignment.DueDate.Format("2006-01-02 15:04"),
			status,
			scoreLabel(item.Score, item.Assignment.MaxScore),
			weightLabel(item.Assignment.Weight),
		)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Pending %d, submitted %d, graded %d, overdue %d\n",
		book.Counts.Pending, book.Counts.Submitted, book.Counts.Graded, book.Counts.Overdue)
	fmt.Fprintf(out, "Weighted score: %s\n", percentLabel(book.WeightedPercentage))
}

type rosterLine struct {
	student models.User
	book    *dto.Gradebook
}

// printRoster fetches every student's gradebook on a worker pool. A student whose
// gradebook cannot be fetched is listed with the error instead of failing the command.
func printRoster(ctx context.Context, out io.Writer, a *app.App, sess models.Session, workers int) error {
	students, err := a.Teacher.Students(ctx, sess)
	if err != nil {
		return err
	}

	lines := make([]rosterLine, len(students))
	batch := make([]jobs.Job, len(students))
	for i, st := range students {
		lines[i].student = st
		batch[i] = jobs.Job{ID: strconv.FormatInt(st.ID, 10), Type: "gradebook", Payload: i}
	}
	pool := jobs.NewPool("roster", func(ctx context.Context, job jobs.Job) error {
		idx := job.Payload.(int)
		book, err := a.Teacher.StudentGradebook(ctx, sess, lines[idx].student.ID)
		if err != nil {
			return err
		}
		lines[idx].book = book
		return nil
	}, jobs.PoolConfig{Workers: workers, MaxRetries: -1, Logger: a.Logger})
	results := pool.Run(ctx, batch)

	fmt.Fprintf(out, "%-6s  %-24s  %-5s  %-8s  %-10s  %-7s  %s\n", "ID", "Student", "Year", "Pending", "Submitted", "Graded", "Weighted")
	fmt.Fprintln(out, strings.Repeat("─", 90))
	for i, line := range lines {
		year := "-"
		if line.student.Year != nil {
			year = strconv.Itoa(*line.student.Year)
		}
		if results[i].Err != nil {
			fmt.Fprintf(out, "%-6d  %-24s  %-5s  error: %v\n", line.student.ID, truncate(line.student.Username, 24), year, results[i].Err)
			continue
		}
		c := line.book.Counts
		fmt.Fprintf(out, "%-6d  %-24s  %-5s  %-8d  %-10d  %-7d  %s\n",
			line.student.ID, truncate(line.student.Username, 24), year,
			c.Pending, c.Submitted, c.Graded, percentLabel(line.book.WeightedPercentage))
	}
	return nil
}

func scoreLabel(score *float64, max float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', -1, 64) + "/" + strconv.FormatFloat(max, 'f', -1, 64)
}

func weightLabel(w *float64) string {
	if w == nil {
		return "-"
	}
	return strconv.FormatFloat(*w, 'f', -1, 64) + "%"
}

func percentLabel(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *p)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
