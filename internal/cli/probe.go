package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-gradebook/internal/fallback"
	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/transport"
	"github.com/noah-isme/sma-gradebook/pkg/jobs"
)

// probeTarget is one grade service endpoint whose payload must keep the shape the
// fallback fixtures are built on.
type probeTarget struct {
	name    string
	request transport.Request
	shape   string
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check live grade service responses against the fallback shapes",
	Long: "probe calls the grade service directly, with fallback disabled, and validates every " +
		"payload against the JSON schema its fallback fixture is checked with. It exits non-zero " +
		"when an endpoint is unreachable or has drifted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		l, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer l.Sync() //nolint:errcheck

		targets := probeTargets(cmd)
		if len(targets) == 0 {
			return fmt.Errorf("nothing to probe: pass --username/--password, --student-id or --teacher-id")
		}

		d := transport.NewDispatcher(transport.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
		}, nil, nil, l.Named("probe"))

		batch := make([]jobs.Job, len(targets))
		for i, tgt := range targets {
			batch[i] = jobs.Job{ID: tgt.name, Type: tgt.shape, Payload: tgt}
		}
		workers, _ := cmd.Flags().GetInt("workers")
		retries, _ := cmd.Flags().GetInt("retries")
		if retries == 0 {
			retries = -1
		}
		pool := jobs.NewPool("probe", func(ctx context.Context, job jobs.Job) error {
			tgt := job.Payload.(probeTarget)
			resp, err := d.Send(ctx, tgt.request)
			if err != nil {
				return err
			}
			return fallback.ValidateShape(tgt.shape, resp.Body)
		}, jobs.PoolConfig{Workers: workers, MaxRetries: retries, RetryDelay: 500 * time.Millisecond, Logger: l})

		results := pool.Run(cmd.Context(), batch)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-32s  %-16s  %-5s  %-8s  %s\n", "Endpoint", "Shape", "OK", "Ms", "Detail")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		failed := 0
		for _, res := range results {
			ok, detail := "✓", ""
			if res.Err != nil {
				ok, detail = "✗", res.Err.Error()
				failed++
			}
			fmt.Fprintf(out, "%-32s  %-16s  %-5s  %-8d  %s\n",
				res.Job.ID, res.Job.Type, ok, res.Duration.Milliseconds(), detail)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d probes failed", failed, len(results))
		}
		fmt.Fprintf(out, "\nAll %d probes passed against %s\n", len(results), cfg.Backend.BaseURL)
		return nil
	},
}

func init() {
	probeCmd.Flags().StringP("username", "u", "", "Probe auth/login with this account")
	probeCmd.Flags().StringP("password", "p", "", "Password for --username")
	probeCmd.Flags().Int64("student-id", 0, "Probe the student endpoints as this student")
	probeCmd.Flags().Int64("teacher-id", 0, "Probe the teacher endpoints as this teacher")
	probeCmd.Flags().Int("workers", 4, "Endpoints probed in parallel")
	probeCmd.Flags().Int("retries", 1, "Retries per endpoint (0 disables)")
}

func probeTargets(cmd *cobra.Command) []probeTarget {
	var targets []probeTarget

	if username, password := credentials(cmd); username != "" {
		targets = append(targets, probeTarget{
			name: "auth/login",
			request: transport.Request{
				Method: http.MethodPost,
				Path:   "auth/login",
				Body:   models.LoginRequest{Username: username, Password: password},
			},
			shape: fallback.ShapeUser,
		})
	}

	studentID, _ := cmd.Flags().GetInt64("student-id")
	if studentID > 0 {
		targets = append(targets, probeTarget{
			name: "student/assignments",
			request: transport.Request{
				Method: http.MethodGet,
				Path:   "student/assignments",
				Query:  url.Values{"student_id": {strconv.FormatInt(studentID, 10)}},
			},
			shape: fallback.ShapeSubmissions,
		})
	}

	if teacherID, _ := cmd.Flags().GetInt64("teacher-id"); teacherID > 0 {
		query := url.Values{"teacher_id": {strconv.FormatInt(teacherID, 10)}}
		targets = append(targets, probeTarget{
			name:    "teacher/students",
			request: transport.Request{Method: http.MethodGet, Path: "teacher/students", Query: query},
			shape:   fallback.ShapeUserList,
		})
		if studentID > 0 {
			path := fmt.Sprintf("teacher/students/%d/submissions", studentID)
			targets = append(targets, probeTarget{
				name:    path,
				request: transport.Request{Method: http.MethodGet, Path: path, Query: query},
				shape:   fallback.ShapeSubmissions,
			})
		}
	}
	return targets
}
