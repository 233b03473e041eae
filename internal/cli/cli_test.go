package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command and restores every flag afterwards, since the commands
// are package level.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// isolate points the configuration at backendURL from a scratch working directory.
func isolate(t *testing.T, backendURL string) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("BACKEND_BASE_URL", backendURL)
	t.Setenv("BACKEND_TIMEOUT", "2s")
	t.Setenv("UPLOADS_STORAGE_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REDIS_ENABLED", "false")
	return dir
}

func downBackend(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestDashboardStudentFromFallback(t *testing.T) {
	isolate(t, downBackend(t))

	out, err := run(t, "dashboard", "-u", "student42", "-p", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as mock_student (student)")
	assert.Contains(t, out, "Quiz 1: Variables and Arithmetic")
	assert.Contains(t, out, "8/10")
	assert.Contains(t, out, "Weighted score: 80.0%")
}

func TestDashboardTeacherRoster(t *testing.T) {
	isolate(t, downBackend(t))

	out, err := run(t, "dashboard", "-u", "profA", "-p", "pw", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as mock_teacher (teacher)")
	assert.Contains(t, out, "Somchai Jaidee")
	assert.Contains(t, out, "Somying Rakrian")
	assert.Equal(t, 3, strings.Count(out, "80.0%"))
}

func TestDashboardTeacherSingleStudent(t *testing.T) {
	isolate(t, downBackend(t))

	out, err := run(t, "dashboard", "-u", "profA", "-p", "pw", "--student", "101")
	require.NoError(t, err)
	assert.Contains(t, out, "Lab 1: Control Flow Report")
	assert.Contains(t, out, "Weighted score: 80.0%")
}

func TestDashboardWithoutFallbackFails(t *testing.T) {
	isolate(t, downBackend(t))

	_, err := run(t, "--no-fallback", "dashboard", "-u", "student42", "-p", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in")
}

func TestDashboardRequiresCredentials(t *testing.T) {
	isolate(t, downBackend(t))

	_, err := run(t, "dashboard", "-u", "student42")
	require.Error(t, err)
}

func TestExportStudentPDF(t *testing.T) {
	dir := isolate(t, downBackend(t))
	target := filepath.Join(dir, "report.pdf")

	out, err := run(t, "export", "-u", "student42", "-p", "pw", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+target)

	body, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestExportTeacherCSV(t *testing.T) {
	dir := isolate(t, downBackend(t))

	_, err := run(t, "export", "-u", "profA", "-p", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--student")

	out, err := run(t, "export", "-u", "profA", "-p", "pw", "--student", "101")
	require.NoError(t, err)
	assert.Contains(t, out, "grades_101.csv")

	body, err := os.ReadFile(filepath.Join(dir, "grades_101.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Homework 1: Python Basics")
}

const liveSubmissions = `[{"id":7,"assignment_id":3,"student_id":5,"status":"graded","score":9,"max_score":10,
"teacher_note":null,"selected_choice":1,"assignment":{"id":3,"title":"Quiz","due_date":"2024-05-01T00:00:00",
"submission_type":"multiple_choice","choices":"[\"a\",\"b\"]","weight":50,"max_score":null}}]`

func TestProbePassesOnMatchingShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"id":5,"username":"anna","role":"student","year":2}`))
		case "/teacher/students":
			_, _ = w.Write([]byte(`[{"id":5,"username":"anna","role":"student","year":2}]`))
		default:
			_, _ = w.Write([]byte(liveSubmissions))
		}
	}))
	defer srv.Close()
	isolate(t, srv.URL)

	out, err := run(t, "probe", "-u", "anna", "-p", "pw", "--student-id", "5", "--teacher-id", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "teacher/students/5/submissions")
	assert.Contains(t, out, "All 4 probes passed")
}

func TestProbeReportsDrift(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"five","name":"anna"}]`))
	}))
	defer srv.Close()
	isolate(t, srv.URL)

	out, err := run(t, "probe", "--teacher-id", "1", "--retries", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 probes failed")
	assert.Contains(t, out, "user_list shape mismatch")
}

func TestProbeNeedsTargets(t *testing.T) {
	isolate(t, downBackend(t))

	_, err := run(t, "probe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to probe")
}
