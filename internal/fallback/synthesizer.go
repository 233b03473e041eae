// Package fallback fabricates grade service responses while the service is unreachable.
// Every response is pre-rendered from fixed fixtures, so identical calls always get
// identical bytes.
package fallback

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/noah-isme/sma-gradebook/internal/grading"
	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/transport"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/export"
)

// Rule names reported by Match.
const (
	RuleLogin              = "login"
	RuleStudentSubmissions = "teacher_student_submissions"
	RuleTeacherStudents    = "teacher_students"
	RuleStudentAssignments = "student_assignments"
	RuleStudentExport      = "student_export_pdf"
	RuleRead               = "read"
	RuleWrite              = "write"
)

// ReportFilename is the attachment name of the synthesized grade report.
var ReportFilename = "grades_" + StudentIdentity.Username + ".pdf"

type rule struct {
	name    string
	pattern *regexp.Regexp
	// readOnly restricts the rule to GET, HEAD and OPTIONS.
	readOnly bool
}

// Order matters: the per-student submissions path must be tried before the broader
// students path it would otherwise fall under. The students rule answers every method,
// so a write under teacher/students gets the roster rather than an acknowledgement; the
// grade service's own mock data behaves the same way.
var rules = []rule{
	{name: RuleLogin, pattern: regexp.MustCompile(`(^|/)auth/login$`)},
	{name: RuleStudentSubmissions, pattern: regexp.MustCompile(`(^|/)teacher/students/[^/]+/submissions$`)},
	{name: RuleTeacherStudents, pattern: regexp.MustCompile(`(^|/)teacher/students(/|$)`)},
	{name: RuleStudentAssignments, pattern: regexp.MustCompile(`(^|/)student/assignments$`)},
	{name: RuleStudentExport, pattern: regexp.MustCompile(`(^|/)student/export/pdf$`), readOnly: true},
}

type payload struct {
	body        []byte
	contentType string
	disposition string
}

// Synthesizer answers failed calls with canned data. It holds no mutable state and is
// safe for concurrent use.
type Synthesizer struct {
	writePolicy string
	teacher     payload
	student     payload
	students    payload
	submissions payload
	report      payload
	emptyList   payload
	ack         payload
}

// NewSynthesizer renders and validates every fixture. writePolicy decides what unmatched
// writes get: an acknowledgement or nothing.
func NewSynthesizer(writePolicy string) (*Synthesizer, error) {
	s := &Synthesizer{writePolicy: writePolicy}

	var err error
	if s.teacher, err = jsonPayload(ShapeUser, TeacherIdentity); err != nil {
		return nil, err
	}
	if s.student, err = jsonPayload(ShapeUser, StudentIdentity); err != nil {
		return nil, err
	}
	if s.students, err = jsonPayload(ShapeUserList, students()); err != nil {
		return nil, err
	}
	if s.submissions, err = jsonPayload(ShapeSubmissions, submissions()); err != nil {
		return nil, err
	}
	if s.ack, err = jsonPayload(ShapeAck, map[string]string{"message": "ok"}); err != nil {
		return nil, err
	}
	s.emptyList = payload{body: []byte("[]"), contentType: "application/json"}

	if s.report, err = renderReport(s.submissions.body); err != nil {
		return nil, err
	}
	return s, nil
}

func jsonPayload(shape string, v interface{}) (payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return payload{}, fmt.Errorf("render %s fixture: %w", shape, err)
	}
	if err := ValidateShape(shape, raw); err != nil {
		return payload{}, fmt.Errorf("%s fixture: %w", shape, err)
	}
	return payload{body: raw, contentType: "application/json"}, nil
}

// renderReport prints the submissions fixture the way the grade service prints its report.
func renderReport(fixture []byte) (payload, error) {
	views, err := models.DecodeSubmissions(fixture)
	if err != nil {
		return payload{}, fmt.Errorf("decode submissions fixture: %w", err)
	}
	exporter := &export.PDFExporter{CreatedAt: reportDate, ColumnWidths: grading.ReportColumnWidths}
	pdf, err := exporter.Render(grading.ReportDataset(views), grading.ReportTitle(StudentIdentity))
	if err != nil {
		return payload{}, fmt.Errorf("render report fixture: %w", err)
	}
	return payload{
		body:        pdf,
		contentType: "application/pdf",
		disposition: fmt.Sprintf("attachment; filename=%s", ReportFilename),
	}, nil
}

// Match returns the name of the rule that applies to method and path, or "" when an
// unmatched write would be rejected.
func (s *Synthesizer) Match(method, path string) string {
	method = strings.ToUpper(method)
	p := normalizePath(path)
	for _, r := range rules {
		if r.readOnly && !transport.IsRead(method) {
			continue
		}
		if r.pattern.MatchString(p) {
			return r.name
		}
	}
	if transport.IsRead(method) {
		return RuleRead
	}
	if s.writePolicy == config.FallbackWriteReject {
		return ""
	}
	return RuleWrite
}

// Synthesize implements transport.Synthesizer.
func (s *Synthesizer) Synthesize(method, path string, body interface{}) *transport.Response {
	switch s.Match(method, path) {
	case RuleLogin:
		if strings.Contains(strings.ToLower(usernameOf(ParseBody(body))), "student") {
			return s.respond(s.student, false)
		}
		return s.respond(s.teacher, false)
	case RuleStudentSubmissions, RuleStudentAssignments:
		return s.respond(s.submissions, false)
	case RuleTeacherStudents:
		return s.respond(s.students, false)
	case RuleStudentExport:
		return s.respond(s.report, false)
	case RuleRead:
		return s.respond(s.emptyList, false)
	case RuleWrite:
		return s.respond(s.ack, true)
	}
	return nil
}

func (s *Synthesizer) respond(p payload, degraded bool) *transport.Response {
	header := http.Header{}
	header.Set("Content-Type", p.contentType)
	if p.disposition != "" {
		header.Set("Content-Disposition", p.disposition)
	}
	body := make([]byte, len(p.body))
	copy(body, p.body)
	return &transport.Response{
		StatusCode:  http.StatusOK,
		Header:      header,
		Body:        body,
		Synthesized: true,
		Degraded:    degraded,
	}
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.Trim(path, "/")
}

// ParseBody normalises a request body into decoded JSON values. Encoded bodies are
// decoded when possible and otherwise returned as an opaque string. It never panics.
func ParseBody(body interface{}) (parsed interface{}) {
	defer func() {
		if recover() != nil {
			parsed = nil
		}
	}()

	var raw []byte
	switch b := body.(type) {
	case nil:
		return nil
	case []byte:
		raw = b
	case json.RawMessage:
		raw = b
	case string:
		raw = []byte(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return body
		}
		raw = encoded
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return string(raw)
	}
	return parsed
}

func usernameOf(parsed interface{}) string {
	m, ok := parsed.(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := m["username"].(string)
	return name
}
