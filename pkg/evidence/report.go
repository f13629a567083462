package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Session outcomes.
const (
	OutcomePassed      = "passed"
	OutcomeFailed      = "failed"
	OutcomeSetupFailed = "setup_failed"
)

// SessionRecord is one browser session of a run.
type SessionRecord struct {
	ID         string        `json:"id"`
	Descriptor string        `json:"descriptor"`
	Test       string        `json:"test,omitempty"`
	Outcome    string        `json:"outcome"`
	Error      string        `json:"error,omitempty"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
	TracePath  string        `json:"trace_path,omitempty"`
	VideoPath  string        `json:"video_path,omitempty"`

	// TeardownFailures lists teardown steps that failed as "step: error".
	TeardownFailures []string `json:"teardown_failures,omitempty"`
}

// RunSummary is the report of one CLI run.
type RunSummary struct {
	RunID       string          `json:"run_id"`
	Environment string          `json:"environment"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Duration    time.Duration   `json:"duration"`
	Sessions    []SessionRecord `json:"sessions"`
}

// Failed counts sessions that did not pass.
func (s *RunSummary) Failed() int {
	n := 0
	for _, rec := range s.Sessions {
		if rec.Outcome != OutcomePassed {
			n++
		}
	}
	return n
}

// ReportWriter writes run reports into the reports directory.
type ReportWriter struct {
	outputDir string
}

// NewReportWriter creates a report writer for dir.
func NewReportWriter(outputDir string) *ReportWriter {
	return &ReportWriter{outputDir: outputDir}
}

// WriteAll writes run_<ts>.json and summary_<ts>.md and returns their paths.
func (w *ReportWriter) WriteAll(summary *RunSummary) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", "", &DirectoryError{Path: w.outputDir, Err: err}
	}

	stamp := summary.StartTime.Format(traceTimeLayout)

	jsonPath = filepath.Join(w.outputDir, fmt.Sprintf("run_%s.json", stamp))
	if err := w.writeJSON(jsonPath, summary); err != nil {
		return "", "", fmt.Errorf("failed to write run JSON: %w", err)
	}

	mdPath = filepath.Join(w.outputDir, fmt.Sprintf("summary_%s.md", stamp))
	if err := w.writeMarkdown(mdPath, summary); err != nil {
		return "", "", fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return jsonPath, mdPath, nil
}

func (w *ReportWriter) writeJSON(path string, summary *RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (w *ReportWriter) writeMarkdown(path string, summary *RunSummary) error {
	var md strings.Builder

	md.WriteString("# UI Test Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Environment:** %s\n\n", summary.Environment))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Millisecond)))

	md.WriteString("## Result\n\n")
	if failed := summary.Failed(); failed > 0 {
		md.WriteString(fmt.Sprintf("❌ **%d of %d sessions failed**\n\n", failed, len(summary.Sessions)))
	} else {
		md.WriteString(fmt.Sprintf("✅ **All %d sessions passed**\n\n", len(summary.Sessions)))
	}

	md.WriteString("## Sessions\n\n")
	md.WriteString("| Descriptor | Test | Outcome | Duration | Trace | Video |\n")
	md.WriteString("|---|---|---|---|---|---|\n")
	for _, rec := range summary.Sessions {
		md.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			rec.Descriptor, rec.Test, rec.Outcome, rec.Duration.Round(time.Millisecond),
			filepath.Base(orDash(rec.TracePath)), filepath.Base(orDash(rec.VideoPath))))
	}
	md.WriteString("\n")

	var problems []SessionRecord
	for _, rec := range summary.Sessions {
		if rec.Error != "" || len(rec.TeardownFailures) > 0 {
			problems = append(problems, rec)
		}
	}
	if len(problems) > 0 {
		md.WriteString("## Problems\n\n")
		for _, rec := range problems {
			md.WriteString(fmt.Sprintf("### %s\n\n", rec.Descriptor))
			if rec.Error != "" {
				md.WriteString(fmt.Sprintf("- Error: %s\n", rec.Error))
			}
			for _, f := range rec.TeardownFailures {
				md.WriteString(fmt.Sprintf("- Teardown: %s\n", f))
			}
			md.WriteString("\n")
		}
	}

	return os.WriteFile(path, []byte(md.String()), 0o644)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
