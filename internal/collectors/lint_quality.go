package collectors

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
)

// QualityLintCollector invokes a pylint-style linter in its JSON output
// mode and maps each record to a finding, preserving symbol and
// confidence where the tool reports them.
type QualityLintCollector struct {
	Bin string
}

type qualityLintMessage struct {
	Type       string  `json:"type"`
	Module     string  `json:"module"`
	Symbol     string  `json:"symbol"`
	MessageID  string  `json:"message-id"`
	Message    string  `json:"message"`
	Path       string  `json:"path"`
	Line       int     `json:"line"`
	Column     int     `json:"column"`
	Confidence string  `json:"confidence"`
	Score      float64 `json:"score"`
}

const qualityFindingsExitCode = 32

func (c *QualityLintCollector) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "pylint"
}

func (c *QualityLintCollector) Name() string { return "quality_lint" }

// UsesJSONArtifact reports that the captured output is already JSON
// (pylint's --output-format=json), so it is archived as quality_lint.json.
func (c *QualityLintCollector) UsesJSONArtifact() bool { return true }

func (c *QualityLintCollector) Probe(ctx context.Context, targetPath string) (bool, string, error) {
	return probeVersion(ctx, c.bin(), "--version", os.Getenv("PATH"))
}

func (c *QualityLintCollector) Invoke(ctx context.Context, targetPath string, timeout time.Duration) InvocationResult {
	return runCommand(ctx, c.bin(), []string{"--output-format=json", "."}, targetPath, timeout, os.Getenv("PATH"))
}

func (c *QualityLintCollector) Parse(ctx context.Context, targetPath string, result InvocationResult, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	if result.Err != nil {
		out.Errors = append(out.Errors, "quality lint invocation failed: "+result.Err.Error())
		return out, nil
	}
	if result.ExitCode != nil && *result.ExitCode != 0 && *result.ExitCode != qualityFindingsExitCode {
		// bits set beyond the "findings present" bit indicate a real tool error,
		// but we still attempt to parse whatever JSON was emitted.
		out.Errors = append(out.Errors, "quality lint exited with an unexpected code")
	}

	var messages []qualityLintMessage
	if len(result.Stdout) > 0 {
		if err := json.Unmarshal(result.Stdout, &messages); err != nil {
			out.Errors = append(out.Errors, "parse quality lint json: "+err.Error())
			return out, nil
		}
	}

	for _, m := range messages {
		id, err := ids.Next(idgen.PrefixFinding)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		rec, err := evidence.NewFindingRecord(id, c.Name(), qualitySeverity(m.Type), m.Message)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		rec.Code = m.MessageID
		rec.File = m.Path
		line, col := m.Line, m.Column
		rec.Line = &line
		rec.Column = &col
		rec.Tags = []string{"lint", m.Symbol}
		if m.Confidence != "" {
			conf := confidenceFromLabel(m.Confidence)
			rec.Confidence = &conf
		}
		rec.Metadata["symbol"] = m.Symbol
		out.Findings = append(out.Findings, rec)
	}
	return out, nil
}

func qualitySeverity(typ string) evidence.Severity {
	switch typ {
	case "error":
		return evidence.SeverityHigh
	case "fatal":
		return evidence.SeverityCritical
	case "warning":
		return evidence.SeverityWarning
	default: // convention, refactor
		return evidence.SeverityInfo
	}
}

func confidenceFromLabel(label string) float64 {
	switch label {
	case "HIGH":
		return 0.9
	case "INFERENCE":
		return 0.6
	case "INFERENCE_FAILURE":
		return 0.3
	default:
		return 0.5
	}
}
