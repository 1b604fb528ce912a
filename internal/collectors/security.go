package collectors

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
)

// SecurityCollector invokes a bandit-style static security scanner in
// its JSON output mode, recursively over the target by default.
type SecurityCollector struct {
	Bin string
}

type securityReport struct {
	Results []securityFinding `json:"results"`
}

type securityFinding struct {
	Filename         string          `json:"filename"`
	LineNumber       int             `json:"line_number"`
	IssueSeverity    string          `json:"issue_severity"`
	IssueConfidence  string          `json:"issue_confidence"`
	IssueText        string          `json:"issue_text"`
	TestID           string          `json:"test_id"`
	IssueCWE         *securityCWE    `json:"issue_cwe,omitempty"`
}

type securityCWE struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

func (c *SecurityCollector) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "bandit"
}

func (c *SecurityCollector) Name() string { return "security_scan" }

// UsesJSONArtifact reports that the captured output is already JSON
// (bandit's -f json), so it is archived as security_scan.json.
func (c *SecurityCollector) UsesJSONArtifact() bool { return true }

func (c *SecurityCollector) Probe(ctx context.Context, targetPath string) (bool, string, error) {
	return probeVersion(ctx, c.bin(), "--version", os.Getenv("PATH"))
}

func (c *SecurityCollector) Invoke(ctx context.Context, targetPath string, timeout time.Duration) InvocationResult {
	return runCommand(ctx, c.bin(), []string{"-r", "-f", "json", "."}, targetPath, timeout, os.Getenv("PATH"))
}

func (c *SecurityCollector) Parse(ctx context.Context, targetPath string, result InvocationResult, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	if result.Err != nil {
		out.Errors = append(out.Errors, "security scan invocation failed: "+result.Err.Error())
		return out, nil
	}
	if len(result.Stdout) == 0 {
		return out, nil
	}
	var report securityReport
	if err := json.Unmarshal(result.Stdout, &report); err != nil {
		out.Errors = append(out.Errors, "parse security scan json: "+err.Error())
		return out, nil
	}

	for _, f := range report.Results {
		id, err := ids.Next(idgen.PrefixFinding)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		sev, conf := securitySeverity(f.IssueSeverity)
		rec, err := evidence.NewFindingRecord(id, c.Name(), sev, f.IssueText)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		rec.Code = f.TestID
		rec.File = f.Filename
		line := f.LineNumber
		rec.Line = &line
		rec.Tags = []string{"security"}
		rec.Confidence = &conf
		if f.IssueCWE != nil {
			rec.Metadata["cwe_id"] = f.IssueCWE.ID
			rec.Metadata["cwe_link"] = f.IssueCWE.Link
		}
		out.Findings = append(out.Findings, rec)
	}
	return out, nil
}

func securitySeverity(raw string) (evidence.Severity, float64) {
	switch strings.ToLower(raw) {
	case "high":
		return evidence.SeverityHigh, 0.9
	case "medium":
		return evidence.SeverityWarning, 0.6
	default: // low
		return evidence.SeverityInfo, 0.3
	}
}
