package collectors

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
)

// StyleLintCollector invokes a ruff-style linter in its default,
// human-readable format and parses "path:line:col: CODE message" lines.
type StyleLintCollector struct {
	// Bin overrides the binary name; defaults to "ruff".
	Bin string
}

var styleLineRe = regexp.MustCompile(`^(?P<file>[^:]+):(?P<line>\d+):(?P<col>\d+):\s*(?P<code>[A-Z][A-Z0-9]*)\s+(?P<msg>.+)$`)

func (c *StyleLintCollector) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "ruff"
}

func (c *StyleLintCollector) Name() string { return "style_lint" }

func (c *StyleLintCollector) Probe(ctx context.Context, targetPath string) (bool, string, error) {
	return probeVersion(ctx, c.bin(), "--version", os.Getenv("PATH"))
}

func (c *StyleLintCollector) Invoke(ctx context.Context, targetPath string, timeout time.Duration) InvocationResult {
	return runCommand(ctx, c.bin(), []string{"check", "."}, targetPath, timeout, os.Getenv("PATH"))
}

func (c *StyleLintCollector) Parse(ctx context.Context, targetPath string, result InvocationResult, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	if result.Err != nil {
		out.Errors = append(out.Errors, "style lint invocation failed: "+result.Err.Error())
		return out, nil
	}
	// exit 0 = clean, 1 = findings present (still parse), other = tool error.
	if result.ExitCode != nil && *result.ExitCode > 1 {
		out.Errors = append(out.Errors, "style lint exited with unexpected code")
		return out, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(result.Stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := styleLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		file, lineNo, col, code, msg := m[1], m[2], m[3], m[4], m[5]
		id, err := ids.Next(idgen.PrefixFinding)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		rec, err := evidence.NewFindingRecord(id, c.Name(), evidence.SeverityWarning, msg)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		rec.Code = code
		rec.File = file
		rec.Tags = []string{"lint"}
		if n, err := strconv.Atoi(lineNo); err == nil {
			rec.Line = &n
		}
		if n, err := strconv.Atoi(col); err == nil {
			rec.Column = &n
		}
		out.Findings = append(out.Findings, rec)
	}
	return out, nil
}
