package collectors

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
)

// CoverageCollector does not invoke an external process; it ingests the
// first available coverage report under the target root, preferring the
// Cobertura XML schema over the LCOV text format.
type CoverageCollector struct{}

func (c *CoverageCollector) Name() string { return "coverage" }

func (c *CoverageCollector) Probe(ctx context.Context, targetPath string) (bool, string, error) {
	return true, "", nil
}

var coverageXMLCandidates = []string{"coverage.xml", "cobertura.xml"}
var coverageLCOVCandidates = []string{"lcov.info", "coverage.lcov"}

func (c *CoverageCollector) Invoke(ctx context.Context, targetPath string, timeout time.Duration) InvocationResult {
	for _, name := range coverageXMLCandidates {
		path := filepath.Join(targetPath, name)
		if data, err := os.ReadFile(path); err == nil {
			return InvocationResult{Executed: true, Stdout: data}
		}
	}
	for _, name := range coverageLCOVCandidates {
		path := filepath.Join(targetPath, name)
		if data, err := os.ReadFile(path); err == nil {
			return InvocationResult{Executed: true, Stdout: data}
		}
	}
	return InvocationResult{Executed: false}
}

type coberturaReport struct {
	XMLName  xml.Name           `xml:"coverage"`
	Sources  coberturaSources   `xml:"sources"`
	Packages []coberturaPackage `xml:"packages>package"`
}

type coberturaSources struct {
	Source []string `xml:"source"`
}

type coberturaPackage struct {
	Classes []coberturaClass `xml:"classes>class"`
}

type coberturaClass struct {
	Filename string           `xml:"filename,attr"`
	Lines    []coberturaLine  `xml:"lines>line"`
}

type coberturaLine struct {
	Hits int `xml:"hits,attr"`
}

func (c *CoverageCollector) Parse(ctx context.Context, targetPath string, result InvocationResult, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	if !result.Executed {
		out.Diagnostics = append(out.Diagnostics, "no coverage report found")
		return out, nil
	}

	if looksLikeXML(result.Stdout) {
		return c.parseCobertura(targetPath, result.Stdout, ids)
	}
	return c.parseLCOV(targetPath, result.Stdout, ids)
}

func looksLikeXML(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<coverage"))
}

func (c *CoverageCollector) parseCobertura(targetPath string, data []byte, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	var report coberturaReport
	if err := xml.Unmarshal(data, &report); err != nil {
		out.Errors = append(out.Errors, "parse coverage xml: "+err.Error())
		return out, nil
	}

	root := targetPath
	if len(report.Sources.Source) > 0 && report.Sources.Source[0] != "" {
		root = report.Sources.Source[0]
	}

	var totalCovered, totalStatements int
	for _, pkg := range report.Packages {
		for _, cls := range pkg.Classes {
			covered, total := 0, len(cls.Lines)
			for _, l := range cls.Lines {
				if l.Hits > 0 {
					covered++
				}
			}
			if total == 0 {
				continue
			}
			component := resolveComponentPath(root, targetPath, cls.Filename)
			value := float64(covered) / float64(total)

			id, err := ids.Next(idgen.PrefixCoverage)
			if err != nil {
				out.Errors = append(out.Errors, err.Error())
				continue
			}
			rec, err := evidence.NewCoverageRecord(id, evidence.CoverageLine, component, value)
			if err != nil {
				out.Errors = append(out.Errors, err.Error())
				continue
			}
			rec.TotalStatements = &total
			rec.CoveredStatements = &covered
			out.Coverage = append(out.Coverage, rec)

			totalCovered += covered
			totalStatements += total
		}
	}

	if totalStatements > 0 {
		id, err := ids.Next(idgen.PrefixCoverage)
		if err == nil {
			overall, err := evidence.NewCoverageRecord(id, evidence.CoverageLine, evidence.OverallComponent, float64(totalCovered)/float64(totalStatements))
			if err == nil {
				overall.TotalStatements = &totalStatements
				overall.CoveredStatements = &totalCovered
				out.Coverage = append(out.Coverage, overall)
			}
		}
	}
	return out, nil
}

func resolveComponentPath(sourceRoot, targetPath, filename string) string {
	if filepath.IsAbs(filename) {
		if rel, err := filepath.Rel(targetPath, filename); err == nil {
			return filepath.ToSlash(rel)
		}
		return filepath.ToSlash(filename)
	}
	// treat as relative to sourceRoot when distinct from targetPath, else as-is.
	if sourceRoot != "" && sourceRoot != targetPath {
		full := filepath.Join(sourceRoot, filename)
		if rel, err := filepath.Rel(targetPath, full); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filename)
}

func (c *CoverageCollector) parseLCOV(targetPath string, data []byte, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	scanner := bufio.NewScanner(bytes.NewReader(data))

	var currentFile string
	covered, total := 0, 0
	var totalCovered, totalStatements int

	flush := func() {
		if currentFile == "" || total == 0 {
			return
		}
		component := resolveComponentPath("", targetPath, currentFile)
		id, err := ids.Next(idgen.PrefixCoverage)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			return
		}
		rec, err := evidence.NewCoverageRecord(id, evidence.CoverageLine, component, float64(covered)/float64(total))
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			return
		}
		c2, t2 := covered, total
		rec.CoveredStatements = &c2
		rec.TotalStatements = &t2
		out.Coverage = append(out.Coverage, rec)
		totalCovered += covered
		totalStatements += total
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "SF:"):
			flush()
			currentFile = strings.TrimPrefix(line, "SF:")
			covered, total = 0, 0
		case strings.HasPrefix(line, "DA:"):
			parts := strings.Split(strings.TrimPrefix(line, "DA:"), ",")
			if len(parts) != 2 {
				continue
			}
			hits, err := strconv.Atoi(parts[1])
			if err != nil {
				continue
			}
			total++
			if hits > 0 {
				covered++
			}
		case line == "end_of_record":
			flush()
			currentFile = ""
		}
	}
	flush()

	if totalStatements > 0 {
		id, err := ids.Next(idgen.PrefixCoverage)
		if err == nil {
			overall, err := evidence.NewCoverageRecord(id, evidence.CoverageLine, evidence.OverallComponent, float64(totalCovered)/float64(totalStatements))
			if err == nil {
				overall.TotalStatements = &totalStatements
				overall.CoveredStatements = &totalCovered
				out.Coverage = append(out.Coverage, overall)
			}
		}
	}
	return out, nil
}
