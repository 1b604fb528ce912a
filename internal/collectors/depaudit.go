package collectors

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
)

// DependencyAuditCollector discovers every supported requirements
// manifest in the target and invokes the auditor once per manifest,
// packing the per-manifest raw reports into one combined artifact
// (distinguished by a "manifest" key per entry) rather than one artifact
// file per manifest, to keep the Collector contract's single Invoke call
// simple; each entry is independently attributable on read.
type DependencyAuditCollector struct {
	Bin string
}

var manifestGlobs = []string{"requirements.txt", "requirements-*.txt", "Pipfile.lock"}

type depManifestReport struct {
	Manifest string          `json:"manifest"`
	Raw      json.RawMessage `json:"raw"`
}

type depAuditReport struct {
	Dependencies []depAuditDependency `json:"dependencies"`
}

type depAuditDependency struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Vulns   []depAuditVuln  `json:"vulns"`
}

type depAuditVuln struct {
	ID          string   `json:"id"`
	FixVersions []string `json:"fix_versions"`
	Description string   `json:"description"`
}

func (c *DependencyAuditCollector) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "pip-audit"
}

func (c *DependencyAuditCollector) Name() string { return "dependency_audit" }

// UsesJSONArtifact reports that the captured output is already JSON (the
// combined per-manifest pip-audit -f json reports), so it is archived as
// dependency_audit.json.
func (c *DependencyAuditCollector) UsesJSONArtifact() bool { return true }

func (c *DependencyAuditCollector) Probe(ctx context.Context, targetPath string) (bool, string, error) {
	return probeVersion(ctx, c.bin(), "--version", os.Getenv("PATH"))
}

func discoverManifests(targetPath string) []string {
	var found []string
	for _, pattern := range manifestGlobs {
		matches, _ := filepath.Glob(filepath.Join(targetPath, pattern))
		found = append(found, matches...)
	}
	return found
}

func (c *DependencyAuditCollector) Invoke(ctx context.Context, targetPath string, timeout time.Duration) InvocationResult {
	manifests := discoverManifests(targetPath)
	if len(manifests) == 0 {
		return InvocationResult{Executed: false, Err: nil}
	}

	var reports []depManifestReport
	anyOK := false
	var lastErr error
	for _, manifest := range manifests {
		rel, err := filepath.Rel(targetPath, manifest)
		if err != nil {
			rel = manifest
		}
		inv := runCommand(ctx, c.bin(), []string{"-r", manifest, "-f", "json"}, targetPath, timeout, os.Getenv("PATH"))
		if inv.Err != nil {
			lastErr = inv.Err
			continue
		}
		anyOK = true
		reports = append(reports, depManifestReport{Manifest: rel, Raw: json.RawMessage(inv.Stdout)})
	}

	combined, _ := json.Marshal(reports)
	code := 0
	return InvocationResult{
		Executed: anyOK,
		ExitCode: &code,
		Stdout:   combined,
		Err: func() error {
			if !anyOK {
				return lastErr
			}
			return nil
		}(),
	}
}

func (c *DependencyAuditCollector) Parse(ctx context.Context, targetPath string, result InvocationResult, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	if !result.Executed {
		out.Diagnostics = append(out.Diagnostics, "no supported dependency manifest found")
		return out, nil
	}
	if result.Err != nil {
		out.Errors = append(out.Errors, "dependency audit invocation failed: "+result.Err.Error())
	}

	var manifestReports []depManifestReport
	if len(result.Stdout) > 0 {
		if err := json.Unmarshal(result.Stdout, &manifestReports); err != nil {
			out.Errors = append(out.Errors, "parse dependency audit combined report: "+err.Error())
			return out, nil
		}
	}

	for _, mr := range manifestReports {
		if len(mr.Raw) == 0 {
			continue
		}
		var report depAuditReport
		if err := json.Unmarshal(mr.Raw, &report); err != nil {
			out.Errors = append(out.Errors, "parse dependency audit report for "+mr.Manifest+": "+err.Error())
			continue
		}
		for _, dep := range report.Dependencies {
			for _, vuln := range dep.Vulns {
				id, err := ids.Next(idgen.PrefixFinding)
				if err != nil {
					out.Errors = append(out.Errors, err.Error())
					continue
				}
				sev := evidence.SeverityHigh
				if len(vuln.FixVersions) > 0 {
					sev = evidence.SeverityCritical
				}
				msg := dep.Name + " " + dep.Version + ": " + vuln.ID
				if vuln.Description != "" {
					msg = msg + " - " + vuln.Description
				}
				rec, err := evidence.NewFindingRecord(id, c.Name(), sev, msg)
				if err != nil {
					out.Errors = append(out.Errors, err.Error())
					continue
				}
				rec.Code = vuln.ID
				rec.File = mr.Manifest
				rec.Tags = []string{"dependency"}
				rec.Metadata["package"] = dep.Name
				rec.Metadata["version"] = dep.Version
				rec.Metadata["fix_versions"] = vuln.FixVersions
				out.Findings = append(out.Findings, rec)
			}
		}
	}
	return out, nil
}
