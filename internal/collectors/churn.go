package collectors

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/idgen"
)

// ChurnCollector requires a .git directory; it queries the commit log
// over a time window and aggregates per-file commits, lines changed,
// unique contributors, and the most recent commit timestamp.
type ChurnCollector struct {
	// Window is the lookback period; defaults to 90 days.
	Window time.Duration
}

const commitRecordMarker = "@@COMMIT@@"

func (c *ChurnCollector) window() time.Duration {
	if c.Window > 0 {
		return c.Window
	}
	return 90 * 24 * time.Hour
}

func (c *ChurnCollector) Name() string { return "vcs_churn" }

func (c *ChurnCollector) Probe(ctx context.Context, targetPath string) (bool, string, error) {
	if _, err := os.Stat(filepath.Join(targetPath, ".git")); err != nil {
		return false, "", nil
	}
	return probeVersion(ctx, "git", "--version", os.Getenv("PATH"))
}

func (c *ChurnCollector) Invoke(ctx context.Context, targetPath string, timeout time.Duration) InvocationResult {
	since := time.Now().UTC().Add(-c.window()).Format("2006-01-02")
	args := []string{
		"log",
		"--since=" + since,
		"--numstat",
		"--no-merges",
		"--pretty=format:" + commitRecordMarker + "|%H|%an|%at",
	}
	return runCommand(ctx, "git", args, targetPath, timeout, os.Getenv("PATH"))
}

type churnAccumulator struct {
	commits      map[string]bool
	linesAdded   int
	linesDeleted int
	contributors map[string]bool
	lastCommitAt time.Time
}

func (c *ChurnCollector) Parse(ctx context.Context, targetPath string, result InvocationResult, ids *idgen.Generator) (ParsedEvidence, error) {
	out := ParsedEvidence{}
	if !result.Executed {
		out.Diagnostics = append(out.Diagnostics, "target is not a git repository")
		return out, nil
	}
	if result.Err != nil {
		out.Errors = append(out.Errors, "git log invocation failed: "+result.Err.Error())
		return out, nil
	}

	byPath := map[string]*churnAccumulator{}
	var curHash, curAuthor string
	var curTime time.Time

	scanner := bufio.NewScanner(bytes.NewReader(result.Stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, commitRecordMarker+"|") {
			fields := strings.SplitN(line, "|", 4)
			if len(fields) != 4 {
				continue
			}
			curHash, curAuthor = fields[1], fields[2]
			if ts, err := strconv.ParseInt(fields[3], 10, 64); err == nil {
				curTime = time.Unix(ts, 0).UTC()
			}
			continue
		}
		if strings.TrimSpace(line) == "" || curHash == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		addedStr, deletedStr, path := parts[0], parts[1], parts[2]
		if addedStr == "-" || deletedStr == "-" {
			continue // binary file, skipped per the collector's spec
		}
		if path == "" || strings.HasSuffix(path, "/") {
			continue
		}
		added, err1 := strconv.Atoi(addedStr)
		deleted, err2 := strconv.Atoi(deletedStr)
		if err1 != nil || err2 != nil {
			continue
		}

		acc, ok := byPath[path]
		if !ok {
			acc = &churnAccumulator{commits: map[string]bool{}, contributors: map[string]bool{}}
			byPath[path] = acc
		}
		acc.commits[curHash] = true
		acc.linesAdded += added
		acc.linesDeleted += deleted
		acc.contributors[curAuthor] = true
		if curTime.After(acc.lastCommitAt) {
			acc.lastCommitAt = curTime
		}
	}

	windowLabel := c.window().String()
	for path, acc := range byPath {
		id, err := ids.Next(idgen.PrefixChurn)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		rec, err := evidence.NewChurnRecord(id, path, windowLabel)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		rec.Commits = len(acc.commits)
		rec.LinesAdded = acc.linesAdded
		rec.LinesDeleted = acc.linesDeleted
		rec.Contributors = len(acc.contributors)
		rec.LastCommitAt = acc.lastCommitAt
		out.Churn = append(out.Churn, rec)
	}
	return out, nil
}
