package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
)

// Reader loads typed evidence records from a run's JSONL files. Missing
// files yield an empty slice; malformed lines are skipped and logged,
// never fatal to the read.
type Reader struct {
	handle *runmanager.RunHandle
	log    *zap.Logger
}

// NewReader returns a Reader bound to handle. A nil logger is replaced
// with a no-op logger.
func NewReader(handle *runmanager.RunHandle, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{handle: handle, log: log}
}

func readLines(dir string, rt evidence.RecordType, log *zap.Logger, into func(line []byte) error) error {
	path := filepath.Join(dir, "evidence", rt.FileName())
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("evidence file absent, returning empty set", zap.String("path", path))
			return nil
		}
		return qaerr.Wrap(qaerr.KindIO, "open evidence file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		if err := into(cp); err != nil {
			log.Warn("skipping malformed evidence line",
				zap.String("path", path), zap.Int("line", lineNo), zap.Error(err))
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return qaerr.Wrap(qaerr.KindIO, "scan evidence file", err)
	}
	return nil
}

// Findings loads quality.jsonl.
func (r *Reader) Findings() ([]*evidence.FindingRecord, error) {
	var out []*evidence.FindingRecord
	err := readLines(r.handle.Dir(), evidence.RecordQuality, r.log, func(line []byte) error {
		var rec evidence.FindingRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}

// Coverage loads coverage.jsonl.
func (r *Reader) Coverage() ([]*evidence.CoverageRecord, error) {
	var out []*evidence.CoverageRecord
	err := readLines(r.handle.Dir(), evidence.RecordCoverage, r.log, func(line []byte) error {
		var rec evidence.CoverageRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}

// Churn loads churn.jsonl.
func (r *Reader) Churn() ([]*evidence.ChurnRecord, error) {
	var out []*evidence.ChurnRecord
	err := readLines(r.handle.Dir(), evidence.RecordChurn, r.log, func(line []byte) error {
		var rec evidence.ChurnRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}

// Risks loads risks.jsonl.
func (r *Reader) Risks() ([]*evidence.RiskRecord, error) {
	var out []*evidence.RiskRecord
	err := readLines(r.handle.Dir(), evidence.RecordRisks, r.log, func(line []byte) error {
		var rec evidence.RiskRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}

// Recommendations loads recommendations.jsonl.
func (r *Reader) Recommendations() ([]*evidence.RecommendationRecord, error) {
	var out []*evidence.RecommendationRecord
	err := readLines(r.handle.Dir(), evidence.RecordRecommendations, r.log, func(line []byte) error {
		var rec evidence.RecommendationRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}
