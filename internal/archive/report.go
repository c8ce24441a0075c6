package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/orchestrator"
)

const reportsPrefix = "reports/"

// Report is the archived record of one batch run
type Report struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Summary    orchestrator.Summary   `json:"summary"`
	Results    []core.FundFetchResult `json:"results"`
}

// ReportPath places a report under its start date
func ReportPath(r Report) string {
	return path.Join(reportsPrefix, r.StartedAt.UTC().Format("2006/01/02"), r.RunID+".json")
}

// Reports reads and writes batch reports on a Storage backend
type Reports struct {
	storage Storage
}

// NewReports wraps a storage backend
func NewReports(s Storage) *Reports {
	return &Reports{storage: s}
}

// Save archives a report and returns its path. An existing report for the
// same run is never overwritten.
func (a *Reports) Save(ctx context.Context, r Report) (string, error) {
	p := ReportPath(r)
	exists, err := a.storage.Exists(ctx, p)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("report %s already archived", r.RunID)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := a.storage.Write(ctx, p, data); err != nil {
		return "", err
	}
	return p, nil
}

// RunIDs lists archived run identifiers, oldest first
func (a *Reports) RunIDs(ctx context.Context) ([]string, error) {
	paths, err := a.storage.List(ctx, reportsPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") {
			ids = append(ids, strings.TrimSuffix(path.Base(p), ".json"))
		}
	}
	return ids, nil
}

// Load finds a report by run ID
func (a *Reports) Load(ctx context.Context, runID string) (*Report, error) {
	paths, err := a.storage.List(ctx, reportsPrefix)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if path.Base(p) != runID+".json" {
			continue
		}
		data, err := a.storage.Read(ctx, p)
		if err != nil {
			return nil, err
		}
		var r Report
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decoding report %s: %w", runID, err)
		}
		return &r, nil
	}
	return nil, fmt.Errorf("report %s not found", runID)
}
