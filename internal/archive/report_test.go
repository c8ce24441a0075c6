package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/orchestrator"
)

func sampleReport(id string, started time.Time) Report {
	results := []core.FundFetchResult{
		{Fund: "IWRD", Status: core.StatusSuccess, Provider: "ishares", HoldingCount: 1500,
			Quality: core.QualityComplete, AttemptedProviders: []string{"ishares"}},
		{Fund: "XYZ", Status: core.StatusFailed, Provider: core.NoProvider,
			Quality: core.QualityUnavailable, AttemptedProviders: []string{"ft", "yahoo"}},
	}
	return Report{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Summary:    orchestrator.Summarize(results),
		Results:    results,
	}
}

func TestReportPath(t *testing.T) {
	r := sampleReport("abc", time.Date(2024, 3, 28, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, "reports/2024/03/28/abc.json", ReportPath(r))
}

func TestReports_SaveLoad(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	reports := NewReports(fs)
	ctx := context.Background()

	want := sampleReport("run-1", time.Date(2024, 3, 28, 9, 0, 0, 0, time.UTC))
	p, err := reports.Save(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, "reports/2024/03/28/run-1.json", p)

	got, err := reports.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, want.Results, got.Results)
	assert.Equal(t, 1, got.Summary.Failed)
}

func TestReports_SaveRefusesOverwrite(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	reports := NewReports(fs)
	r := sampleReport("run-1", time.Now())

	_, err := reports.Save(context.Background(), r)
	require.NoError(t, err)
	_, err = reports.Save(context.Background(), r)
	assert.Error(t, err)
}

func TestReports_RunIDs(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	reports := NewReports(fs)
	ctx := context.Background()

	_, err := reports.Save(ctx, sampleReport("later", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = reports.Save(ctx, sampleReport("earlier", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	ids, err := reports.RunIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"earlier", "later"}, ids)
}

func TestReports_LoadMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	_, err := NewReports(fs).Load(context.Background(), "nope")
	assert.Error(t, err)
}

func TestNewStorage(t *testing.T) {
	s, err := NewStorage(config.ArchiveConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewStorage(config.ArchiveConfig{Type: "localfs", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, s)

	s, err = NewStorage(config.ArchiveConfig{Type: "s3", S3: config.S3Config{Bucket: "b", Region: "eu-west-2"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, s)

	_, err = NewStorage(config.ArchiveConfig{Type: "ftp"})
	assert.Error(t, err)
}
