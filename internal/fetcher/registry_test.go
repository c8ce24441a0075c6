package fetcher

import (
	"context"
	"testing"

	"github.com/newthinker/folio/internal/core"
)

type stubFetcher struct {
	name string
}

func (s *stubFetcher) Name() string                     { return s.name }
func (s *stubFetcher) Priority() int                    { return 1 }
func (s *stubFetcher) SupportsFullHoldings() bool       { return false }
func (s *stubFetcher) CanHandle(core.FundMetadata) bool { return true }
func (s *stubFetcher) FetchHoldings(ctx context.Context, fund core.FundMetadata) (core.HoldingsResult, error) {
	return EmptyResult(s.name), nil
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(&stubFetcher{name: "ft"})

	f, ok := r.Resolve("ft")
	if !ok {
		t.Fatal("expected to find registered fetcher")
	}
	if f.Name() != "ft" {
		t.Errorf("expected name 'ft', got '%s'", f.Name())
	}

	if _, ok := r.Resolve("missing"); ok {
		t.Error("expected missing provider to be absent")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubFetcher{name: "yahoo"})
	r.Register(&stubFetcher{name: "aic"})
	r.Register(&stubFetcher{name: "yahoo"})

	names := r.Names()
	if len(names) != 2 || names[0] != "aic" || names[1] != "yahoo" {
		t.Errorf("unexpected names: %v", names)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 fetchers, got %d", r.Len())
	}
}
