package search

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"fetcharr/internal/release"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:torznab="http://torznab.com/schemas/2015/feed">
  <channel>
    <item>
      <title>Jane Doe Scene One 1080p WEB-DL</title>
      <link>magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa&amp;dn=x</link>
      <size>2147483648</size>
      <seeders>42</seeders>
      <prowlarrindexer id="idx-1">Example Indexer</prowlarrindexer>
    </item>
    <item>
      <title>Jane Doe Scene Two 720p HDTV</title>
      <link>https://tracker.example/dl/2.torrent</link>
      <torznab:attr name="seeders" value="7" />
      <torznab:attr name="size" value="1073741824" />
      <torznab:attr name="infohash" value="BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB" />
    </item>
  </channel>
</rss>`

func TestTorznabSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("t"); got != "search" {
			t.Errorf("t = %q, want search", got)
		}
		if got := r.URL.Query().Get("q"); got != "Jane Doe" {
			t.Errorf("q = %q, want Jane Doe", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "key" {
			t.Errorf("apikey = %q, want key", got)
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	client, err := NewTorznab(srv.URL, "key")
	if err != nil {
		t.Fatalf("NewTorznab: %v", err)
	}

	releases, err := client.Search(context.Background(), "Jane Doe")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("got %d releases, want 2", len(releases))
	}

	first := releases[0]
	if first.Quality != "1080p" || first.Source != "WEB-DL" {
		t.Errorf("inferred %s/%s, want 1080p/WEB-DL", first.Quality, first.Source)
	}
	if first.IndexerID != "idx-1" || first.IndexerName != "Example Indexer" {
		t.Errorf("indexer = %q/%q", first.IndexerID, first.IndexerName)
	}
	if first.Seeders != 42 || first.SizeBytes != 2147483648 {
		t.Errorf("numbers = %d seeders / %d bytes", first.Seeders, first.SizeBytes)
	}
	if first.InfoHash != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("info hash = %q", first.InfoHash)
	}

	second := releases[1]
	if second.Seeders != 7 || second.SizeBytes != 1073741824 {
		t.Errorf("attr fallback numbers = %d seeders / %d bytes", second.Seeders, second.SizeBytes)
	}
	if second.InfoHash != "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" {
		t.Errorf("attr info hash = %q", second.InfoHash)
	}
}

func TestTorznabSearchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewTorznab(srv.URL, "")
	if err != nil {
		t.Fatalf("NewTorznab: %v", err)
	}
	if _, err := client.Search(context.Background(), "Jane Doe"); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestNewTorznabRequiresBaseURL(t *testing.T) {
	if _, err := NewTorznab("   ", "key"); err == nil {
		t.Error("expected error for empty base url")
	}
}

// termGateway records queried terms and scripts per-term outcomes.
type termGateway struct {
	results map[string][]release.RawRelease
	errs    map[string]error
	terms   []string
}

func (g *termGateway) Search(_ context.Context, term string) ([]release.RawRelease, error) {
	g.terms = append(g.terms, term)
	if err := g.errs[term]; err != nil {
		return nil, err
	}
	return g.results[term], nil
}

func TestCollectAggregatesTerms(t *testing.T) {
	gateway := &termGateway{
		results: map[string][]release.RawRelease{
			"Jane Doe": {{Title: "Jane Doe Scene One 1080p WEB-DL"}},
			"J. Doe":   {{Title: "J. Doe Scene Two", Quality: "720p", Source: "HDTV"}},
		},
	}
	o := NewOrchestrator(gateway, true, discard())

	releases := o.Collect(context.Background(), "Jane Doe", []string{"J. Doe", "Jane Doe", ""})
	if len(releases) != 2 {
		t.Fatalf("got %d releases, want 2", len(releases))
	}
	if len(gateway.terms) != 2 {
		t.Errorf("queried terms %v, want duplicates and empties dropped", gateway.terms)
	}
	// Quality tagging fills in only where the gateway left it blank.
	if releases[0].Quality != "1080p" || releases[0].Source != "WEB-DL" {
		t.Errorf("first release tags = %s/%s", releases[0].Quality, releases[0].Source)
	}
	if releases[1].Quality != "720p" || releases[1].Source != "HDTV" {
		t.Errorf("second release tags overwritten: %s/%s", releases[1].Quality, releases[1].Source)
	}
}

func TestCollectAliasesDisabled(t *testing.T) {
	gateway := &termGateway{}
	o := NewOrchestrator(gateway, false, discard())
	o.Collect(context.Background(), "Jane Doe", []string{"J. Doe"})
	if len(gateway.terms) != 1 || gateway.terms[0] != "Jane Doe" {
		t.Errorf("queried terms %v, want canonical name only", gateway.terms)
	}
}

func TestCollectTermFailureIsIsolated(t *testing.T) {
	gateway := &termGateway{
		results: map[string][]release.RawRelease{
			"J. Doe": {{Title: "J. Doe Scene"}},
		},
		errs: map[string]error{"Jane Doe": errors.New("indexer timeout")},
	}
	o := NewOrchestrator(gateway, true, discard())

	releases := o.Collect(context.Background(), "Jane Doe", []string{"J. Doe"})
	if len(releases) != 1 {
		t.Fatalf("got %d releases, want 1 from surviving term", len(releases))
	}
}

func TestCollectWithoutGateway(t *testing.T) {
	o := NewOrchestrator(nil, true, discard())
	if releases := o.Collect(context.Background(), "Jane Doe", nil); len(releases) != 0 {
		t.Errorf("got %d releases, want 0 without a gateway", len(releases))
	}
}
