package crossref

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "queries.db"))
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCache_PutGet(t *testing.T) {
	cache := openTestCache(t)

	want := []Work{{Titles: []string{"T"}, DOI: "10.1/abc"}}
	if err := cache.Put("query one", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := cache.Get("query one")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want hit")
	}
	if len(got) != 1 || got[0].DOI != "10.1/abc" || got[0].Title() != "T" {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCache_Miss(t *testing.T) {
	cache := openTestCache(t)

	_, ok, err := cache.Get("never stored")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for a missing query")
	}
}

func TestCache_EmptyResultIsAHit(t *testing.T) {
	cache := openTestCache(t)

	if err := cache.Put("no results", nil); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	works, ok, err := cache.Get("no results")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Error("Get() ok = false, want empty-list hit")
	}
	if len(works) != 0 {
		t.Errorf("Get() = %+v, want empty", works)
	}
}

func TestCache_ReplaceOverwrites(t *testing.T) {
	cache := openTestCache(t)

	cache.Put("q", []Work{{DOI: "old"}})
	if err := cache.Put("q", []Work{{DOI: "new"}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, _ := cache.Get("q")
	if !ok || len(got) != 1 || got[0].DOI != "new" {
		t.Errorf("Get() = %+v, want replaced value", got)
	}
}

func TestWorks_CacheSkipsHTTP(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(worksJSON))
	}))
	defer srv.Close()

	cache := openTestCache(t)
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache))

	first, err := c.Works(context.Background(), "Deep Learning")
	if err != nil {
		t.Fatalf("first Works() error = %v", err)
	}
	second, err := c.Works(context.Background(), "Deep Learning")
	if err != nil {
		t.Fatalf("second Works() error = %v", err)
	}

	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (second should hit cache)", requests)
	}
	if len(first) != len(second) || first[0].DOI != second[0].DOI {
		t.Errorf("cached result %+v differs from fetched %+v", second, first)
	}
}
