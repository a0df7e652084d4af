package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/testutil"
)

func TestInboxWatcher(t *testing.T) {
	dir := t.TempDir()
	got := make(chan string, 4)
	w := &inboxWatcher{
		dir:     dir,
		workers: 1,
		handle:  func(_ context.Context, path string) { got <- path },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notiz.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	pdf := filepath.Join(dir, "lv.pdf")
	if err := os.WriteFile(pdf, testutil.PDF("LED"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-got:
		if p != pdf {
			t.Errorf("handled %q, want %q", p, pdf)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("PDF was not handled")
	}
	select {
	case p := <-got:
		t.Errorf("unexpected second file %q", p)
	case <-time.After(2 * settleDelay):
	}
}

func TestInboxWatcher_StopWithFullQueue(t *testing.T) {
	w := &inboxWatcher{
		dir:     t.TempDir(),
		workers: 1,
		handle:  func(context.Context, string) {},
	}
	w.init()
	for len(w.ready) < cap(w.ready) {
		w.ready <- "voll.pdf"
	}
	w.schedule(filepath.Join(w.dir, "a.pdf"))
	// The settle timer fires and finds the queue full.
	time.Sleep(2 * settleDelay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not return while a settled file waited on the queue")
	}

	w.schedule(filepath.Join(w.dir, "b.pdf"))
	w.mu.Lock()
	pending := len(w.pending)
	w.mu.Unlock()
	if pending != 0 {
		t.Errorf("stopped watcher scheduled %d files", pending)
	}
}

func TestProcessInboxFile(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WritePDF(t, "lv.pdf", "Position 1\nLED Panel", "Sonstiges")
	svc, err := pipeline.New(pipeline.Config{
		Keywords: keywords.NewProvider(keywords.ProviderConfig{Catalog: keywords.DefaultCatalog()}),
	})
	if err != nil {
		t.Fatal(err)
	}

	outBase := filepath.Join(dir, "out", "lv")
	processInboxFile(context.Background(), svc, false, src, outBase)

	if _, err := os.Stat(outBase + classifySuffix); err != nil {
		t.Errorf("annotated PDF missing: %v", err)
	}
	md, err := os.ReadFile(outBase + "_ampel.md")
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if !strings.Contains(string(md), "Klassifizierung: "+src) {
		t.Errorf("report lacks classification section:\n%s", md)
	}
}
