package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/config"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/report"
)

// settleDelay is how long a file must stay unchanged before it is processed.
const settleDelay = 750 * time.Millisecond

var (
	watchOutDir   string
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Classify every PDF dropped into a directory",
	Long: `Watch classifies each PDF that appears in dir (default: ~/.ampel/inbox)
and writes the annotated PDF plus a Markdown report to --out-dir.

The config file is watched as well: provider and default changes apply to
the next document without a restart.

Examples:
  ampel watch
  ampel watch ./eingang --out-dir ./ausgang --existing`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp()
		if err != nil {
			return err
		}
		if err := a.home.EnsureExists(); err != nil {
			return err
		}
		dir := a.home.InboxPath()
		if len(args) == 1 {
			dir = args[0]
		}

		var svc atomic.Pointer[pipeline.Service]
		svc.Store(a.service)
		a.config.OnChange(func(cfg *config.Config) {
			a.registry.Reload(cfg.ToProviderRegistryConfig())
			next, err := pipeline.FromConfig(cfg, a.registry, logger)
			if err != nil {
				logger.Warn("keeping previous settings", "error", err)
				return
			}
			svc.Store(next)
		})
		if a.config.File() != "" {
			a.config.WatchConfig()
		}

		w := &inboxWatcher{
			dir: dir,
			handle: func(ctx context.Context, path string) {
				processInboxFile(ctx, svc.Load(), a.config.Get().Keywords.ExpandUserKeywords, path, a.home.OutputFor(watchOutDir, path, ""))
			},
			workers: a.config.Get().Defaults.MaxWorkers,
		}
		if watchExisting {
			if err := w.enqueueExisting(); err != nil {
				return err
			}
		}
		logger.Info("watching for PDFs", "dir", dir)
		return w.run(ctx)
	},
}

// inboxWatcher debounces fsnotify events per file and hands settled PDFs
// to handle, at most workers at a time.
type inboxWatcher struct {
	dir     string
	handle  func(ctx context.Context, path string)
	workers int

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	// done is closed when run returns; fired timers stop waiting on ready.
	done   chan struct{}
	timers sync.WaitGroup
}

func (w *inboxWatcher) init() {
	if w.pending == nil {
		w.pending = make(map[string]*time.Timer)
		w.ready = make(chan string, 64)
		w.done = make(chan struct{})
	}
	if w.workers <= 0 {
		w.workers = pipeline.DefaultConcurrency
	}
}

func (w *inboxWatcher) run(ctx context.Context) error {
	w.init()
	defer w.stop()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	sem := make(chan struct{}, w.workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				w.schedule(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case path := <-w.ready:
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				w.handle(ctx, path)
			}()
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *inboxWatcher) schedule(path string) {
	if !isPDF(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(settleDelay)
		return
	}

	var t *time.Timer
	w.timers.Add(1)
	t = time.AfterFunc(settleDelay, func() {
		defer w.timers.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
	w.pending[path] = t
}

// stop cancels pending timers and waits for fired ones to give up.
func (w *inboxWatcher) stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.timers.Done()
		}
		delete(w.pending, path)
	}
	close(w.done)
	w.mu.Unlock()
	w.timers.Wait()
}

// enqueueExisting schedules PDFs already present in the directory.
func (w *inboxWatcher) enqueueExisting() error {
	w.init()
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}
	return nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// processInboxFile classifies one inbox PDF and writes base_ampel.pdf and
// base_ampel.md next to each other.
func processInboxFile(ctx context.Context, svc *pipeline.Service, expandUser bool, path, outBase string) {
	f := classifyFile(ctx, svc, keywords.UserContext{Expand: expandUser}, path, outBase+classifySuffix, true)
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}

	if err := os.MkdirAll(filepath.Dir(outBase), 0o755); err != nil {
		logger.Warn("failed to create output directory", "error", err)
		return
	}
	md, err := os.Create(outBase + "_ampel.md")
	if err != nil {
		logger.Warn("failed to write report", "file", path, "error", err)
		return
	}
	defer md.Close()
	if err := report.WriteFiles(md, report.FormatMarkdown, []report.File{f}); err != nil {
		logger.Warn("failed to write report", "file", path, "error", err)
		return
	}

	if f.Failed() {
		logger.Warn("inbox file failed", "file", path, "error", f.Error)
		return
	}
	logger.Info("inbox file classified",
		"file", path,
		"output", f.Output,
		"green", f.Classification.Summary.Green,
		"red", f.Classification.Summary.Red)
}

func init() {
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "directory for annotated PDFs and reports (default: ~/.ampel/out)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also classify PDFs already in the directory")

	rootCmd.AddCommand(watchCmd)
}
