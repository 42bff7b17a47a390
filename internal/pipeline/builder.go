package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/guides/internal/chunker"
	"github.com/dgallion1/guides/internal/config"
	"github.com/dgallion1/guides/internal/directives"
	"github.com/dgallion1/guides/internal/doctree"
	"github.com/dgallion1/guides/internal/fsys"
	"github.com/dgallion1/guides/internal/meta"
	"github.com/dgallion1/guides/internal/parser"
	"github.com/dgallion1/guides/internal/reference"
	"github.com/dgallion1/guides/internal/render"
	"github.com/dgallion1/guides/internal/rst"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Options control a single build.
type Options struct {
	Formats     []string
	Workers     int
	UseCache    bool
	Force       bool // parse every file even if the cache says it is fresh
	FJSON       bool
	SearchIndex bool

	// OnPhase, when set, is called as the build moves between phases.
	OnPhase func(status JobStatus, phase string)
	// OnCollected, when set, receives the number of source files found.
	OnCollected func(n int)
}

// DefaultOptions derives build options from the service configuration.
func DefaultOptions(cfg config.Config) Options {
	return Options{
		Formats:     cfg.Formats,
		Workers:     cfg.WorkerCount,
		UseCache:    cfg.UseCache,
		FJSON:       cfg.FJSON,
		SearchIndex: cfg.SearchIndex,
	}
}

func (o Options) phase(status JobStatus, phase string) {
	if o.OnPhase != nil {
		o.OnPhase(status, phase)
	}
}

// Result summarizes a finished build.
type Result struct {
	Collected         int           `json:"collected"`
	Parsed            int           `json:"parsed"`
	Reused            int           `json:"reused"`
	Rendered          int           `json:"rendered"` // output files written
	InvalidReferences int           `json:"invalid_references"`
	Outputs           []string      `json:"outputs"`
	Duration          time.Duration `json:"duration"`

	// Err aggregates the per-document failures of a build that otherwise
	// completed. It is nil when every document was written.
	Err error `json:"-"`
}

// Builder compiles a source tree into rendered outputs. One Builder may
// run several builds, but not concurrently.
type Builder struct {
	source  *fsys.FileSystem
	dest    *fsys.FileSystem
	store   meta.Store
	parsers *parser.Set
	formats *render.Formats
	apiBase string

	chunkCfg chunker.Config
	stats    *RenderStats
	metrics  *Metrics
	log      *slog.Logger

	mu sync.Mutex

	indexMu sync.RWMutex
	index   *meta.Metas // index of the last finished build
}

// NewBuilder wires the parsers, directive registry and renderers from cfg.
// store may be nil to build without a metas cache; stats and metrics may
// be nil as well.
func NewBuilder(cfg config.Config, source, dest *fsys.FileSystem, store meta.Store,
	stats *RenderStats, metrics *Metrics, log *slog.Logger) *Builder {
	rp := rst.New(directives.NewRegistry(), rst.Config{
		InitialHeaderLevel: cfg.InitialHeaderLevel,
		DefaultRole:        cfg.DefaultRole,
	}, source, log)
	if stats == nil {
		stats = NewRenderStats(time.Hour)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Builder{
		source:   source,
		dest:     dest,
		store:    store,
		parsers:  parser.NewSet(rp),
		formats:  render.DefaultFormats(),
		apiBase:  cfg.APIDocsBase,
		chunkCfg: chunker.DefaultConfig(),
		stats:    stats,
		metrics:  metrics,
		log:      log,
	}
}

// Parsers exposes the parser set so single documents can be rendered
// outside a build.
func (b *Builder) Parsers() *parser.Set { return b.parsers }

// Formats exposes the registered output formats.
func (b *Builder) Formats() *render.Formats { return b.formats }

// Build runs collect, parse, resolve and render. Failures of single
// documents are collected in Result.Err; the returned error is reserved
// for failures that stop the whole build.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	formats := make([]render.Format, 0, len(opts.Formats))
	for _, name := range opts.Formats {
		f, err := b.formats.Get(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}

	res := &Result{}
	var (
		errMu sync.Mutex
		errs  *multierror.Error
	)
	fail := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		errs = multierror.Append(errs, err)
	}

	metas := b.loadCache(ctx, opts)

	opts.phase(StatusCollecting, "collecting sources")
	files, err := NewFileCollector(b.source, nil, b.log).Collect()
	if err != nil {
		return nil, err
	}
	res.Collected = len(files)
	if opts.OnCollected != nil {
		opts.OnCollected(len(files))
	}
	b.removeDeleted(metas, files, formats, opts)

	stale := StaleFiles(files, metas, opts.Force, func(file string) bool {
		for _, f := range formats {
			if !b.dest.Has(render.OutputPath(file, f.Extension())) {
				return false
			}
		}
		return true
	})
	res.Reused = len(files) - len(stale)
	b.metrics.DocumentsReused.Add(float64(res.Reused))

	// Phase 1: parse in parallel. Entries are published one at a time
	// through Metas.Set; nothing reads the index until Wait returns.
	opts.phase(StatusParsing, "parsing documents")
	docs := make(map[string]*doctree.Document, len(stale))
	var docsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, file := range stale {
		sf := files[file]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := b.parse(sf)
			if err != nil {
				if errors.Is(err, doctree.ErrInvalidStructure) {
					b.metrics.StructuralErrors.Inc()
				}
				b.log.Error("document skipped", "file", file, "error", err)
				metas.Delete(file)
				fail(err)
				return nil
			}
			metas.Set(meta.NewEntry(doc, sf.Source, sf.ModTime))
			docsMu.Lock()
			docs[file] = doc
			docsMu.Unlock()
			b.metrics.DocumentsParsed.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse phase: %w", err)
	}
	res.Parsed = len(docs)

	// Phase 2: resolve toctrees, parents and placeholder dependencies.
	opts.phase(StatusResolving, "resolving references")
	tocs := meta.NewTocResolver(b.source, b.log)
	for file, doc := range docs {
		if e, ok := metas.Get(file); ok {
			tocs.Resolve(e, doc.Tocs())
		}
	}
	metas.LinkParents()
	refs := reference.New(metas, b.apiBase, b.log)
	refs.ResolveDependencies()

	// Phase 3: render every parsed document in every format.
	opts.phase(StatusRendering, "rendering outputs")
	out := &outputs{
		builder: b,
		metas:   metas,
		refs:    refs,
		order:   tocOrder(metas),
		opts:    opts,
	}
	var outMu sync.Mutex
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, doc := range sortedDocs(docs) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			written, invalid, err := out.document(doc, formats)
			outMu.Lock()
			res.Outputs = append(res.Outputs, written...)
			res.Rendered += len(written)
			res.InvalidReferences += invalid
			outMu.Unlock()
			if err != nil {
				fail(err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("render phase: %w", err)
	}
	sort.Strings(res.Outputs)

	if opts.SearchIndex {
		if err := out.searchIndex(docs, files); err != nil {
			fail(err)
		}
	}

	b.saveCache(ctx, metas, opts)
	b.indexMu.Lock()
	b.index = metas
	b.indexMu.Unlock()

	res.Duration = time.Since(start)
	res.Err = errs.ErrorOrNil()
	errCount := 0
	if errs != nil {
		errCount = errs.Len()
	}
	b.metrics.BuildDuration.Observe(res.Duration.Seconds())

	b.log.Info("build finished",
		"collected", res.Collected,
		"parsed", res.Parsed,
		"reused", res.Reused,
		"rendered", res.Rendered,
		"invalid_references", res.InvalidReferences,
		"errors", errCount,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (b *Builder) parse(sf SourceFile) (doc *doctree.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse %s: panic: %v", sf.Source, r)
		}
	}()

	p, err := b.parsers.ForFile(sf.Source)
	if err != nil {
		return nil, err
	}
	src, err := b.source.Read(sf.Source)
	if err != nil {
		return nil, err
	}
	doc, err = p.Parse(sf.File, src)
	if err != nil {
		return nil, err
	}
	b.log.Debug("document parsed", "file", sf.File, "source", sf.Source)
	return doc, nil
}

// loadCache returns the cached index, or an empty one when caching is off,
// forced away, missing or unreadable.
func (b *Builder) loadCache(ctx context.Context, opts Options) *meta.Metas {
	metas := meta.New()
	if b.store == nil || !opts.UseCache || opts.Force {
		return metas
	}
	if err := metas.LoadFrom(ctx, b.store); err != nil {
		if errors.Is(err, meta.ErrNoCache) {
			b.log.Debug("no metas cache", "error", err)
		} else {
			b.log.Warn("metas cache unusable, rebuilding", "error", err)
		}
		return meta.New()
	}
	b.log.Debug("metas cache loaded", "entries", metas.Len())
	return metas
}

func (b *Builder) saveCache(ctx context.Context, metas *meta.Metas, opts Options) {
	if b.store == nil || !opts.UseCache {
		return
	}
	if err := metas.SaveTo(ctx, b.store); err != nil {
		b.log.Warn("metas cache not saved", "error", err)
	}
}

// removeDeleted drops cached entries whose source is gone, along with
// their outputs.
func (b *Builder) removeDeleted(metas *meta.Metas, files map[string]SourceFile, formats []render.Format, opts Options) {
	for _, e := range metas.All() {
		if _, ok := files[e.File]; ok {
			continue
		}
		metas.Delete(e.File)
		for _, f := range formats {
			if err := b.dest.Remove(render.OutputPath(e.File, f.Extension())); err != nil {
				b.log.Warn("stale output not removed", "file", e.File, "error", err)
			}
		}
		if opts.FJSON {
			_ = b.dest.Remove(render.OutputPath(e.File, "fjson"))
		}
		b.log.Debug("source removed", "file", e.File)
	}
}

// Index returns the metas index of the last build. Before the first build
// it falls back to the cache, and to an empty index without one.
func (b *Builder) Index(ctx context.Context) *meta.Metas {
	b.indexMu.RLock()
	idx := b.index
	b.indexMu.RUnlock()
	if idx != nil {
		return idx
	}
	return b.loadCache(ctx, Options{UseCache: true})
}

// RenderSingle parses src as a standalone document and renders it in one
// format. References to other documents stay unresolved. It returns the
// output and the number of invalid references.
func (b *Builder) RenderSingle(filename string, src []byte, format string) ([]byte, int, error) {
	f, err := b.formats.Get(format)
	if err != nil {
		return nil, 0, err
	}
	p, err := b.parsers.ForFile(filename)
	if err != nil {
		return nil, 0, err
	}
	doc, err := p.Parse(doctree.StripExtension(filename), src)
	if err != nil {
		return nil, 0, err
	}

	metas := meta.New()
	metas.Set(meta.NewEntry(doc, filename, time.Now()))
	refs := reference.New(metas, b.apiBase, b.log)
	// assets are resolved against the source tree but never copied
	ctx := render.NewContext(doc, metas, refs, b.source, fsys.NewMemory(), b.log)

	start := time.Now()
	out, err := render.Render(ctx, f)
	b.stats.Record(f.Name(), time.Since(start))
	if err != nil {
		return nil, 0, err
	}
	return out, ctx.InvalidReferences(), nil
}
