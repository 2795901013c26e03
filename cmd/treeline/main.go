package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"

	"github.com/treelineprof/treeline/internal/analysis"
	"github.com/treelineprof/treeline/internal/calltree"
	"github.com/treelineprof/treeline/internal/errorutil"
	"github.com/treelineprof/treeline/internal/httputil"
	"github.com/treelineprof/treeline/internal/logutil"
	"github.com/treelineprof/treeline/internal/speedscope"
	"github.com/treelineprof/treeline/internal/storageutil"
	"github.com/treelineprof/treeline/internal/symbolname"
)

type environment struct {
	config ServiceConfig

	captures        *blob.Bucket
	callTreesWriter *kafka.Writer
}

var release string

func newEnvironment(ctx context.Context, config ServiceConfig) (*environment, error) {
	e := environment{config: config}
	var err error
	if config.CapturesBucketURL != "" {
		e.captures, err = blob.OpenBucket(ctx, config.CapturesBucketURL)
		if err != nil {
			return nil, err
		}
	}
	if len(config.KafkaBrokers) > 0 {
		e.callTreesWriter = &kafka.Writer{
			Addr:         kafka.TCP(config.KafkaBrokers...),
			Async:        true,
			Balancer:     kafka.CRC32Balancer{},
			BatchSize:    10,
			ReadTimeout:  3 * time.Second,
			Topic:        config.CallTreesKafkaTopic,
			WriteTimeout: 3 * time.Second,
		}
	}
	return &e, nil
}

func (e *environment) shutdown() {
	if e.captures != nil {
		if err := e.captures.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	if e.callTreesWriter != nil {
		if err := e.callTreesWriter.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	sentry.Flush(5 * time.Second)
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodPost, "/profile", e.postProfile},
		{http.MethodGet, "/captures/:capture_id", e.getCapture},
		{http.MethodGet, "/captures/:capture_id/hotspots", e.getCaptureHotspots},
	}

	router := httprouter.New()
	for _, route := range routes {
		handlerFunc := httputil.RequestID(route.handler)
		handlerFunc = httputil.DecompressPayload(handlerFunc)
		router.Handler(route.method, route.path, compress(handlerFunc))
	}
	return router, nil
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error loading configuration")
	}
	logutil.ConfigureLogger(config.Environment)

	env, err := newEnvironment(context.Background(), config)
	if err != nil {
		log.Fatal().Err(err).Msg("error setting up environment")
	}

	err = sentry.Init(sentry.ClientOptions{
		BeforeSend:       httputil.SetHTTPStatusCodeTag,
		Dsn:              env.config.SentryDSN,
		EnableTracing:    true,
		Environment:      env.config.Environment,
		Release:          release,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	router, err := env.newRouter()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("error setting up the router")
	}

	server := http.Server{
		Addr:    ":" + env.config.Port,
		Handler: sentryhttp.New(sentryhttp.Options{}).Handle(router),
	}

	waitForShutdown := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(cctx); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error shutting down server")
		}

		close(waitForShutdown)
	}()

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Err(err).Msg("server failed")
	}

	<-waitForShutdown

	env.shutdown()
}

func (e *environment) getHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (e *environment) postProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "error reading request body", http.StatusBadRequest)
		return
	}
	doc, err := speedscope.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	e.analyzeDocument(w, r, doc)
}

func (e *environment) getCapture(w http.ResponseWriter, r *http.Request) {
	doc, ok := e.loadCapture(w, r)
	if !ok {
		return
	}
	e.analyzeDocument(w, r, doc)
}

// loadCapture reads and decodes the capture named by the route. It writes
// the error response itself and reports success through the second return.
func (e *environment) loadCapture(w http.ResponseWriter, r *http.Request) (*speedscope.Document, bool) {
	if e.captures == nil {
		http.Error(w, "no captures bucket configured", http.StatusNotImplemented)
		return nil, false
	}
	ps := httprouter.ParamsFromContext(r.Context())
	captureID := ps.ByName("capture_id")

	var doc speedscope.Document
	err := storageutil.UnmarshalCompressed(r.Context(), e.captures, captureID, &doc)
	if err != nil {
		if errors.Is(err, errorutil.ErrObjectNotFound) {
			http.Error(w, "capture not found", http.StatusNotFound)
			return nil, false
		}
		sentry.CaptureException(err)
		http.Error(w, "error reading capture", http.StatusInternalServerError)
		return nil, false
	}
	return &doc, true
}

type hotspotEntry struct {
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
	Self       float64 `json:"self"`
	Calls      uint64  `json:"calls"`
	Hotness    float64 `json:"hotness"`
	ForcedLeaf bool    `json:"forced_leaf"`
}

// getCaptureHotspots analyzes a stored capture and returns the visible
// top-level children of its call tree, ranked by the requested metric.
func (e *environment) getCaptureHotspots(w http.ResponseWriter, r *http.Request) {
	params, logger, ok := httputil.GetRequiredQueryParameters(w, r, "metric")
	if !ok {
		return
	}
	useSelfTime := params["metric"] == "self"
	if !useSelfTime && params["metric"] != "total" {
		http.Error(w, "metric must be self or total", http.StatusBadRequest)
		return
	}
	maxWidth := 10
	if raw := r.URL.Query().Get("max_width"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			http.Error(w, "invalid max_width", http.StatusBadRequest)
			return
		}
		maxWidth = v
	}
	var cutoffPercent float64
	if raw := r.URL.Query().Get("cutoff_percent"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid cutoff_percent", http.StatusBadRequest)
			return
		}
		cutoffPercent = v
	}
	includeRuntime := r.URL.Query().Get("include_runtime") != "false"

	doc, ok := e.loadCapture(w, r)
	if !ok {
		return
	}
	result, err := analysis.AnalyzeEvented(doc)
	if errors.Is(err, errorutil.ErrNoUsableData) {
		result, err = analysis.AnalyzeSampled(doc)
	}
	if err != nil {
		if errors.Is(err, errorutil.ErrNoUsableData) || errors.Is(err, errorutil.ErrNoSamples) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sentry.CaptureException(err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	isUnmanaged := func(n *calltree.Node) bool {
		return symbolname.NormalizeDisplay(n.Name) == symbolname.UnmanagedCode
	}
	children := calltree.VisibleChildren(result.CallTreeRoot, includeRuntime, useSelfTime, maxWidth, cutoffPercent, isUnmanaged)
	entries := make([]hotspotEntry, 0, len(children))
	for _, child := range children {
		entries = append(entries, hotspotEntry{
			Name:       symbolname.NormalizeDisplay(child.Name),
			Total:      child.Total,
			Self:       child.Self,
			Calls:      child.Calls,
			Hotness:    calltree.Hotness(child, result.TotalTime, result.TotalSamples),
			ForcedLeaf: calltree.ShouldStopAt(symbolname.NormalizeMatch(child.Name)),
		})
	}
	logger.Debug().Int("visible", len(entries)).Msg("hotspot query served")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		sentry.CaptureException(err)
	}
}

// analyzeDocument runs the evented ingestor and falls back to the sampled
// one when the document carries no evented profiles.
func (e *environment) analyzeDocument(w http.ResponseWriter, r *http.Request, doc *speedscope.Document) {
	result, err := analysis.AnalyzeEvented(doc)
	if errors.Is(err, errorutil.ErrNoUsableData) {
		result, err = analysis.AnalyzeSampled(doc)
	}
	if err != nil {
		if errors.Is(err, errorutil.ErrNoUsableData) || errors.Is(err, errorutil.ErrNoSamples) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sentry.CaptureException(err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}

	analysisID := r.Header.Get(httputil.RequestIDHeader)
	if analysisID == "" {
		analysisID = uuid.New().String()
	}
	go e.publishCallTreeSummary(analysisID, result)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		sentry.CaptureException(err)
	}
}
