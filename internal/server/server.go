package server

import (
	"net/http"

	httpin_integ "github.com/ggicci/httpin/integration"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hasanerken/aiqueue"
)

type Options struct {
	Addr   string
	Logger zerolog.Logger
}

// runtime bundles what handlers need: the queue itself, the optional
// processor registry for validating submissions, and the optional archive
// for serving results already evicted from the in-memory history.
type runtime struct {
	logger     zerolog.Logger
	queue      *aiqueue.TaskQueue
	processors *aiqueue.Processors
	archive    aiqueue.Archive
}

type Server struct {
	opts    *Options
	logger  zerolog.Logger
	sm      chi.Router
	hs      *http.Server
	runtime *runtime
}

func NewServer(opts *Options, queue *aiqueue.TaskQueue, processors *aiqueue.Processors, archive aiqueue.Archive) *Server {
	o := defaultOpts(opts)

	s := &Server{
		logger: o.Logger,
		opts:   o,
		sm:     chi.NewRouter(),
		runtime: &runtime{
			logger:     o.Logger,
			queue:      queue,
			processors: processors,
			archive:    archive,
		},
	}

	s.registerV1()

	s.hs = &http.Server{
		Addr:    o.Addr,
		Handler: s.sm,
	}

	return s
}

func defaultOpts(opts *Options) *Options {
	o := &Options{
		Addr: ":8080",
	}

	if opts != nil {
		o.Logger = opts.Logger
		if len(opts.Addr) > 0 {
			o.Addr = opts.Addr
		}
	}

	return o
}

func init() {
	httpin_integ.UseGochiURLParam("path", chi.URLParam)
}

func (s *Server) registerV1() {
	submitTask(s.sm, s.runtime)
	getTaskStatus(s.sm, s.runtime)
	getTaskResult(s.sm, s.runtime)
	cancelTask(s.sm, s.runtime)
	getStatistics(s.sm, s.runtime)
	clearCompleted(s.sm, s.runtime)
	clearFailed(s.sm, s.runtime)

	s.sm.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.sm
}

func (s *Server) Run() error {
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("server is running")

		err := s.hs.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("failed to run server")
			return
		}
	}()

	return nil
}

func (s *Server) Close() error {
	s.logger.Info().Msg("server is closing")
	return s.hs.Close()
}
