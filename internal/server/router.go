package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/procshim/internal/metrics"
	"github.com/loykin/procshim/internal/status"
	"github.com/loykin/procshim/internal/supervisor"
)

// Router provides embeddable HTTP handlers for the supervisor shim.
// Endpoints:
//
//	GET  {basePath}/status
//	POST {basePath}/start
//	POST {basePath}/stop
//	POST {basePath}/restart
//	GET  /metrics (when enabled)
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	sup      *supervisor.Supervisor
	basePath string
	metrics  bool
}

// NewRouter constructs a new Router with configurable basePath.
func NewRouter(sup *supervisor.Supervisor, basePath string, withMetrics bool) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath), metrics: withMetrics}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/restart", r.handleRestart)
	if r.metrics {
		g.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, r *Router) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func newErrorResp(err error) errorResp {
	return errorResp{Error: err.Error(), Kind: status.Describe(err)}
}

type okResp struct {
	OK bool `json:"ok"`
}

type restartResp struct {
	OK        bool   `json:"ok"`
	StopError string `json:"stop_error,omitempty"`
}

func (r *Router) handleStatus(c *gin.Context) {
	st, err := r.sup.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, newErrorResp(err))
		return
	}
	c.JSON(http.StatusOK, st)
}

func (r *Router) handleStart(c *gin.Context) {
	if err := r.sup.Start(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, newErrorResp(err))
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	if err := r.sup.Stop(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, newErrorResp(err))
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}

func (r *Router) handleRestart(c *gin.Context) {
	stopErr, startErr := r.sup.Restart(c.Request.Context())
	if startErr != nil {
		c.JSON(http.StatusConflict, newErrorResp(startErr))
		return
	}
	resp := restartResp{OK: true}
	if stopErr != nil {
		resp.StopError = stopErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}
