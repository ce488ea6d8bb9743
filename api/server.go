// Package api serves stored weekly runs over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/kilianp07/flexbid/core/logger"
	"github.com/kilianp07/flexbid/core/model"
	"github.com/kilianp07/flexbid/infra/store"
)

// RunReader is the read side of a run store.
type RunReader interface {
	Query(ctx context.Context, q store.Query) ([]store.Record, error)
	Get(ctx context.Context, runID string) (store.Record, error)
	Latest(ctx context.Context) (store.Record, error)
}

// Options configure the router.
type Options struct {
	// CORSOrigins lists the allowed origins; empty disables CORS headers.
	CORSOrigins []string
	Logger      logger.Logger
}

// RunSummary is the list form of a stored run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Income     float64   `json:"income"`
	Days       int       `json:"days"`
	Failed     int       `json:"failed"`
}

func summarize(r store.Record) RunSummary {
	return RunSummary{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Income:     r.Income,
		Days:       len(r.Days),
		Failed:     r.Failed,
	}
}

type handler struct {
	runs RunReader
	log  logger.Logger
}

// NewRouter returns the HTTP handler of the run API.
func NewRouter(runs RunReader, opts Options) http.Handler {
	h := &handler{runs: runs, log: logger.OrNop(opts.Logger)}
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog)
	r.GET("/healthz", h.health)
	r.GET("/runs", h.list)
	r.GET("/runs/latest", h.latest)
	r.GET("/runs/:id", h.get)
	r.GET("/runs/:id/weekdays/:weekday", h.weekday)
	if len(opts.CORSOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}).Handler(r)
}

func (h *handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debugw("http request", map[string]any{
		"method":   c.Request.Method,
		"path":     c.FullPath(),
		"status":   c.Writer.Status(),
		"duration": time.Since(start).String(),
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) list(c *gin.Context) {
	var q store.Query
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.fail(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		q.Limit = n
	}
	for key, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		if s := c.Query(key); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				h.fail(c, http.StatusBadRequest, errors.New(key+" must be an RFC3339 timestamp"))
				return
			}
			*dst = t
		}
	}
	recs, err := h.runs.Query(c.Request.Context(), q)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]RunSummary, len(recs))
	for i, r := range recs {
		out[i] = summarize(r)
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) latest(c *gin.Context) {
	rec, err := h.runs.Latest(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) get(c *gin.Context) {
	rec, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) weekday(c *gin.Context) {
	wd, err := model.ParseWeekday(c.Param("weekday"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	rec, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	day, ok := rec.Day(wd)
	if !ok {
		h.fail(c, http.StatusNotFound, errors.New(wd.String()+" was not part of run "+rec.RunID))
		return
	}
	c.JSON(http.StatusOK, day)
}

func (h *handler) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.fail(c, http.StatusNotFound, err)
		return
	}
	h.fail(c, http.StatusInternalServerError, err)
}

func (h *handler) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
