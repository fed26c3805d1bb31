// Package httpapi exposes the scheduler over HTTP for headless deployments:
// submit jobs, read detailed status, and poll aggregate progress.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"fetchq/internal/model"
	"fetchq/internal/queue"
)

type submitRequest struct {
	URL     string `json:"url" binding:"required"`
	Kind    string `json:"kind,omitempty"`    // video|audio
	Quality string `json:"quality,omitempty"` // best|1080p|720p
}

type Server struct {
	sched   *queue.Scheduler
	limiter *rate.Limiter
}

// New wraps a scheduler. rps bounds accepted requests per second across all
// endpoints; burst allows short spikes.
func New(sched *queue.Scheduler, rps float64, burst int) *Server {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &Server{
		sched:   sched,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.throttle())

	api := router.Group("/api")
	{
		api.POST("/jobs", s.submitJob)
		api.GET("/jobs", s.listJobs)
		api.GET("/progress", s.aggregateProgress)
	}
	router.GET("/healthz", s.health)
	return router
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) submitJob(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind != "" && kind != model.KindVideo && kind != model.KindAudio {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be video or audio"})
		return
	}

	jobID := s.sched.Submit(req.URL, model.Variant{Kind: kind, Quality: req.Quality})
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

func (s *Server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.sched.DetailedStatus())
}

func (s *Server) aggregateProgress(c *gin.Context) {
	c.JSON(http.StatusOK, s.sched.AggregateView())
}

func (s *Server) health(c *gin.Context) {
	st := s.sched.Status()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"counts": st.Counts,
		"uptime": st.Uptime,
	})
}
