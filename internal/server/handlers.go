package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/inkwell-hq/inkwell/internal/crawler"
	"github.com/inkwell-hq/inkwell/internal/models"
	"github.com/inkwell-hq/inkwell/internal/platform"
)

// The HTTP surface is the boundary consumed by the external routing layer:
// create job/post, read job/post status, trigger crawls. There is no CRUD
// here; authentication is the caller's concern.
func (s *Server) setupRoutes(registry *platform.Registry) {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.Router.Group("/api/v1")
	{
		api.POST("/jobs", s.createJob)
		api.GET("/jobs/:id", s.getJob)
		api.POST("/posts", s.createPost)
		api.GET("/posts/:id", s.getPost)
		api.POST("/sites/:id/crawl", s.triggerCrawl)
		api.POST("/sites/:id/test", s.testConnection(registry))
		api.GET("/dashboard", s.getDashboard)
	}
}

type createJobRequest struct {
	UserID  uint            `json:"user_id" binding:"required"`
	Type    models.JobType  `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

func (s *Server) createJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Type {
	case models.JobTypeContentGeneration, models.JobTypePublishing, models.JobTypeScheduledPost:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job type " + string(req.Type)})
		return
	}

	job, err := s.Queue.Enqueue(c.Request.Context(), req.UserID, req.Type, req.Payload)
	if err != nil {
		s.Logger.Error("Failed to create job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (s *Server) getJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := s.Queue.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		s.Logger.Error("Failed to load job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

type createPostRequest struct {
	UserID    uint   `json:"user_id" binding:"required"`
	SiteID    uint   `json:"site_id" binding:"required"`
	KeywordID *uint  `json:"keyword_id"`
	Title     string `json:"title"`
}

func (s *Server) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.Post{
		UserID:    req.UserID,
		SiteID:    req.SiteID,
		KeywordID: req.KeywordID,
		Title:     req.Title,
		Status:    models.PostStatusDraft,
	}
	if err := s.DB.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		s.Logger.Error("Failed to create post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (s *Server) getPost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var post models.Post
	if err := s.DB.WithContext(c.Request.Context()).First(&post, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		s.Logger.Error("Failed to load post", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}

	c.JSON(http.StatusOK, post)
}

type triggerCrawlRequest struct {
	Preset string `json:"preset"`
}

func (s *Server) triggerCrawl(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site id"})
		return
	}

	var req triggerCrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Preset == "" {
		req.Preset = "quick"
	}
	preset, ok := crawler.PresetByName(req.Preset)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset " + req.Preset})
		return
	}

	// Crawls run for minutes; detach from the request.
	siteID := uint(id)
	go func() {
		if _, err := s.Crawls.CrawlSite(context.Background(), siteID, preset); err != nil {
			s.Logger.Error("Crawl failed", zap.Uint("site_id", siteID), zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "crawl started", "preset": req.Preset})
}

func (s *Server) testConnection(registry *platform.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site id"})
			return
		}

		var site models.Site
		if err := s.DB.WithContext(c.Request.Context()).First(&site, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
				return
			}
			s.Logger.Error("Failed to load site", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load site"})
			return
		}

		adapter, err := registry.Get(site.Type)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := adapter.TestConnection(c.Request.Context(), &site); err != nil {
			c.JSON(http.StatusOK, gin.H{"connected": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"connected": true})
	}
}

func (s *Server) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.Dashboard.Summary())
}
