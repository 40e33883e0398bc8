// Package server exposes the job orchestrator over HTTP: start a job,
// follow its events as a server-sent event stream and download results.
package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"grabdoc/internal/events"
	"grabdoc/internal/job"
	"grabdoc/internal/source"
)

// MaxBodyBytes caps the start request body.
const MaxBodyBytes = 1 << 20

// AppName is reported by the config endpoint.
const AppName = "grabdoc"

type Options struct {
	Jobs      *job.Orchestrator
	OutputDir string
	Version   string
}

type Handler struct {
	jobs      *job.Orchestrator
	outputDir string
	version   string
}

type StartRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
}

// New builds the router.
func New(opts Options) *gin.Engine {
	h := &Handler{jobs: opts.Jobs, outputDir: opts.OutputDir, version: opts.Version}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Next()
	})

	api := r.Group("/api")
	api.POST("/start", h.HandleStart)
	api.GET("/stream", h.HandleStream)
	api.GET("/config", h.HandleConfig)
	api.GET("/download/*filename", h.HandleDownload)
	return r
}

func (h *Handler) HandleStart(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required."})
		return
	}

	jobID, err := h.jobs.Start(url, source.ParseMode(req.Mode))
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
	case errors.Is(err, job.ErrJobAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": "A download is already running."})
	case errors.Is(err, source.ErrEmptyURL), errors.Is(err, source.ErrUnsupportedURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// HandleStream sends the current status, then every event until the
// client disconnects.
func (h *Handler) HandleStream(c *gin.Context) {
	bus := h.jobs.Bus()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	initial := true
	c.Stream(func(w io.Writer) bool {
		if initial {
			initial = false
			c.SSEvent(events.TypeStatus, h.jobs.Status())
			return true
		}
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) HandleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"output":  h.outputDir,
		"version": h.version,
		"appName": AppName,
	})
}

// HandleDownload serves a file from the output directory. Paths escaping
// it are forbidden.
func (h *Handler) HandleDownload(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filename"), "/")
	path, ok := h.resolve(name)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *Handler) resolve(name string) (string, bool) {
	if name == "" || hasDotDot(name) {
		return "", false
	}
	root, err := filepath.Abs(h.outputDir)
	if err != nil {
		return "", false
	}
	path := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// hasDotDot reports whether any segment of name is "..", with either slash
// style.
func hasDotDot(name string) bool {
	for _, seg := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
