package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/hellosteadman/ghostexporter/app/errors"
	"github.com/hellosteadman/ghostexporter/app/ghost"
)

func NewHandler(exporter ExporterInterface, defaultVersion, version string) *Handler {
	return &Handler{
		exporter:       exporter,
		defaultVersion: defaultVersion,
		version:        version,
	}
}

func (h *Handler) GetExport(c *gin.Context) {
	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	version := c.DefaultQuery("version", h.defaultVersion)

	var buf bytes.Buffer
	start := time.Now()

	if err := h.exporter.Write(c.Request.Context(), &buf, feedURL, version); err != nil {
		status := statusFor(err)
		slog.Error("Export failed", "url", feedURL, "version", version, "status", status, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	slog.Info("Export served", "url", feedURL, "version", version, "bytes", buf.Len(), "duration", time.Since(start))

	c.Header("Content-Disposition", `attachment; filename="ghost-export.json"`)
	c.Header("X-Export-Version", version)
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func (h *Handler) GetProviders(c *gin.Context) {
	providers := h.exporter.Providers()

	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
		"total":     len(providers),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
		"providers": len(h.exporter.Providers()),
	})
}

func (h *Handler) GetIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "Ghost Exporter",
		"version":     h.version,
		"description": "Converts podcast feeds into Ghost import documents",
		"endpoints": map[string]string{
			"export":    "/export?url=<feed-url>&version=<doc-version>",
			"providers": "/providers",
			"health":    "/health",
		},
		"versions": ghost.Versions(),
	})
}

func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsTransport(err), apperrors.IsResolution(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
