package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tubetab/tubetab/app/aggregator"
	"github.com/tubetab/tubetab/app/catalog"
)

func NewHandler(loader LoaderInterface, lookup LookupInterface,
	registry *catalog.Registry, cache CacheStatsInterface, version string) *Handler {
	return &Handler{
		loader:   loader,
		lookup:   lookup,
		registry: registry,
		cache:    cache,
		version:  version,
	}
}

// GetVideos serves the aggregated video list. A valid cache answers
// immediately; otherwise a full aggregation pass runs. `refresh=true` forces
// the pass even when the cache is fresh.
func (h *Handler) GetVideos(c *gin.Context) {
	category := c.Query("category")
	force := c.Query("refresh") == "true"

	result, err := h.loader.Load(c.Request.Context(), aggregator.Request{
		Category:     category,
		ForceRefresh: force,
	})
	if errors.Is(err, aggregator.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Refresh already in progress"})
		return
	}
	if err != nil {
		slog.Error("Video load failed", "category", category, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "All video sources failed"})
		return
	}

	h.writeResult(c, result)
}

// Refresh clears the cache unconditionally and runs a fresh aggregation.
func (h *Handler) Refresh(c *gin.Context) {
	category := c.Query("category")

	result, err := h.loader.ForceRefresh(c.Request.Context(), category)
	if errors.Is(err, aggregator.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Refresh already in progress"})
		return
	}
	if err != nil {
		slog.Error("Forced refresh failed", "category", category, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "All video sources failed"})
		return
	}

	h.writeResult(c, result)
}

// GetVideoByID looks a single video up directly. Needs the Data API; without
// a key the endpoint is unavailable rather than wrong.
func (h *Handler) GetVideoByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing video id"})
		return
	}

	if !h.lookup.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Video lookup requires a YouTube API key"})
		return
	}

	records, err := h.lookup.Lookup(c.Request.Context(), id)
	if err != nil {
		slog.Error("Video lookup failed", "video", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Video lookup failed"})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	c.JSON(http.StatusOK, toPayload(records[0]))
}

// GetChannels lists the catalog, optionally filtered by category.
func (h *Handler) GetChannels(c *gin.Context) {
	category := c.Query("category")
	channels := h.registry.Channels(category)

	listed := make([]gin.H, 0, len(channels))
	for _, ch := range channels {
		listed = append(listed, gin.H{
			"id":       ch.ID,
			"name":     ch.Name,
			"handle":   ch.Handle,
			"category": ch.Category,
			"language": ch.Language,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": listed,
		"total":    len(listed),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"channels":  h.registry.Size(),
		"version":   h.version,
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"aggregator": h.loader.Stats(),
		"cache":      h.cache.Stats(),
	})
}

func (h *Handler) writeResult(c *gin.Context, result *aggregator.Result) {
	response := gin.H{
		"videos": toPayloads(result.Videos),
		"count":  len(result.Videos),
		"cached": result.Cached,
	}
	if result.Stale {
		response["stale"] = true
	}
	if !result.StoredAt.IsZero() {
		response["stored_at"] = result.StoredAt.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}
