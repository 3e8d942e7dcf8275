package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/xhyuo/pancancer-clustering/internal/db"
	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

// ResultCache holds the in-memory results of the most recent fit so the API
// can serve them without a database connection.
type ResultCache struct {
	mu         sync.RWMutex
	runs       []models.RunSummary
	trajectory map[string][]models.IterationStats
	embedding  []models.EmbeddingPoint
}

func NewResultCache() *ResultCache {
	return &ResultCache{trajectory: make(map[string][]models.IterationStats)}
}

// SetRuns replaces the cached run summaries and their trajectories.
func (rc *ResultCache) SetRuns(runs []models.RunSummary, trajectories map[string][]models.IterationStats) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.runs = runs
	rc.trajectory = trajectories
}

// SetEmbedding replaces the cached 2-D embedding.
func (rc *ResultCache) SetEmbedding(points []models.EmbeddingPoint) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.embedding = points
}

func (rc *ResultCache) Runs() []models.RunSummary {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.runs
}

func (rc *ResultCache) Run(id string) (models.RunSummary, []models.IterationStats, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	for _, r := range rc.runs {
		if r.RunID == id {
			return r, rc.trajectory[id], true
		}
	}
	return models.RunSummary{}, nil, false
}

func (rc *ResultCache) Embedding() []models.EmbeddingPoint {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.embedding
}

type APIHandler struct {
	store *db.RunStore
	cache *ResultCache
	wsHub *Hub
}

func SetupRouter(store *db.RunStore, cache *ResultCache, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://dashboard.example.org
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	limiter := NewRateLimiter(120, 30)
	handler := &APIHandler{store: store, cache: cache, wsHub: wsHub}

	api := r.Group("/api/v1", limiter.Middleware())
	{
		api.GET("/health", handler.handleHealth)
		api.GET("/runs", handler.handleListRuns)
		api.GET("/runs/:id", handler.handleGetRun)
		api.GET("/embedding", handler.handleEmbedding)
		api.GET("/stream", wsHub.Subscribe)
	}

	// Serve Static Dashboard
	r.Static("/dashboard", "./public")

	return r
}

// handleHealth returns engine status and capabilities for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "Pan-Cancer Clustering Engine v1.0",
		"capabilities": gin.H{
			"structure_search":  true,
			"multi_start":       true,
			"label_matching":    true,
			"js_embedding":      true,
			"ari_vi_metrics":    true,
			"progress_stream":   true,
			"durable_run_store": h.store != nil,
		},
		"dbConnected": h.store != nil,
	})
}

// handleListRuns returns the ranked run summaries, best log-likelihood first.
// Served from PostgreSQL when connected, otherwise from the in-memory cache.
func (h *APIHandler) handleListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if h.store != nil {
		runs, totalCount, err := h.store.ListRuns(c.Request.Context(), page, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"data":       runs,
			"totalCount": totalCount,
			"page":       page,
			"limit":      limit,
		})
		return
	}

	runs := h.cache.Runs()
	c.JSON(http.StatusOK, gin.H{
		"data":       runs,
		"totalCount": len(runs),
		"page":       1,
		"limit":      len(runs),
	})
}

// handleGetRun returns one run summary with its outer-iteration trajectory.
func (h *APIHandler) handleGetRun(c *gin.Context) {
	id := c.Param("id")

	if h.store != nil {
		sum, trajectory, err := h.store.GetRun(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Run not found", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"run": sum, "trajectory": trajectory})
		return
	}

	sum, trajectory, ok := h.cache.Run(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": sum, "trajectory": trajectory})
}

// handleEmbedding returns the 2-D sample embedding of the winning run.
func (h *APIHandler) handleEmbedding(c *gin.Context) {
	points := h.cache.Embedding()
	if len(points) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Embedding not computed yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}
