package docs

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docshub/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes mounts the public read API.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/:key", h.get)
	rg.GET("/:key/revisions/:number", h.getRevision)
}

// RegisterContributionRoutes mounts the authenticated write API.
func (h *Handler) RegisterContributionRoutes(rg *gin.RouterGroup) {
	rg.POST("/:key/revisions", h.contribute)
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": items})
}

func (h *Handler) get(c *gin.Context) {
	key := c.Param("key")
	doc, err := h.Repo.GetByKey(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	links, err := h.Repo.Links(c.Request.Context(), doc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "entity_links": links})
}

func (h *Handler) getRevision(c *gin.Context) {
	key := c.Param("key")
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid revision number"})
		return
	}

	rev, err := h.Repo.GetRevision(c.Request.Context(), key, number)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if rev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "revision not found"})
		return
	}
	c.JSON(http.StatusOK, rev)
}

type contributeReq struct {
	Label      string              `json:"label"`
	Metadata   []models.LabelValue `json:"metadata"`
	PageImages []string            `json:"page_images"`
}

func (h *Handler) contribute(c *gin.Context) {
	var req contributeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label is required"})
		return
	}

	rev, err := h.Repo.CreateContribution(c.Request.Context(), c.Param("key"), req.Label, models.RevisionContent{
		Metadata:   req.Metadata,
		PageImages: req.PageImages,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "contribution failed"})
		return
	}
	if rev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusCreated, rev)
}

// EntityTypesHandler serves the seeded entity type reference rows.
func EntityTypesHandler(repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := repo.EntityTypes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entity_types": types})
	}
}
