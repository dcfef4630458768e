package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	_ "github.com/aniladanir/lead-finder-service/docs"
	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/aniladanir/lead-finder-service/internal/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handler struct {
	searcher service.Searcher
	leads    service.LeadManager
	logger   *slog.Logger
	router   *gin.Engine
	server   *http.Server
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Source string `json:"source,omitempty"`
}

type statusUpdate struct {
	Status domain.LeadStatus `json:"status"`
}

// @title Lead Finder API
// @version 1.0
// @description Business search across lead providers and lead management
// @host localhost:6060
// @BasePath /
func NewHttpHandler(addr string, searcher service.Searcher, leads service.LeadManager, logger *slog.Logger) *Handler {
	h := &Handler{
		searcher: searcher,
		leads:    leads,
		logger:   logger,
	}

	// create router
	router := gin.Default()

	// register routes
	router.GET("/providers", h.listProviders)
	router.GET("/search/:source", h.search)
	router.DELETE("/cache", h.clearCache)
	router.GET("/cache/stats", h.cacheStats)
	router.POST("/leads/import", h.importLeads)
	router.GET("/leads", h.listLeads)
	router.PATCH("/leads/:id/status", h.updateLeadStatus)
	router.GET("/imports/:id", h.getImportReceipt)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h.router = router

	// create http server
	h.server = &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	return h
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// ListProviders godoc
// @Summary List enabled search providers
// @Tags Search
// @Produce json
// @Success 200 {array} string
// @Router /providers [get]
func (h *Handler) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, h.searcher.Providers())
}

// Search godoc
// @Summary Search businesses on a provider
// @Description Results are normalized and cached per provider and query
// @Tags Search
// @Produce json
// @Param source path string true "Provider" Enums(yelp, google, yellowpages, make)
// @Param term query string true "Search term"
// @Param location query string true "Location"
// @Param radius query int false "Radius in meters"
// @Param limit query int false "Maximum number of results"
// @Success 200 {array} domain.SearchResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /search/{source} [get]
func (h *Handler) search(c *gin.Context) {
	q := domain.Query{
		Term:     c.Query("term"),
		Location: c.Query("location"),
	}
	if q.Term == "" {
		// some clients send the google style parameter name
		q.Term = c.Query("query")
	}

	var err error
	if q.Radius, err = intQuery(c, "radius"); err != nil {
		h.writeError(c, err)
		return
	}
	if q.Limit, err = intQuery(c, "limit"); err != nil {
		h.writeError(c, err)
		return
	}

	results, err := h.searcher.Search(c.Request.Context(), c.Param("source"), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ClearCache godoc
// @Summary Clear the search response cache
// @Tags Cache
// @Success 204
// @Router /cache [delete]
func (h *Handler) clearCache(c *gin.Context) {
	h.searcher.ClearCache()
	c.Status(http.StatusNoContent)
}

// CacheStats godoc
// @Summary Get search response cache counters
// @Tags Cache
// @Produce json
// @Success 200 {object} cache.Stats
// @Router /cache/stats [get]
func (h *Handler) cacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.searcher.CacheStats())
}

// ImportLeads godoc
// @Summary Import search results as leads
// @Description Stores the results and forwards the batch to the lead webhook
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.ImportRequest true "Import request"
// @Success 201 {object} domain.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /leads/import [post]
func (h *Handler) importLeads(c *gin.Context) {
	var req domain.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
		return
	}

	result, err := h.leads.Import(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListLeads godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param source query string false "Source filter"
// @Param status query string false "Status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} domain.Lead
// @Failure 400 {object} ErrorResponse
// @Router /leads [get]
func (h *Handler) listLeads(c *gin.Context) {
	filter := domain.LeadFilter{
		Source: c.Query("source"),
		Status: domain.LeadStatus(c.Query("status")),
	}

	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		h.writeError(c, err)
		return
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		h.writeError(c, err)
		return
	}

	leads, err := h.leads.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

// UpdateLeadStatus godoc
// @Summary Update status of a lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path int true "Lead id"
// @Param request body statusUpdate true "New status"
// @Success 200 {object} domain.Lead
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /leads/{id}/status [patch]
func (h *Handler) updateLeadStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		h.writeError(c, &domain.ValidationError{Field: "id", Reason: "must be a positive integer"})
		return
	}

	var body statusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
		return
	}

	lead, err := h.leads.UpdateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// GetImportReceipt godoc
// @Summary Get receipt of a dispatched import
// @Tags Leads
// @Produce json
// @Param id path string true "Import id"
// @Success 200 {object} domain.ImportReceipt
// @Failure 404 {object} ErrorResponse
// @Router /imports/{id} [get]
func (h *Handler) getImportReceipt(c *gin.Context) {
	receipt, err := h.leads.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// writeError maps service errors to status codes. Internal details are only logged.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		validationErr *domain.ValidationError
		providerErr   *domain.ProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Error()})
	case errors.Is(err, domain.ErrUnknownSource),
		errors.Is(err, domain.ErrLeadNotFound),
		errors.Is(err, domain.ErrImportNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.As(err, &providerErr):
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:  "failed to fetch results from provider",
			Source: providerErr.Source,
		})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return v, nil
}
