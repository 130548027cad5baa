package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Offical-Dhiraj/bloodchain/internal/dto"
	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/response"
)

// RequestHandler exposes blood request endpoints.
type RequestHandler struct {
	requests *service.RequestService
	matching *service.MatchingService
}

// NewRequestHandler constructs a request handler.
func NewRequestHandler(requests *service.RequestService, matching *service.MatchingService) *RequestHandler {
	return &RequestHandler{requests: requests, matching: matching}
}

// Create godoc
// @Summary Open a blood request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateBloodRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateBloodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	created, err := h.requests.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List active blood requests
// @Tags Requests
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	requests, err := h.requests.ListActive(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get a request with its match offers
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	detail, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Match godoc
// @Summary Rank donors and create match offers for a request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Param limit query int false "Maximum offers"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/matches [post]
func (h *RequestHandler) Match(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	offers, err := h.matching.RankCandidates(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offers, nil)
}
