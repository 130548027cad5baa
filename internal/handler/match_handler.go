package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/response"
)

// MatchHandler exposes the donor-facing match lifecycle endpoints.
type MatchHandler struct {
	lifecycle *service.LifecycleService
	donors    *service.DonorService
}

// NewMatchHandler constructs a match handler.
func NewMatchHandler(lifecycle *service.LifecycleService, donors *service.DonorService) *MatchHandler {
	return &MatchHandler{lifecycle: lifecycle, donors: donors}
}

func (h *MatchHandler) donorID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	donor, err := h.donors.GetByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "no donor profile for this account"))
		return "", false
	}
	return donor.ID, true
}

// Accept godoc
// @Summary Accept a match offer
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/accept [post]
func (h *MatchHandler) Accept(c *gin.Context) {
	donorID, ok := h.donorID(c)
	if !ok {
		return
	}

	match, err := h.lifecycle.Accept(c.Request.Context(), c.Param("id"), donorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// Reject godoc
// @Summary Reject a match offer
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/reject [post]
func (h *MatchHandler) Reject(c *gin.Context) {
	donorID, ok := h.donorID(c)
	if !ok {
		return
	}

	match, err := h.lifecycle.Reject(c.Request.Context(), c.Param("id"), donorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}
