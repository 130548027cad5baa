package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/response"
)

// ReputationHandler exposes donor reputation endpoints.
type ReputationHandler struct {
	reputation *service.ReputationService
	donors     *service.DonorService
}

// NewReputationHandler constructs a reputation handler.
func NewReputationHandler(reputation *service.ReputationService, donors *service.DonorService) *ReputationHandler {
	return &ReputationHandler{reputation: reputation, donors: donors}
}

// resolveDonorID allows donors to read their own reputation and admins to
// read anyone's.
func (h *ReputationHandler) resolveDonorID(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}

	target := c.Param("donorId")
	if claims.Role == models.RoleAdmin {
		return target, true
	}

	donor, err := h.donors.GetByUser(c.Request.Context(), claims.UserID)
	if err != nil || donor.ID != target {
		response.Error(c, appErrors.ErrForbidden)
		return "", false
	}
	return target, true
}

// Stats godoc
// @Summary Get a donor's reputation stats
// @Tags Reputation
// @Produce json
// @Param donorId path string true "Donor ID"
// @Success 200 {object} response.Envelope
// @Router /reputation/{donorId} [get]
func (h *ReputationHandler) Stats(c *gin.Context) {
	donorID, ok := h.resolveDonorID(c)
	if !ok {
		return
	}

	stats, err := h.reputation.Stats(c.Request.Context(), donorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// History godoc
// @Summary List a donor's reputation events
// @Tags Reputation
// @Produce json
// @Param donorId path string true "Donor ID"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reputation/{donorId}/events [get]
func (h *ReputationHandler) History(c *gin.Context) {
	donorID, ok := h.resolveDonorID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.reputation.History(c.Request.Context(), donorID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// ReportFailure godoc
// @Summary Record a failed donation against a donor
// @Tags Reputation
// @Produce json
// @Param donorId path string true "Donor ID"
// @Success 200 {object} response.Envelope
// @Router /reputation/{donorId}/failures [post]
func (h *ReputationHandler) ReportFailure(c *gin.Context) {
	stats, err := h.reputation.OnDonationFailed(c.Request.Context(), c.Param("donorId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
