package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Offical-Dhiraj/bloodchain/internal/dto"
	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/response"
)

// DonationHandler exposes donation confirmation and history endpoints.
type DonationHandler struct {
	donations *service.DonationService
	donors    *service.DonorService
}

// NewDonationHandler constructs a donation handler.
func NewDonationHandler(donations *service.DonationService, donors *service.DonorService) *DonationHandler {
	return &DonationHandler{donations: donations, donors: donors}
}

func (h *DonationHandler) donorID(c *gin.Context) (string, bool) {
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

// Confirm godoc
// @Summary Confirm a collected donation and settle it
// @Tags Donations
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body dto.ConfirmDonationRequest true "Donation proof"
// @Success 200 {object} response.Envelope
// @Router /matches/{id}/donation [post]
func (h *DonationHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	donorID, ok := h.donorID(c)
	if !ok {
		return
	}

	result, err := h.donations.ConfirmDonation(c.Request.Context(), c.Param("id"), donorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary List the caller's donations
// @Tags Donations
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /donations [get]
func (h *DonationHandler) History(c *gin.Context) {
	donorID, ok := h.donorID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	donations, err := h.donations.History(c.Request.Context(), donorID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, nil)
}

// Export godoc
// @Summary Export the caller's donation history
// @Tags Donations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /donations/export [get]
func (h *DonationHandler) Export(c *gin.Context) {
	donorID, ok := h.donorID(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "csv")
	data, contentType, err := h.donations.ExportHistory(c.Request.Context(), donorID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if format == "pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="donations.%s"`, ext))
	c.Data(http.StatusOK, contentType, data)
}
