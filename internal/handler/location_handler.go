package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Offical-Dhiraj/bloodchain/internal/dto"
	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/response"
)

// LocationHandler exposes the live donor position side channel.
type LocationHandler struct {
	locations *service.LocationService
}

// NewLocationHandler constructs a location handler.
func NewLocationHandler(locations *service.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// Report godoc
// @Summary Report the caller's current position
// @Tags Location
// @Accept json
// @Produce json
// @Param payload body dto.UpdateLocationRequest true "Coordinates"
// @Success 204
// @Router /location [put]
func (h *LocationHandler) Report(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.locations.Report(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
