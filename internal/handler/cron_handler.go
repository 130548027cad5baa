package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	"github.com/Offical-Dhiraj/bloodchain/pkg/response"
)

// CronHandler exposes the scheduler-triggered maintenance endpoints. Routes
// are guarded by the cron secret, not user tokens.
type CronHandler struct {
	lifecycle  *service.LifecycleService
	reputation *service.ReputationService
	matching   *service.MatchingService
	fraud      *service.FraudService
}

// NewCronHandler constructs a cron handler.
func NewCronHandler(
	lifecycle *service.LifecycleService,
	reputation *service.ReputationService,
	matching *service.MatchingService,
	fraud *service.FraudService,
) *CronHandler {
	return &CronHandler{lifecycle: lifecycle, reputation: reputation, matching: matching, fraud: fraud}
}

// ExpireMatches godoc
// @Summary Expire overdue match offers and requests
// @Tags Cron
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cron/expire-matches [post]
func (h *CronHandler) ExpireMatches(c *gin.Context) {
	expired, err := h.lifecycle.SweepExpired(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"expired": expired}, nil)
}

// DecayReputation godoc
// @Summary Apply inactivity decay to dormant donors
// @Tags Cron
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cron/decay-reputation [post]
func (h *CronHandler) DecayReputation(c *gin.Context) {
	decayed, err := h.reputation.DecayInactive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"decayed": decayed}, nil)
}

// RunMatching godoc
// @Summary Rank candidates for every open request without live offers
// @Tags Cron
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cron/run-matching [post]
func (h *CronHandler) RunMatching(c *gin.Context) {
	ranked, err := h.matching.MatchOpenRequests(c.Request.Context(), 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"ranked": ranked}, nil)
}

// DetectFraud godoc
// @Summary Rescore donor fraud risk and block offenders
// @Tags Cron
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cron/detect-fraud [post]
func (h *CronHandler) DetectFraud(c *gin.Context) {
	scored, blocked, err := h.fraud.ScanDonors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"scored": scored, "blocked": blocked}, nil)
}
