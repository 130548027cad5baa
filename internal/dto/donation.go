package dto

// ConfirmDonationRequest completes an accepted match with collection proof.
type ConfirmDonationRequest struct {
	UnitsCollected int    `json:"units_collected" validate:"required,min=1,max=10"`
	ProofHash      string `json:"proof_hash" validate:"required"`
}

// ConfirmDonationResult reports the outcome of the settlement saga.
type ConfirmDonationResult struct {
	DonationID   string `json:"donation_id"`
	SettlementID string `json:"settlement_id"`
	RewardTokens int64  `json:"reward_tokens"`
}
