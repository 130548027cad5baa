package settlement

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

// Receipt is the gateway acknowledgement for a recorded donation.
type Receipt struct {
	SettlementID string    `json:"settlement_id"`
	TxHash       string    `json:"tx_hash"`
	ChainID      int64     `json:"chain_id"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Record is the donation settlement payload sent to the chain gateway.
type Record struct {
	DonationID     string `json:"donation_id"`
	MatchID        string `json:"match_id"`
	DonorID        string `json:"donor_id"`
	RequestID      string `json:"request_id"`
	UnitsCollected int    `json:"units_collected"`
	ProofDigest    string `json:"proof_digest"`
	ChainID        int64  `json:"chain_id"`
}

// Client talks to the external settlement gateway over HTTP.
type Client struct {
	baseURL string
	chainID int64
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, chainID int64, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		chainID: chainID,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ProofDigest derives the keccak-256 digest the gateway anchors on chain. The
// digest binds the donation to its match and the facility-provided proof hash.
func ProofDigest(donationID, matchID, proofHash string) string {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "%s|%s|%s", donationID, matchID, proofHash)
	return hex.EncodeToString(h.Sum(nil))
}

// Settle submits a donation record and returns the gateway receipt.
func (c *Client) Settle(ctx context.Context, rec Record) (*Receipt, error) {
	rec.ChainID = c.chainID

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.ErrSettlement.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/settlements", bytes.NewReader(body))
	if err != nil {
		return nil, errors.ErrSettlement.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.ErrSettlement.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Sugar().Warnw("settlement gateway rejected record",
			"status", resp.StatusCode, "donation_id", rec.DonationID, "body", string(snippet))
		return nil, errors.ErrSettlement.Wrap(fmt.Errorf("gateway returned %d", resp.StatusCode))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, errors.ErrSettlement.Wrap(err)
	}
	if receipt.SettlementID == "" {
		return nil, errors.ErrSettlement.Wrap(fmt.Errorf("gateway receipt missing settlement id"))
	}
	return &receipt, nil
}
