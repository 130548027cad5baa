package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Offical-Dhiraj/bloodchain/internal/middleware"
	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/service"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
)

type requestStoreMock struct {
	created []*models.BloodRequest
	req     *models.BloodRequest
	active  []models.BloodRequest
}

func (m *requestStoreMock) Create(_ context.Context, req *models.BloodRequest) error {
	req.ID = "req-1"
	m.created = append(m.created, req)
	return nil
}

func (m *requestStoreMock) GetByID(context.Context, string) (*models.BloodRequest, error) {
	return m.req, nil
}

func (m *requestStoreMock) ListActive(context.Context, int) ([]models.BloodRequest, error) {
	return m.active, nil
}

type matchListerMock struct{ matches []models.MatchRecord }

func (m *matchListerMock) ListByRequest(context.Context, string) ([]models.MatchRecord, error) {
	return m.matches, nil
}

func newRequestHandlerForTest(store *requestStoreMock) *RequestHandler {
	cfg := config.RequestConfig{DefaultRadiusKm: 50, TTL: 24 * time.Hour}
	requestService := service.NewRequestService(store, &matchListerMock{}, cfg, nil)
	return NewRequestHandler(requestService, nil)
}

func TestRequestHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &requestStoreMock{}
	h := newRequestHandlerForTest(store)

	body, _ := json.Marshal(map[string]interface{}{
		"blood_type": "O",
		"rh_factor":  "NEGATIVE",
		"units":      2,
		"urgency":    "HIGH",
		"latitude":   -6.2,
		"longitude":  106.8,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-r", Role: models.RoleRecipient})

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, "user-r", store.created[0].RecipientID)
	assert.Equal(t, 50.0, store.created[0].RadiusKm)
	assert.Equal(t, models.RequestStatusOpen, store.created[0].Status)
}

func TestRequestHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newRequestHandlerForTest(&requestStoreMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString(`{"blood_type":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-r", Role: models.RoleRecipient})

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerCreateUnknownUrgency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &requestStoreMock{}
	h := newRequestHandlerForTest(store)

	body, _ := json.Marshal(map[string]interface{}{
		"blood_type": "O",
		"rh_factor":  "NEGATIVE",
		"units":      2,
		"urgency":    "PANIC",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-r", Role: models.RoleRecipient})

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.created)
}

func TestRequestHandlerCreateWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newRequestHandlerForTest(&requestStoreMock{})

	body, _ := json.Marshal(map[string]interface{}{
		"blood_type": "O",
		"rh_factor":  "NEGATIVE",
		"units":      1,
		"urgency":    "LOW",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/requests", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &requestStoreMock{active: []models.BloodRequest{{ID: "req-1"}, {ID: "req-2"}}}
	h := newRequestHandlerForTest(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/requests?limit=10", nil)
	c.Request = req

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "req-2")
}
