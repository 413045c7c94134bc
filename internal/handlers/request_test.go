package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrasadPotale/StudentsAid/internal/ledger"
	"github.com/PrasadPotale/StudentsAid/internal/middleware"
	"github.com/PrasadPotale/StudentsAid/internal/models"
)

// fakeStore is a minimal in-memory ledger.Store with the same atomic
// debit contract as the SQL store.
type fakeStore struct {
	mu        sync.Mutex
	requests  map[string]*models.DonationRequest
	donations []models.Donation
	verified  map[string]bool
	docs      map[string][]models.Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: make(map[string]*models.DonationRequest),
		verified: make(map[string]bool),
		docs:     make(map[string][]models.Document),
	}
}

func (s *fakeStore) InsertRequest(_ context.Context, req *models.DonationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	cp.CreatedAt = time.Now()
	s.requests[req.ID] = &cp
	return nil
}

func (s *fakeStore) RequestByID(_ context.Context, id string) (*models.DonationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *fakeStore) OpenRequests(_ context.Context) ([]models.RequestListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.RequestListing{}
	for _, req := range s.requests {
		if req.Status == models.StatusOpen {
			out = append(out, models.RequestListing{
				DonationRequest: *req,
				Documents:       s.docs[req.StudentID],
			})
		}
	}
	return out, nil
}

func (s *fakeStore) RequestsByStudent(_ context.Context, studentID string) ([]models.DonationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.DonationRequest{}
	for _, req := range s.requests {
		if req.StudentID == studentID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s *fakeStore) DonationsByDonor(_ context.Context, donorID string) ([]models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Donation{}
	for _, d := range s.donations {
		if d.DonorID == donorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) HasVerifiedDocument(_ context.Context, profileID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified[profileID], nil
}

func (s *fakeStore) ApplyDonation(_ context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[d.RequestID]
	if !ok {
		return ledger.ErrNotFound
	}
	if d.Amount > req.RemainingAmount {
		return ledger.ErrInvalidAmount
	}
	req.RemainingAmount -= d.Amount
	req.Status = models.StatusForRemaining(req.RemainingAmount)
	d.CreatedAt = time.Now()
	s.donations = append(s.donations, *d)
	return nil
}

// asUser stands in for the auth middleware in tests.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, id)
		c.Next()
	}
}

func newTestRouter(store *fakeStore, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	// A client with nowhere to connect: every cache call misses, which
	// is the degraded path the handlers must tolerate anyway.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	h := NewRequestHandler(ledger.New(store), rdb)

	r := gin.New()
	r.GET("/api/requests", h.ListOpen)
	authed := r.Group("/api", asUser(userID))
	authed.POST("/requests", h.Create)
	authed.GET("/me/requests", h.MyRequests)
	authed.POST("/requests/:id/donate", h.Donate)
	authed.GET("/me/donations", h.MyDonations)
	return r
}

func seedRequest(store *fakeStore, studentID string, amount int64, verified bool) *models.DonationRequest {
	req := &models.DonationRequest{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		DonationType:    models.RequestBooks,
		Amount:          amount,
		RemainingAmount: amount,
		Status:          models.StatusOpen,
	}
	_ = store.InsertRequest(context.Background(), req)
	store.verified[studentID] = verified
	store.docs[studentID] = []models.Document{
		{ID: uuid.NewString(), ProfileID: studentID, DocumentType: models.DocAdmissionBill, Verified: verified},
	}
	return req
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRequestEndpoint(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, "student-1")

	w := postJSON(t, r, "/api/requests", gin.H{
		"donation_type": "books",
		"amount":        1500,
		"description":   "semester textbooks",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.DonationRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "student-1", created.StudentID)
	assert.Equal(t, models.StatusOpen, created.Status)
	assert.Equal(t, int64(1500), created.RemainingAmount)
}

func TestCreateRequestEndpointRejectsBadAmount(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, "student-1")

	w := postJSON(t, r, "/api/requests", gin.H{
		"donation_type": "books",
		"amount":        -100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.requests)
}

func TestListOpenReportsContributable(t *testing.T) {
	store := newFakeStore()
	verified := seedRequest(store, "student-verified", 1000, true)
	pending := seedRequest(store, "student-pending", 500, false)
	r := newTestRouter(store, "donor-1")

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Requests []struct {
			models.DonationRequest
			Contributable bool `json:"contributable"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Requests, 2)

	byID := map[string]bool{}
	for _, entry := range resp.Requests {
		byID[entry.ID] = entry.Contributable
	}
	assert.True(t, byID[verified.ID])
	assert.False(t, byID[pending.ID])
}

func TestDonateEndpoint(t *testing.T) {
	store := newFakeStore()
	req := seedRequest(store, "student-1", 1000, true)
	r := newTestRouter(store, "donor-1")

	w := postJSON(t, r, "/api/requests/"+req.ID+"/donate", gin.H{"amount": 400})
	require.Equal(t, http.StatusCreated, w.Code)

	var donation models.Donation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &donation))
	assert.Equal(t, "donor-1", donation.DonorID)
	assert.Equal(t, int64(400), donation.Amount)

	after, err := store.RequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), after.RemainingAmount)
	assert.Equal(t, models.StatusInProgress, after.Status)
}

func TestDonateEndpointRejectsOverAmount(t *testing.T) {
	store := newFakeStore()
	req := seedRequest(store, "student-1", 1000, true)
	req.RemainingAmount = 300
	store.requests[req.ID].RemainingAmount = 300
	r := newTestRouter(store, "donor-1")

	w := postJSON(t, r, "/api/requests/"+req.ID+"/donate", gin.H{"amount": 500})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	after, err := store.RequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), after.RemainingAmount)
	assert.Empty(t, store.donations)
}

func TestDonateEndpointRejectsUnverifiedStudent(t *testing.T) {
	store := newFakeStore()
	req := seedRequest(store, "student-1", 1000, false)
	r := newTestRouter(store, "donor-1")

	w := postJSON(t, r, "/api/requests/"+req.ID+"/donate", gin.H{"amount": 100})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, store.donations)
}

func TestDonateEndpointUnknownRequest(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, "donor-1")

	w := postJSON(t, r, "/api/requests/"+uuid.NewString()+"/donate", gin.H{"amount": 100})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyDonations(t *testing.T) {
	store := newFakeStore()
	req := seedRequest(store, "student-1", 1000, true)
	r := newTestRouter(store, "donor-1")

	postJSON(t, r, "/api/requests/"+req.ID+"/donate", gin.H{"amount": 250})
	postJSON(t, r, "/api/requests/"+req.ID+"/donate", gin.H{"amount": 150})

	getReq := httptest.NewRequest(http.MethodGet, "/api/me/donations", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, getReq)
	require.Equal(t, http.StatusOK, w.Code)

	var donations []models.Donation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &donations))
	assert.Len(t, donations, 2)
}
