package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ceramico/pkg/logger"
	"ceramico/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockWorkshopService struct {
	createFunc       func(ctx context.Context, w *model.Workshop) error
	availabilityFunc func(ctx context.Context, id string) ([]model.SessionAvailability, error)
}

func (m *mockWorkshopService) Create(ctx context.Context, w *model.Workshop) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, w)
	}
	return nil
}

func (m *mockWorkshopService) GetByID(ctx context.Context, id string) (*model.Workshop, error) {
	return nil, nil
}

func (m *mockWorkshopService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Workshop, int64, error) {
	return []*model.Workshop{}, 0, nil
}

func (m *mockWorkshopService) Update(ctx context.Context, id string, updates *model.WorkshopUpdate) error {
	return nil
}

func (m *mockWorkshopService) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockWorkshopService) Availability(ctx context.Context, id string) ([]model.SessionAvailability, error) {
	if m.availabilityFunc != nil {
		return m.availabilityFunc(ctx, id)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func newRouter(svc *mockWorkshopService) *httprouter.Router {
	router := httprouter.New()
	NewWorkshopHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func TestCreate_RequiresAdmin(t *testing.T) {
	created := false
	router := newRouter(&mockWorkshopService{
		createFunc: func(ctx context.Context, w *model.Workshop) error {
			created = true
			return nil
		},
	})

	body := `{"title":"Wheel Throwing","instructor":"Mara Ellison"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workshops", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without admin role, got %d", rec.Code)
	}
	if created {
		t.Error("service should not be called for a non-admin caller")
	}

	// Same request with the admin role goes through.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/workshops", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Role", "admin")
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201 for admin, got %d", rec.Code)
	}
	if !created {
		t.Error("service should be called for an admin caller")
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	router := newRouter(&mockWorkshopService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workshops", strings.NewReader("{not json"))
	req.Header.Set("X-User-Role", "admin")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestAvailability_PublicEndpoint(t *testing.T) {
	router := newRouter(&mockWorkshopService{
		availabilityFunc: func(ctx context.Context, id string) ([]model.SessionAvailability, error) {
			return []model.SessionAvailability{
				{SessionID: "3b8f7a34-11b9-4c9e-9f2e-1df6f5a90001", BookedSpots: 2, AvailableSpots: 6},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workshops/id/65f000000000000000000001/availability", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without any role header, got %d", rec.Code)
	}

	var resp struct {
		Data []model.SessionAvailability `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].AvailableSpots != 6 {
		t.Errorf("unexpected availability payload: %+v", resp.Data)
	}
}
