package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ceramico/pkg/logger"
	"ceramico/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	listByUserFunc func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
	cancelFunc     func(ctx context.Context, id, requesterID string, isAdmin bool) error
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	return nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id, requesterID string, isAdmin bool) (*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) ListByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, id, requesterID string, isAdmin bool) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, requesterID, isAdmin)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func TestGetAll_AdminOnly(t *testing.T) {
	router := newRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("X-User-ID", "user-42")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin listing, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("X-User-Role", "admin")
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin listing, got %d", rec.Code)
	}
}

func TestListMine_ScopedToRequester(t *testing.T) {
	var capturedUserID string
	router := newRouter(&mockBookingService{
		listByUserFunc: func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
			capturedUserID = userID
			return []*model.Booking{}, 0, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/mine", nil)
	req.Header.Set("X-User-ID", "user-42")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if capturedUserID != "user-42" {
		t.Errorf("expected listing scoped to user-42, got %q", capturedUserID)
	}
}

func TestListMine_MissingIdentity(t *testing.T) {
	router := newRouter(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/mine", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without X-User-ID header, got %d", rec.Code)
	}
}

func TestCancel_PassesCallerContext(t *testing.T) {
	var gotID, gotRequester string
	var gotAdmin bool
	router := newRouter(&mockBookingService{
		cancelFunc: func(ctx context.Context, id, requesterID string, isAdmin bool) error {
			gotID, gotRequester, gotAdmin = id, requesterID, isAdmin
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/65f100000000000000000001/cancel", nil)
	req.Header.Set("X-User-ID", "user-42")
	req.Header.Set("X-User-Role", "admin")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if gotID != "65f100000000000000000001" || gotRequester != "user-42" || !gotAdmin {
		t.Errorf("unexpected cancel arguments: id=%q requester=%q admin=%v", gotID, gotRequester, gotAdmin)
	}
}
