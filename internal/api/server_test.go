package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus()
	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, &logger)
	bookings := service.NewBookingService(db, bus, &logger)
	requests := service.NewRequestService(db, &logger)

	srv := NewServer(config.ServerConfig{Port: 0}, users, items, bookings, requests, &logger)
	return srv.Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(models.UserIDHeader, strconv.FormatInt(userID, 10))
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &v))
	return v
}

func createUserViaAPI(t *testing.T, handler http.Handler, name, email string) models.User {
	t.Helper()
	resp := doRequest(t, handler, http.MethodPost, "/users", 0, models.User{Name: name, Email: email})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decodeBody[models.User](t, resp)
}

func createItemViaAPI(t *testing.T, handler http.Handler, ownerID int64, name string, available bool) models.Item {
	t.Helper()
	resp := doRequest(t, handler, http.MethodPost, "/items", ownerID,
		models.Item{Name: name, Description: name + " description", Available: available})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decodeBody[models.Item](t, resp)
}

func TestUserEndpoints(t *testing.T) {
	handler := newTestServer(t)

	user := createUserViaAPI(t, handler, "Alice", "alice@example.com")
	assert.NotZero(t, user.ID)

	// Duplicate email maps to 404 by the error contract
	resp := doRequest(t, handler, http.MethodPost, "/users", 0, models.User{Name: "Clone", Email: "alice@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Alice", decodeBody[models.User](t, resp).Name)

	resp = doRequest(t, handler, http.MethodGet, "/users/999", 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Partial update: patching the email keeps the name
	resp = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/users/%d", user.ID), 0,
		map[string]string{"email": "alicia@example.com"})
	require.Equal(t, http.StatusOK, resp.Code)
	updated := decodeBody[models.User](t, resp)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "alicia@example.com", updated.Email)

	resp = doRequest(t, handler, http.MethodGet, "/users", 0, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeBody[[]models.User](t, resp), 1)

	resp = doRequest(t, handler, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestItemEndpoints(t *testing.T) {
	handler := newTestServer(t)

	owner := createUserViaAPI(t, handler, "Owner", "owner@example.com")
	stranger := createUserViaAPI(t, handler, "Stranger", "stranger@example.com")
	item := createItemViaAPI(t, handler, owner.ID, "Drill", true)

	// Identity header is mandatory for creation
	resp := doRequest(t, handler, http.MethodPost, "/items", 0, models.Item{Name: "Saw", Available: true})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Unknown owner
	resp = doRequest(t, handler, http.MethodPost, "/items", 999, models.Item{Name: "Saw", Available: true})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Only the owner may patch; others see not-found
	resp = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), stranger.ID,
		map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), owner.ID,
		map[string]any{"available": false})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decodeBody[models.Item](t, resp).Available)

	resp = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), 0, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	details := decodeBody[models.ItemDetails](t, resp)
	assert.Equal(t, "Drill", details.Name)
	assert.Nil(t, details.LastBooking)
	assert.NotNil(t, details.Comments)

	resp = doRequest(t, handler, http.MethodGet, "/items", owner.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeBody[[]models.Item](t, resp), 1)
}

func TestSearchEndpoint(t *testing.T) {
	handler := newTestServer(t)

	owner := createUserViaAPI(t, handler, "Owner", "owner@example.com")
	createItemViaAPI(t, handler, owner.ID, "Power Drill", true)
	createItemViaAPI(t, handler, owner.ID, "Broken Drill", false)

	resp := doRequest(t, handler, http.MethodGet, "/items/search?text=drill", 0, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	items := decodeBody[[]models.Item](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "Power Drill", items[0].Name)

	// Blank text is an empty result, not a full listing
	resp = doRequest(t, handler, http.MethodGet, "/items/search?text=", 0, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeBody[[]models.Item](t, resp))
}

func TestBookingEndpoints(t *testing.T) {
	handler := newTestServer(t)

	owner := createUserViaAPI(t, handler, "Owner", "owner@example.com")
	booker := createUserViaAPI(t, handler, "Booker", "booker@example.com")
	stranger := createUserViaAPI(t, handler, "Stranger", "stranger@example.com")
	item := createItemViaAPI(t, handler, owner.ID, "Drill", true)

	now := time.Now()
	payload := models.Booking{
		Start:  now.Add(24 * time.Hour),
		End:    now.Add(48 * time.Hour),
		ItemID: item.ID,
	}

	// Owner cannot book their own item
	resp := doRequest(t, handler, http.MethodPost, "/bookings", owner.ID, payload)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	resp = doRequest(t, handler, http.MethodPost, "/bookings", booker.ID, payload)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	booking := decodeBody[models.Booking](t, resp)
	assert.Equal(t, models.StatusWaiting, booking.Status)

	// Visibility: booker and owner yes, stranger 403
	resp = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), booker.ID, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), stranger.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Only the owner approves
	resp = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), booker.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.StatusApproved, decodeBody[models.Booking](t, resp).Status)

	// Second resolution fails
	resp = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=false", booking.ID), owner.ID, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	// Malformed approved flag
	resp = doRequest(t, handler, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=maybe", booking.ID), owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Listing by state
	resp = doRequest(t, handler, http.MethodGet, "/bookings?state=FUTURE", booker.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeBody[[]models.Booking](t, resp), 1)

	resp = doRequest(t, handler, http.MethodGet, "/bookings?state=PAST", booker.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeBody[[]models.Booking](t, resp))

	resp = doRequest(t, handler, http.MethodGet, "/bookings?state=SOMEDAY", booker.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBookingExportEndpoint(t *testing.T) {
	handler := newTestServer(t)

	owner := createUserViaAPI(t, handler, "Owner", "owner@example.com")
	booker := createUserViaAPI(t, handler, "Booker", "booker@example.com")
	item := createItemViaAPI(t, handler, owner.ID, "Drill", true)

	now := time.Now()
	resp := doRequest(t, handler, http.MethodPost, "/bookings", booker.ID, models.Booking{
		Start:  now.Add(24 * time.Hour),
		End:    now.Add(48 * time.Hour),
		ItemID: item.ID,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(t, handler, http.MethodGet, "/bookings/export", booker.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header().Get("Content-Type"))
	assert.NotEmpty(t, resp.Body.Bytes())
}

func TestRequestEndpoints(t *testing.T) {
	handler := newTestServer(t)

	requestor := createUserViaAPI(t, handler, "Requestor", "requestor@example.com")
	other := createUserViaAPI(t, handler, "Other", "other@example.com")

	resp := doRequest(t, handler, http.MethodPost, "/requests", requestor.ID,
		map[string]string{"description": "need a drill"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	request := decodeBody[models.ItemRequest](t, resp)
	assert.NotZero(t, request.ID)
	assert.NotNil(t, request.Items)

	// An item created against the request shows up under it
	resp = doRequest(t, handler, http.MethodPost, "/items", other.ID,
		models.Item{Name: "Drill", Description: "responds to the request", Available: true, RequestID: &request.ID})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(t, handler, http.MethodGet, fmt.Sprintf("/requests/%d", request.ID), requestor.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeBody[models.ItemRequest](t, resp)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Drill", got.Items[0].Name)

	// Own requests vs everyone else's
	resp = doRequest(t, handler, http.MethodGet, "/requests", requestor.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeBody[[]models.ItemRequest](t, resp), 1)

	resp = doRequest(t, handler, http.MethodGet, "/requests/all", requestor.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeBody[[]models.ItemRequest](t, resp))

	resp = doRequest(t, handler, http.MethodGet, "/requests/all", other.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeBody[[]models.ItemRequest](t, resp), 1)

	// Unknown caller
	resp = doRequest(t, handler, http.MethodGet, "/requests", 999, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCommentEndpoint(t *testing.T) {
	handler := newTestServer(t)

	owner := createUserViaAPI(t, handler, "Owner", "owner@example.com")
	booker := createUserViaAPI(t, handler, "Booker", "booker@example.com")
	item := createItemViaAPI(t, handler, owner.ID, "Drill", true)

	// Commenting without a finished rental is a validation failure
	resp := doRequest(t, handler, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), booker.ID,
		map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t)

	resp := doRequest(t, handler, http.MethodGet, "/health", 0, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, resp)["status"])
}
