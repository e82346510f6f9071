package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/civic_alerts/internal/config"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/shenikar/civic_alerts/internal/service"
	"github.com/shenikar/civic_alerts/internal/service/mocks"
	"github.com/shenikar/civic_alerts/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var authHeader = map[string]string{"X-API-Key": "test-api-key"}

type testMocks struct {
	alerts     *mocks.MockAlertService
	cameras    *mocks.MockCameraService
	detections *mocks.MockDetectionService
	contact    *mocks.MockContactService
}

type fakeUploader struct {
	url         string
	err         error
	name        string
	contentType string
	body        []byte
}

func (f *fakeUploader) Upload(_ context.Context, name string, r io.Reader, _ int64, contentType string) (string, error) {
	f.name = name
	f.contentType = contentType
	f.body, _ = io.ReadAll(r)
	return f.url, f.err
}

type fakeAirQuality map[string]models.AirQualityReading

func (f fakeAirQuality) Get(id string) (models.AirQualityReading, bool) {
	r, ok := f[id]
	return r, ok
}

func (f fakeAirQuality) List() []models.AirQualityReading {
	out := make([]models.AirQualityReading, 0, len(f))
	for _, r := range f {
		out = append(out, r)
	}
	return out
}

func testHandlerConfig() *config.Config {
	return &config.Config{
		APIKeys:         []string{"test-api-key"},
		StreamHeartbeat: 30 * time.Second,
		UploadMaxBytes:  1 << 20,
	}
}

// newTestHandler создает Handler с мокированными сервисами
func newTestHandler(t *testing.T, opts ...func(*Dependencies)) (*Handler, testMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)
	m := testMocks{
		alerts:     mocks.NewMockAlertService(ctrl),
		cameras:    mocks.NewMockCameraService(ctrl),
		detections: mocks.NewMockDetectionService(ctrl),
		contact:    mocks.NewMockContactService(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	deps := Dependencies{
		Alerts:     m.alerts,
		Cameras:    m.cameras,
		Detections: m.detections,
		Contact:    m.contact,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	handler := NewHandler(deps, logger, testHandlerConfig())
	handler.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return handler, m, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["error"]
}

func sampleAlert(id string, status models.AlertStatus) *models.Alert {
	return &models.Alert{
		ID:          id,
		IssueType:   models.IssuePothole,
		Status:      status,
		Source:      models.SourceCitizen,
		Confidence:  0.9,
		Location:    "Main St & 3rd",
		Timestamp:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Description: "Deep pothole",
	}
}

func TestCreateAlert_Success(t *testing.T) {
	_, m, router := newTestHandler(t)
	reqBody := CreateAlertRequest{
		IssueType:   "pothole",
		Location:    "Main St & 3rd",
		Description: "Deep pothole",
		Images:      []string{"https://img.example.com/a.jpg"},
		Contact:     &ContactRequest{Name: "Ann", Email: "ann@example.com"},
	}

	m.alerts.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *models.Alert) error {
		assert.Equal(t, models.IssuePothole, a.IssueType)
		assert.Equal(t, "Main St & 3rd", a.Location)
		require.NotNil(t, a.Contact)
		assert.Equal(t, "ann@example.com", a.Contact.Email)
		a.ID = "1700000000000-abc"
		a.Status = models.StatusPending
		return nil
	})

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts", jsonBody(t, reqBody))

	require.Equal(t, http.StatusCreated, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1700000000000-abc", resp.ID)
	assert.Equal(t, "Pending", resp.Status)
	assert.Equal(t, []string{"https://img.example.com/a.jpg"}, resp.Images)
}

func TestCreateAlert_InvalidJSON(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts", strings.NewReader("{invalid"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", errorMessage(t, w))
}

func TestCreateAlert_ValidationError(t *testing.T) {
	_, _, router := newTestHandler(t)
	reqBody := CreateAlertRequest{IssueType: "pothole"}

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts", jsonBody(t, reqBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "Location")
}

func TestCreateAlert_ServiceValidationError(t *testing.T) {
	_, m, router := newTestHandler(t)
	reqBody := CreateAlertRequest{IssueType: "flood", Location: "River Rd"}

	m.alerts.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).
		Return(&service.ValidationError{Field: "issue_type", Message: "must be one of accident, traffic, pothole, garbage"})

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts", jsonBody(t, reqBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "issue_type: must be one of accident, traffic, pothole, garbage", errorMessage(t, w))
}

func TestCreateAlert_DuplicateID(t *testing.T) {
	_, m, router := newTestHandler(t)
	reqBody := CreateAlertRequest{ID: "A1", IssueType: "pothole", Location: "Main St"}

	m.alerts.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("service: could not create alert: %w", service.ErrAlreadyExists))

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts", jsonBody(t, reqBody))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "alert already exists", errorMessage(t, w))
}

func TestGetAlert_Success(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().GetAlert(gomock.Any(), "A1").Return(sampleAlert("A1", models.StatusPending), nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/A1", nil, authHeader)

	require.Equal(t, http.StatusOK, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A1", resp.ID)
	assert.Equal(t, []string{}, resp.Images)
}

func TestGetAlert_NotFound(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().GetAlert(gomock.Any(), "missing").
		Return(nil, fmt.Errorf("service: could not get alert: %w", service.ErrNotFound))

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/missing", nil, authHeader)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "alert not found", errorMessage(t, w))
}

func TestGetAlert_RequiresAPIKey(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/A1", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAlerts_Filters(t *testing.T) {
	_, m, router := newTestHandler(t)
	expected := models.AlertFilter{
		Status:    models.StatusPending,
		IssueType: models.IssueGarbage,
		Page:      2,
		PageSize:  5,
	}
	m.alerts.EXPECT().ListAlerts(gomock.Any(), expected).
		Return([]*models.Alert{sampleAlert("A2", models.StatusPending), sampleAlert("A1", models.StatusPending)}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts?status=Pending&issue_type=garbage&page=2&page_size=5", nil, authHeader)

	require.Equal(t, http.StatusOK, w.Code)
	var resp []AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "A2", resp[0].ID)
}

func TestListAlerts_ServiceError(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().ListAlerts(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts", nil, authHeader)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", errorMessage(t, w))
}

func TestRecentAlerts_LimitIsCapped(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().ListAlerts(gomock.Any(), models.AlertFilter{Page: 1, PageSize: maxRecentLimit}).
		Return([]*models.Alert{}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/recent?limit=500", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestRecentAlerts_DefaultLimit(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().ListAlerts(gomock.Any(), models.AlertFilter{Page: 1, PageSize: defaultRecentLimit}).
		Return([]*models.Alert{}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/alerts/recent?limit=abc", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAlertStatus_Success(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().SetStatus(gomock.Any(), "A1", models.StatusResolved).
		Return(sampleAlert("A1", models.StatusResolved), nil)

	w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/A1", jsonBody(t, UpdateStatusRequest{Status: "Resolved"}), authHeader)

	require.Equal(t, http.StatusOK, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Resolved", resp.Status)
}

func TestUpdateAlertStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid status",
			err:        &service.ValidationError{Field: "status", Message: "must be one of Pending, Resolved, Dismissed"},
			wantStatus: http.StatusBadRequest,
			wantError:  "status: must be one of Pending, Resolved, Dismissed",
		},
		{
			name:       "unknown alert",
			err:        fmt.Errorf("service: %w", service.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantError:  "alert not found",
		},
		{
			name:       "transition rejected",
			err:        fmt.Errorf("service: %w", service.ErrInvalidTransition),
			wantStatus: http.StatusConflict,
			wantError:  "status transition not allowed",
		},
		{
			name:       "concurrent change",
			err:        fmt.Errorf("service: %w", service.ErrConflict),
			wantStatus: http.StatusConflict,
			wantError:  "alert was modified concurrently, retry",
		},
		{
			name:       "storage failure",
			err:        errors.New("connection reset by peer"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m, router := newTestHandler(t)
			m.alerts.EXPECT().SetStatus(gomock.Any(), "A1", models.AlertStatus("Closed")).Return(nil, tt.err)

			w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/A1", jsonBody(t, UpdateStatusRequest{Status: "Closed"}), authHeader)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, errorMessage(t, w))
		})
	}
}

func TestUpdateAlertStatus_UnknownAlertWithMissingStatus(t *testing.T) {
	for name, body := range map[string]string{
		"empty object": `{}`,
		"empty status": `{"status":""}`,
		"empty body":   ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, m, router := newTestHandler(t)
			m.alerts.EXPECT().SetStatus(gomock.Any(), "missing", models.AlertStatus("")).
				Return(nil, fmt.Errorf("service: %w", service.ErrNotFound))

			w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/missing", strings.NewReader(body), authHeader)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "alert not found", errorMessage(t, w))
		})
	}
}

func TestUpdateAlertStatus_KnownAlertWithMissingStatus(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().SetStatus(gomock.Any(), "A1", models.AlertStatus("")).
		Return(nil, &service.ValidationError{Field: "status", Message: "must be one of Pending, Resolved, Dismissed"})

	w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/A1", strings.NewReader(`{}`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAlertStatus_MalformedJSON(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodPatch, "/api/v1/alerts/A1", strings.NewReader(`{"status":`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", errorMessage(t, w))
}

func TestSubmitFeedback_Success(t *testing.T) {
	_, m, router := newTestHandler(t)
	updated := sampleAlert("A1", models.StatusResolved)
	updated.Feedback = &models.Feedback{Rating: 4, Comment: "fixed fast"}
	m.alerts.EXPECT().SubmitFeedback(gomock.Any(), "A1", 4, "fixed fast").Return(updated, nil)

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts/A1/feedback", jsonBody(t, FeedbackRequest{Rating: 4, Comment: "fixed fast"}))

	require.Equal(t, http.StatusOK, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Feedback)
	assert.Equal(t, 4, resp.Feedback.Rating)
}

func TestSubmitFeedback_RatingOutOfRange(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.alerts.EXPECT().SubmitFeedback(gomock.Any(), "A1", 6, "").
		Return(nil, &service.ValidationError{Field: "rating", Message: "must be between 1 and 5"})

	w := makeRequest(router, http.MethodPost, "/api/v1/alerts/A1/feedback", jsonBody(t, FeedbackRequest{Rating: 6}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "rating: must be between 1 and 5", errorMessage(t, w))
}

func TestGetAnalytics_Success(t *testing.T) {
	_, m, router := newTestHandler(t)
	avg := 4.5
	m.alerts.EXPECT().GetAnalytics(gomock.Any()).Return(&models.AlertStats{
		Total:         3,
		ByStatus:      map[models.AlertStatus]int{models.StatusPending: 2, models.StatusResolved: 1},
		ByType:        map[models.IssueType]int{models.IssuePothole: 3},
		BySource:      map[models.AlertSource]int{models.SourceCitizen: 3},
		FeedbackCount: 2,
		AverageRating: &avg,
	}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/analytics/summary", nil, authHeader)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.AlertStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.ByStatus[models.StatusPending])
	require.NotNil(t, resp.AverageRating)
	assert.InDelta(t, 4.5, *resp.AverageRating, 1e-9)
}

func TestRegisterCamera_Success(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.cameras.EXPECT().RegisterCamera(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cam *models.Camera) error {
		assert.Equal(t, "cam-1", cam.ID)
		cam.CreatedAt = time.Now()
		return nil
	})

	w := makeRequest(router, http.MethodPost, "/api/v1/cameras", jsonBody(t, CreateCameraRequest{ID: "cam-1", Name: "Bridge"}), authHeader)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp CameraResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bridge", resp.Name)
}

func TestRegisterCamera_Duplicate(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.cameras.EXPECT().RegisterCamera(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("service: could not register camera: %w", service.ErrAlreadyExists))

	w := makeRequest(router, http.MethodPost, "/api/v1/cameras", jsonBody(t, CreateCameraRequest{ID: "cam-1", Name: "Bridge"}), authHeader)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "camera already exists", errorMessage(t, w))
}

func TestSetCameraStatus(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.cameras.EXPECT().SetOnline(gomock.Any(), "cam-1", false).
		Return(&models.Camera{ID: "cam-1", Name: "Bridge", Online: false}, nil)

	w := makeRequest(router, http.MethodPatch, "/api/v1/cameras/cam-1/status", strings.NewReader(`{"online":false}`), authHeader)

	require.Equal(t, http.StatusOK, w.Code)
	var resp CameraResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Online)
}

func TestSetCameraStatus_MissingFlag(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodPatch, "/api/v1/cameras/cam-1/status", strings.NewReader(`{}`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCameraHeartbeat(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.cameras.EXPECT().Heartbeat(gomock.Any(), "cam-1").Return(nil)
	m.cameras.EXPECT().Heartbeat(gomock.Any(), "ghost").Return(fmt.Errorf("service: %w", service.ErrNotFound))

	w := makeRequest(router, http.MethodPost, "/api/v1/cameras/cam-1/heartbeat", nil, authHeader)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = makeRequest(router, http.MethodPost, "/api/v1/cameras/ghost/heartbeat", nil, authHeader)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "camera not found", errorMessage(t, w))
}

func TestSubmitDetection_CreatesAlert(t *testing.T) {
	_, m, router := newTestHandler(t)
	created := sampleAlert("D1", models.StatusPending)
	created.Source = models.SourceCamera
	m.detections.EXPECT().Ingest(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d models.Detection) (*models.Alert, error) {
		assert.Equal(t, "cam-1", d.CameraID)
		assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), d.DetectedAt)
		return created, nil
	})

	body := DetectionRequest{CameraID: "cam-1", Source: "camera", Label: "pothole", Confidence: 0.8}
	w := makeRequest(router, http.MethodPost, "/api/v1/detections", jsonBody(t, body), authHeader)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp AlertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "camera", resp.Source)
}

func TestSubmitDetection_Ignored(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.detections.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(nil, nil)

	body := DetectionRequest{CameraID: "cam-1", Source: "camera", Label: "pothole", Confidence: 0.1}
	w := makeRequest(router, http.MethodPost, "/api/v1/detections", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())
}

func TestSubmitDetection_InvalidSource(t *testing.T) {
	_, _, router := newTestHandler(t)

	body := DetectionRequest{Source: "drone", Label: "pothole", Confidence: 0.9}
	w := makeRequest(router, http.MethodPost, "/api/v1/detections", jsonBody(t, body), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnhanceDescription_Passthrough(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodPost, "/api/v1/reports/enhance", jsonBody(t, EnhanceRequest{Description: "  big hole on road  "}))

	require.Equal(t, http.StatusOK, w.Code)
	var resp EnhanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "big hole on road", resp.Description)
}

func TestEnhanceDescription_Empty(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodPost, "/api/v1/reports/enhance", jsonBody(t, EnhanceRequest{Description: "   "}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactAuthority(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.contact.EXPECT().ContactAuthority(gomock.Any(), "A1", "please fix", "me@example.com").Return(nil)

	body := AuthorityContactRequest{AlertID: "A1", Message: "please fix", Email: "me@example.com"}
	w := makeRequest(router, http.MethodPost, "/api/v1/authority-contact", jsonBody(t, body))

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestContactAuthority_NotConfigured(t *testing.T) {
	_, m, router := newTestHandler(t)
	m.contact.EXPECT().ContactAuthority(gomock.Any(), "A1", "", "").
		Return(fmt.Errorf("service: authority email: %w", service.ErrNotConfigured))

	w := makeRequest(router, http.MethodPost, "/api/v1/authority-contact", jsonBody(t, AuthorityContactRequest{AlertID: "A1"}))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func multipartImage(t *testing.T, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadImage_Success(t *testing.T) {
	uploader := &fakeUploader{url: "http://minio/alert-images/alerts/2026/03/01/x.png"}
	_, _, router := newTestHandler(t, func(d *Dependencies) { d.Images = uploader })

	body, ct := multipartImage(t, "../../photo.png", pngHeader)
	w := makeRequest(router, http.MethodPost, "/api/v1/uploads/images", body, map[string]string{"Content-Type": ct})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uploader.url, resp.URL)
	assert.Equal(t, "photo.png", uploader.name)
	assert.Equal(t, "image/png", uploader.contentType)
	assert.Equal(t, pngHeader, uploader.body)
}

func TestUploadImage_UnsupportedType(t *testing.T) {
	uploader := &fakeUploader{err: fmt.Errorf("%w: text/plain", storage.ErrUnsupportedType)}
	_, _, router := newTestHandler(t, func(d *Dependencies) { d.Images = uploader })

	body, ct := multipartImage(t, "notes.txt", []byte("hello"))
	w := makeRequest(router, http.MethodPost, "/api/v1/uploads/images", body, map[string]string{"Content-Type": ct})

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestUploadImage_NotConfigured(t *testing.T) {
	_, _, router := newTestHandler(t)

	body, ct := multipartImage(t, "photo.png", pngHeader)
	w := makeRequest(router, http.MethodPost, "/api/v1/uploads/images", body, map[string]string{"Content-Type": ct})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadImage_MissingFile(t *testing.T) {
	_, _, router := newTestHandler(t, func(d *Dependencies) { d.Images = &fakeUploader{} })

	w := makeRequest(router, http.MethodPost, "/api/v1/uploads/images", strings.NewReader("{}"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAirQuality(t *testing.T) {
	readings := fakeAirQuality{
		"s1": {SensorID: "s1", PM25: 12.0, AQI: 57, Category: "Moderate"},
	}
	_, _, router := newTestHandler(t, func(d *Dependencies) { d.AirQuality = readings })

	w := makeRequest(router, http.MethodGet, "/api/v1/air-quality", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.AirQualityReading
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 57, list[0].AQI)

	w = makeRequest(router, http.MethodGet, "/api/v1/air-quality/s1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, http.MethodGet, "/api/v1/air-quality/s2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAirQuality_NotConfigured(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/air-quality", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, router := newTestHandler(t, func(d *Dependencies) {
		d.HealthChecks = map[string]func(context.Context) error{
			"postgres": func(context.Context) error { return nil },
		}
	})

	w := makeRequest(router, http.MethodGet, "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","stream_subscribers":0,"checks":{"postgres":"ok"}}`, w.Body.String())
}

func TestHealthCheck_Degraded(t *testing.T) {
	_, _, router := newTestHandler(t, func(d *Dependencies) {
		d.HealthChecks = map[string]func(context.Context) error{
			"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
		}
	})

	w := makeRequest(router, http.MethodGet, "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","stream_subscribers":0,"checks":{"redis":"unavailable"}}`, w.Body.String())
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		headers    map[string]string
		wantStatus int
		wantError  string
	}{
		{name: "header", url: "/api/v1/analytics/summary", headers: authHeader, wantStatus: http.StatusOK},
		{name: "bearer", url: "/api/v1/analytics/summary", headers: map[string]string{"Authorization": "Bearer test-api-key"}, wantStatus: http.StatusOK},
		{name: "query", url: "/api/v1/analytics/summary?api_key=test-api-key", wantStatus: http.StatusOK},
		{name: "missing", url: "/api/v1/analytics/summary", wantStatus: http.StatusUnauthorized, wantError: "API key required"},
		{name: "invalid", url: "/api/v1/analytics/summary", headers: map[string]string{"X-API-Key": "nope"}, wantStatus: http.StatusUnauthorized, wantError: "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m, router := newTestHandler(t)
			if tt.wantStatus == http.StatusOK {
				m.alerts.EXPECT().GetAnalytics(gomock.Any()).Return(&models.AlertStats{}, nil)
			}

			w := makeRequest(router, http.MethodGet, tt.url, nil, tt.headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, errorMessage(t, w))
			}
		})
	}
}
