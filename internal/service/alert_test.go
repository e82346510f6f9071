package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shenikar/civic_alerts/internal/config"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/shenikar/civic_alerts/internal/notify"
	"github.com/shenikar/civic_alerts/internal/service/mocks"
	"github.com/shenikar/civic_alerts/internal/webhook"
	webhook_mocks "github.com/shenikar/civic_alerts/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		AllowReopen:       true,
		AnalyticsCacheTTL: time.Minute,
	}
}

// newTestAlertService - вспомогательная функция для создания сервиса с моками.
func newTestAlertService(t *testing.T, cfg *config.Config) (*alertService, *mocks.MockAlertRepository, *mocks.MockAlertPublisher, *webhook_mocks.MockEventPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockAlertRepository(ctrl)
	publisherMock := mocks.NewMockAlertPublisher(ctrl)
	eventsMock := webhook_mocks.NewMockEventPublisher(ctrl)

	svc := NewAlertService(repoMock, publisherMock, eventsMock, testLogger(), cfg)
	return svc.(*alertService), repoMock, publisherMock, eventsMock
}

func TestCreateAlert_Success(t *testing.T) {
	// Подготовка
	svc, repoMock, publisherMock, eventsMock := newTestAlertService(t, testConfig())
	ctx := context.Background()
	alert := &models.Alert{
		IssueType:   models.IssuePothole,
		Location:    "Main St & 5th Ave",
		Description: "Deep pothole",
		Status:      models.StatusResolved, // клиент не может задать статус
	}

	// Ожидания: публикация строго после записи
	gomock.InOrder(
		repoMock.EXPECT().Create(ctx, gomock.Any()).Return(nil),
		publisherMock.EXPECT().Publish(gomock.Any()).Do(func(a models.Alert) {
			assert.Equal(t, models.StatusPending, a.Status)
			assert.NotEmpty(t, a.ID)
		}),
		eventsMock.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, e webhook.AlertEvent) error {
			assert.Equal(t, webhook.EventAlertCreated, e.Type)
			return nil
		}),
	)

	// Действие
	err := svc.CreateAlert(ctx, alert)

	// Проверки
	require.NoError(t, err)
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, models.StatusPending, alert.Status)
	assert.Equal(t, models.SourceCitizen, alert.Source)
	assert.False(t, alert.Timestamp.IsZero())
	assert.NotNil(t, alert.Images)
}

func TestCreateAlert_ValidationError(t *testing.T) {
	svc, _, _, _ := newTestAlertService(t, testConfig())

	tests := []struct {
		name  string
		alert models.Alert
		field string
	}{
		{"unknown issue type", models.Alert{IssueType: "fire", Location: "x"}, "issue_type"},
		{"missing location", models.Alert{IssueType: models.IssueGarbage, Location: "  "}, "location"},
		{"confidence out of range", models.Alert{IssueType: models.IssueGarbage, Location: "x", Confidence: 1.5}, "confidence"},
		{"unknown source", models.Alert{IssueType: models.IssueGarbage, Location: "x", Source: "drone"}, "source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := tt.alert
			err := svc.CreateAlert(context.Background(), &alert)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateAlert_RepositoryError_NotPublished(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()

	// Publish не ожидается: gomock упадет при неожиданном вызове
	repoMock.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db down"))

	err := svc.CreateAlert(ctx, &models.Alert{IssueType: models.IssueTraffic, Location: "Ring road"})

	require.Error(t, err)
	assert.ErrorContains(t, err, "could not create alert")
}

func TestCreateAlert_WebhookFailureIgnored(t *testing.T) {
	svc, repoMock, publisherMock, eventsMock := newTestAlertService(t, testConfig())
	ctx := context.Background()

	repoMock.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	publisherMock.EXPECT().Publish(gomock.Any())
	eventsMock.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("redis down"))

	err := svc.CreateAlert(ctx, &models.Alert{IssueType: models.IssueAccident, Location: "Bridge"})

	assert.NoError(t, err)
}

func TestGetAlert_FromCache(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()
	expected := &models.Alert{ID: "A1", Status: models.StatusPending}

	repoMock.EXPECT().GetAlertFromCache(ctx, "A1").Return(expected, nil).Times(1)

	alert, err := svc.GetAlert(ctx, "A1")

	require.NoError(t, err)
	assert.Equal(t, expected, alert)
}

func TestGetAlert_FromDB(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()
	expected := &models.Alert{ID: "A1", Status: models.StatusPending}

	// 1. Промах кеша
	repoMock.EXPECT().GetAlertFromCache(ctx, "A1").Return(nil, nil)
	// 2. Попадание в БД
	repoMock.EXPECT().GetByID(ctx, "A1").Return(expected, nil)
	// 3. Запись в кеш
	repoMock.EXPECT().SetAlertCache(ctx, expected).Return(nil)

	alert, err := svc.GetAlert(ctx, "A1")

	require.NoError(t, err)
	assert.Equal(t, expected, alert)
}

func TestGetAlert_NotFound(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()

	repoMock.EXPECT().GetAlertFromCache(ctx, "missing").Return(nil, errors.New("cache unavailable"))
	repoMock.EXPECT().GetByID(ctx, "missing").Return(nil, ErrNotFound)

	alert, err := svc.GetAlert(ctx, "missing")

	assert.Nil(t, alert)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAlerts_DefaultPaging(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()
	expected := []*models.Alert{{ID: "A1"}}

	repoMock.EXPECT().
		List(ctx, models.AlertFilter{Status: models.StatusPending, Page: 1, PageSize: defaultPageSize}).
		Return(expected, nil)

	alerts, err := svc.ListAlerts(ctx, models.AlertFilter{Status: models.StatusPending, PageSize: 1000})

	require.NoError(t, err)
	assert.Equal(t, expected, alerts)
}

func TestListAlerts_InvalidFilter(t *testing.T) {
	svc, _, _, _ := newTestAlertService(t, testConfig())

	_, err := svc.ListAlerts(context.Background(), models.AlertFilter{Status: "Closed"})

	assert.True(t, IsValidation(err))
}

func TestSetStatus_UnknownID_NotFoundForAnyStatus(t *testing.T) {
	for _, status := range []models.AlertStatus{models.StatusPending, models.StatusResolved, models.StatusDismissed, "Bogus"} {
		t.Run(string(status), func(t *testing.T) {
			svc, repoMock, _, _ := newTestAlertService(t, testConfig())
			ctx := context.Background()

			repoMock.EXPECT().GetByID(ctx, "missing").Return(nil, ErrNotFound)

			alert, err := svc.SetStatus(ctx, "missing", status)

			assert.Nil(t, alert)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.False(t, IsValidation(err))
		})
	}
}

func TestSetStatus_InvalidValue_DoesNotMutate(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()

	repoMock.EXPECT().GetByID(ctx, "A1").Return(&models.Alert{ID: "A1", Status: models.StatusPending}, nil)
	// UpdateStatus не ожидается

	alert, err := svc.SetStatus(ctx, "A1", "Closed")

	assert.Nil(t, alert)
	assert.True(t, IsValidation(err))
}

func TestSetStatus_SameStatus_NoWrite(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()
	existing := &models.Alert{ID: "A1", Status: models.StatusResolved}

	repoMock.EXPECT().GetByID(ctx, "A1").Return(existing, nil)

	alert, err := svc.SetStatus(ctx, "A1", models.StatusResolved)

	require.NoError(t, err)
	assert.Equal(t, existing, alert)
}

func TestSetStatus_Success(t *testing.T) {
	svc, repoMock, publisherMock, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()
	updated := &models.Alert{ID: "A1", Status: models.StatusDismissed}

	repoMock.EXPECT().GetByID(ctx, "A1").Return(&models.Alert{ID: "A1", Status: models.StatusPending}, nil)
	repoMock.EXPECT().UpdateStatus(ctx, "A1", models.StatusPending, models.StatusDismissed).Return(updated, nil)
	repoMock.EXPECT().InvalidateAlertCache(ctx, "A1").Return(nil)
	publisherMock.EXPECT().Publish(gomock.Any()).Times(0)

	alert, err := svc.SetStatus(ctx, "A1", models.StatusDismissed)

	require.NoError(t, err)
	assert.Equal(t, updated, alert)
}

func TestSetStatus_RepositoryError(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()

	repoMock.EXPECT().GetByID(ctx, "A1").Return(&models.Alert{ID: "A1", Status: models.StatusPending}, nil)
	repoMock.EXPECT().UpdateStatus(ctx, "A1", models.StatusPending, models.StatusResolved).Return(nil, errors.New("connection reset"))

	_, err := svc.SetStatus(ctx, "A1", models.StatusResolved)

	require.Error(t, err)
	assert.False(t, IsValidation(err))
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSetStatus_ConcurrentChangeIsConflict(t *testing.T) {
	cfg := testConfig()
	cfg.AllowReopen = false
	svc, repoMock, _, _ := newTestAlertService(t, cfg)
	ctx := context.Background()

	// прочитали Pending, но к моменту записи другой запрос уже сменил статус
	repoMock.EXPECT().GetByID(ctx, "A1").Return(&models.Alert{ID: "A1", Status: models.StatusPending}, nil)
	repoMock.EXPECT().UpdateStatus(ctx, "A1", models.StatusPending, models.StatusResolved).
		Return(nil, fmt.Errorf("alert A1 is no longer Pending: %w", ErrConflict))

	alert, err := svc.SetStatus(ctx, "A1", models.StatusResolved)

	assert.Nil(t, alert)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSetStatus_StaleReadCannotOverwriteTerminalStatus(t *testing.T) {
	cfg := testConfig()
	cfg.AllowReopen = false
	repo := &interleavingRepository{memoryAlertRepository: newMemoryAlertRepository()}
	broker := notify.NewBroker(notify.Options{}, testLogger())
	t.Cleanup(broker.Close)
	svc := NewAlertService(repo, broker, nil, testLogger(), cfg)
	ctx := context.Background()
	require.NoError(t, svc.CreateAlert(ctx, &models.Alert{ID: "A1", IssueType: models.IssuePothole, Location: "Elm St"}))

	// другой оператор закрывает алерт сразу после того, как этот запрос прочитал Pending
	repo.afterGet = func() {
		_, err := repo.memoryAlertRepository.UpdateStatus(ctx, "A1", models.StatusPending, models.StatusResolved)
		require.NoError(t, err)
	}

	_, err := svc.SetStatus(ctx, "A1", models.StatusDismissed)
	assert.ErrorIs(t, err, ErrConflict)

	repo.afterGet = nil
	read, err := svc.GetAlert(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, read.Status)
}

func TestSetStatus_ReopenRejectedWhenGuarded(t *testing.T) {
	cfg := testConfig()
	cfg.AllowReopen = false
	svc, repoMock, _, _ := newTestAlertService(t, cfg)
	ctx := context.Background()

	repoMock.EXPECT().GetByID(ctx, "A1").Return(&models.Alert{ID: "A1", Status: models.StatusResolved}, nil)

	_, err := svc.SetStatus(ctx, "A1", models.StatusPending)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionPolicy_Check(t *testing.T) {
	guarded := TransitionPolicy{AllowReopen: false}
	open := TransitionPolicy{AllowReopen: true}

	tests := []struct {
		from, to models.AlertStatus
		guardedOK bool
	}{
		{models.StatusPending, models.StatusResolved, true},
		{models.StatusPending, models.StatusDismissed, true},
		{models.StatusResolved, models.StatusResolved, true},
		{models.StatusResolved, models.StatusPending, false},
		{models.StatusDismissed, models.StatusResolved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.NoError(t, open.Check(tt.from, tt.to))
			if tt.guardedOK {
				assert.NoError(t, guarded.Check(tt.from, tt.to))
			} else {
				assert.ErrorIs(t, guarded.Check(tt.from, tt.to), ErrInvalidTransition)
			}
		})
	}
}

func TestSubmitFeedback_RatingOutOfRange(t *testing.T) {
	svc, _, _, _ := newTestAlertService(t, testConfig())

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.SubmitFeedback(context.Background(), "A1", rating, "")
		assert.True(t, IsValidation(err), "rating %d", rating)
	}
}

func TestSubmitFeedback_CommentTooLong(t *testing.T) {
	svc, _, _, _ := newTestAlertService(t, testConfig())

	_, err := svc.SubmitFeedback(context.Background(), "A1", 3, string(make([]byte, maxCommentLength+1)))

	assert.True(t, IsValidation(err))
}

func TestSubmitFeedback_NotFound(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()

	repoMock.EXPECT().SaveFeedback(ctx, "missing", gomock.Any()).Return(nil, ErrNotFound)

	_, err := svc.SubmitFeedback(ctx, "missing", 4, "ok")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAnalytics_Cached(t *testing.T) {
	svc, repoMock, _, _ := newTestAlertService(t, testConfig())
	ctx := context.Background()
	stats := &models.AlertStats{Total: 3}

	repoMock.EXPECT().Stats(ctx).Return(stats, nil).Times(1)

	first, err := svc.GetAnalytics(ctx)
	require.NoError(t, err)
	second, err := svc.GetAnalytics(ctx)
	require.NoError(t, err)

	assert.Equal(t, stats, first)
	assert.Same(t, first, second)
}

// Сценарные тесты на хранилище в памяти и настоящем брокере

func newLifecycleService(t *testing.T, cfg *config.Config) (AlertService, *memoryAlertRepository, *notify.Broker) {
	repo := newMemoryAlertRepository()
	broker := notify.NewBroker(notify.Options{BufferSize: 8}, testLogger())
	t.Cleanup(broker.Close)
	return NewAlertService(repo, broker, nil, testLogger(), cfg), repo, broker
}

func TestSetStatus_EveryValidStatusIsReadBack(t *testing.T) {
	svc, repo, _ := newLifecycleService(t, testConfig())
	ctx := context.Background()
	require.NoError(t, svc.CreateAlert(ctx, &models.Alert{ID: "A1", IssueType: models.IssuePothole, Location: "Elm St"}))

	for _, status := range []models.AlertStatus{models.StatusResolved, models.StatusDismissed, models.StatusPending, models.StatusResolved} {
		updated, err := svc.SetStatus(ctx, "A1", status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)

		read, err := svc.GetAlert(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, status, read.Status)

		// повторное применение того же статуса ничего не записывает
		writes := repo.updateCount()
		again, err := svc.SetStatus(ctx, "A1", status)
		require.NoError(t, err)
		assert.Equal(t, status, again.Status)
		assert.Equal(t, writes, repo.updateCount())
	}
}

func TestSetStatus_InvalidValueKeepsStoredRecord(t *testing.T) {
	svc, repo, _ := newLifecycleService(t, testConfig())
	ctx := context.Background()
	require.NoError(t, svc.CreateAlert(ctx, &models.Alert{ID: "A1", IssueType: models.IssueGarbage, Location: "Park"}))

	_, err := svc.SetStatus(ctx, "A1", "Archived")
	require.True(t, IsValidation(err))

	read, err := svc.GetAlert(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, read.Status)
	assert.Equal(t, 0, repo.updateCount())
}

func TestSubmitFeedback_StoresExactRating(t *testing.T) {
	svc, _, _ := newLifecycleService(t, testConfig())
	ctx := context.Background()
	require.NoError(t, svc.CreateAlert(ctx, &models.Alert{ID: "A1", IssueType: models.IssueTraffic, Location: "Ring road"}))

	for rating := minFeedbackRating; rating <= maxFeedbackRating; rating++ {
		updated, err := svc.SubmitFeedback(ctx, "A1", rating, " thanks ")
		require.NoError(t, err)
		require.NotNil(t, updated.Feedback)
		assert.Equal(t, rating, updated.Feedback.Rating)
		assert.Equal(t, "thanks", updated.Feedback.Comment)
	}
}

func TestAlertLifecycle_StreamReceivesCreateButNotStatusChange(t *testing.T) {
	svc, _, broker := newLifecycleService(t, testConfig())
	ctx := context.Background()

	s1 := broker.Subscribe()
	defer s1.Close()

	require.NoError(t, svc.CreateAlert(ctx, &models.Alert{ID: "A1", IssueType: models.IssueAccident, Location: "Bridge"}))

	select {
	case got := <-s1.Events():
		assert.Equal(t, "A1", got.ID)
		assert.Equal(t, models.StatusPending, got.Status)
	case <-time.After(time.Second):
		t.Fatal("S1 did not receive A1")
	}

	_, err := svc.SetStatus(ctx, "A1", models.StatusResolved)
	require.NoError(t, err)

	read, err := svc.GetAlert(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, read.Status)

	select {
	case got := <-s1.Events():
		t.Fatalf("unexpected frame for %q after status change", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCreateAlert_DuplicateIDNotPublished(t *testing.T) {
	svc, _, broker := newLifecycleService(t, testConfig())
	ctx := context.Background()
	require.NoError(t, svc.CreateAlert(ctx, &models.Alert{ID: "A1", IssueType: models.IssuePothole, Location: "Elm St"}))

	sub := broker.Subscribe()
	defer sub.Close()

	err := svc.CreateAlert(ctx, &models.Alert{ID: "A1", IssueType: models.IssuePothole, Location: "Elm St"})

	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Len(t, sub.Events(), 0)
}
