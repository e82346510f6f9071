package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/shenikar/civic_alerts/internal/service"
)

const (
	uniqueViolation = "23505"
	alertColumns    = `id, issue_type, status, source, confidence, location, latitude, longitude,
		reported_at, images, description, camera_id, detections, contact, feedback, created_at, updated_at`
)

type AlertRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewAlertRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) service.AlertRepository {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AlertRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

// rowScanner - общий интерфейс pgx.Row и pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	alert := &models.Alert{}
	var (
		cameraID                      *string
		detections, contact, feedback []byte
	)
	err := row.Scan(
		&alert.ID,
		&alert.IssueType,
		&alert.Status,
		&alert.Source,
		&alert.Confidence,
		&alert.Location,
		&alert.Latitude,
		&alert.Longitude,
		&alert.Timestamp,
		&alert.Images,
		&alert.Description,
		&cameraID,
		&detections,
		&contact,
		&feedback,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cameraID != nil {
		alert.CameraID = *cameraID
	}
	if alert.Images == nil {
		alert.Images = []string{}
	}
	if err := unmarshalNullable(detections, &alert.Detections); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	if err := unmarshalNullable(contact, &alert.Contact); err != nil {
		return nil, fmt.Errorf("failed to decode contact: %w", err)
	}
	if err := unmarshalNullable(feedback, &alert.Feedback); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}
	return alert, nil
}

func unmarshalNullable(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// marshalNullable возвращает nil для пустых значений, чтобы в колонку попал NULL
func marshalNullable(v any, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create создает новую запись об алерте в бд
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	detections, err := marshalNullable(alert.Detections, len(alert.Detections) == 0)
	if err != nil {
		return fmt.Errorf("failed to encode detections: %w", err)
	}
	contact, err := marshalNullable(alert.Contact, alert.Contact == nil)
	if err != nil {
		return fmt.Errorf("failed to encode contact: %w", err)
	}

	query := `
		INSERT INTO alerts (id, issue_type, status, source, confidence, location, latitude, longitude,
			reported_at, images, description, camera_id, detections, contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at;
	`
	err = r.db.QueryRow(ctx, query,
		alert.ID,
		alert.IssueType,
		alert.Status,
		alert.Source,
		alert.Confidence,
		alert.Location,
		alert.Latitude,
		alert.Longitude,
		alert.Timestamp,
		alert.Images,
		alert.Description,
		nullString(alert.CameraID),
		detections,
		contact,
	).Scan(&alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("alert with id %s: %w", alert.ID, service.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetByID возвращает алерт по идентификатору
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1;`

	alert, err := scanAlert(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alert with id %s: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get alert by id: %w", err)
	}
	return alert, nil
}

// UpdateStatus меняет статус from -> to одним условным UPDATE и возвращает обновленную запись
func (r *AlertRepository) UpdateStatus(ctx context.Context, id string, from, to models.AlertStatus) (*models.Alert, error) {
	alert, err := scanAlert(r.db.QueryRow(ctx, updateStatusQuery, to, id, from))
	if err != nil {
		// Пустой RETURNING: статус уже изменил другой запрос (или записи нет)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alert %s is no longer %s: %w", id, from, service.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update alert status: %w", err)
	}
	return alert, nil
}

var updateStatusQuery = `
		UPDATE alerts SET
			status = $1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + alertColumns + `;`

// SaveFeedback записывает (или перезаписывает) оценку гражданина
func (r *AlertRepository) SaveFeedback(ctx context.Context, id string, feedback models.Feedback) (*models.Alert, error) {
	raw, err := json.Marshal(feedback)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}

	query := `
		UPDATE alerts SET
			feedback = $1,
			updated_at = NOW()
		WHERE id = $2
		RETURNING ` + alertColumns + `;`

	alert, err := scanAlert(r.db.QueryRow(ctx, query, raw, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alert with id %s not found for feedback: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return alert, nil
}

// buildListQuery собирает запрос списка с необязательными фильтрами
func buildListQuery(filter models.AlertFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}
	if filter.IssueType != "" {
		add("issue_type", filter.IssueType)
	}
	if filter.Source != "" {
		add("source", filter.Source)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + alertColumns + " FROM alerts")
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize, offset)
	fmt.Fprintf(&sb, " ORDER BY reported_at DESC, id LIMIT $%d OFFSET $%d;", len(args)-1, len(args))
	return sb.String(), args
}

// List возвращает список алертов с фильтрами и пагинацией, новые первыми
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*models.Alert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return alerts, nil
}

// Stats считает агрегаты по статусам, типам, источникам и оценкам
func (r *AlertRepository) Stats(ctx context.Context) (*models.AlertStats, error) {
	stats := &models.AlertStats{
		ByStatus: make(map[models.AlertStatus]int),
		ByType:   make(map[models.IssueType]int),
		BySource: make(map[models.AlertSource]int),
	}

	rows, err := r.db.Query(ctx, `
		SELECT status, issue_type, source, COUNT(*)
		FROM alerts
		GROUP BY status, issue_type, source;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate alerts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status    models.AlertStatus
			issueType models.IssueType
			source    models.AlertSource
			count     int
		)
		if err := rows.Scan(&status, &issueType, &source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByType[issueType] += count
		stats.BySource[source] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error stats iteration: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), AVG((feedback->>'rating')::int)::float8
		FROM alerts
		WHERE feedback IS NOT NULL;
	`).Scan(&stats.FeedbackCount, &stats.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
	}
	return stats, nil
}

func alertCacheKey(id string) string {
	return fmt.Sprintf("alert:%s", id)
}

// GetAlertFromCache пытается получить алерт из Redis
func (r *AlertRepository) GetAlertFromCache(ctx context.Context, id string) (*models.Alert, error) {
	val, err := r.redisClient.Get(ctx, alertCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert from cache: %w", err)
	}

	alert := &models.Alert{}
	if err := json.Unmarshal(val, alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert from cache: %w", err)
	}
	return alert, nil
}

// SetAlertCache сохраняет алерт в Redis
func (r *AlertRepository) SetAlertCache(ctx context.Context, alert *models.Alert) error {
	val, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, alertCacheKey(alert.ID), val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set alert in cache: %w", err)
	}
	return nil
}

// InvalidateAlertCache удаляет алерт из Redis кэша
func (r *AlertRepository) InvalidateAlertCache(ctx context.Context, id string) error {
	if err := r.redisClient.Del(ctx, alertCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate alert cache: %w", err)
	}
	return nil
}
