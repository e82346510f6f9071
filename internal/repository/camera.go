package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/shenikar/civic_alerts/internal/service"
)

const cameraColumns = `id, name, location, stream_url, online, last_seen, created_at, updated_at`

type CameraRepository struct {
	db *pgxpool.Pool
}

func NewCameraRepository(db *pgxpool.Pool) service.CameraRepository {
	return &CameraRepository{db: db}
}

func scanCamera(row rowScanner) (*models.Camera, error) {
	camera := &models.Camera{}
	err := row.Scan(
		&camera.ID,
		&camera.Name,
		&camera.Location,
		&camera.StreamURL,
		&camera.Online,
		&camera.LastSeen,
		&camera.CreatedAt,
		&camera.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return camera, nil
}

func (r *CameraRepository) Create(ctx context.Context, camera *models.Camera) error {
	query := `
		INSERT INTO cameras (id, name, location, stream_url, online)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		camera.ID,
		camera.Name,
		camera.Location,
		camera.StreamURL,
		camera.Online,
	).Scan(&camera.CreatedAt, &camera.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("camera with id %s: %w", camera.ID, service.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create camera: %w", err)
	}
	return nil
}

func (r *CameraRepository) GetByID(ctx context.Context, id string) (*models.Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE id = $1;`

	camera, err := scanCamera(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("camera with id %s: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get camera by id: %w", err)
	}
	return camera, nil
}

func (r *CameraRepository) List(ctx context.Context) ([]*models.Camera, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cameraColumns+` FROM cameras ORDER BY name, id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	defer rows.Close()

	cameras := make([]*models.Camera, 0)
	for rows.Next() {
		camera, err := scanCamera(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camera row: %w", err)
		}
		cameras = append(cameras, camera)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return cameras, nil
}

func (r *CameraRepository) SetOnline(ctx context.Context, id string, online bool) (*models.Camera, error) {
	query := `
		UPDATE cameras SET
			online = $1,
			updated_at = NOW()
		WHERE id = $2
		RETURNING ` + cameraColumns + `;`

	camera, err := scanCamera(r.db.QueryRow(ctx, query, online, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("camera with id %s not found for update: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update camera: %w", err)
	}
	return camera, nil
}

// Touch отмечает камеру как online и обновляет last_seen
func (r *CameraRepository) Touch(ctx context.Context, id string, seenAt time.Time) error {
	query := `
		UPDATE cameras SET
			online = TRUE,
			last_seen = $1,
			updated_at = NOW()
		WHERE id = $2;
	`
	cmdTag, err := r.db.Exec(ctx, query, seenAt, id)
	if err != nil {
		return fmt.Errorf("failed to touch camera: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("camera with id %s: %w", id, service.ErrNotFound)
	}
	return nil
}
