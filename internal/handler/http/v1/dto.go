package v1

import (
	"time"

	"github.com/shenikar/civic_alerts/internal/models"
)

// CreateAlertRequest DTO для создания алерта гражданином
// @Description DTO для создания алерта
type CreateAlertRequest struct {
	ID          string          `json:"id,omitempty" validate:"omitempty,max=64"`
	IssueType   string          `json:"issue_type" validate:"required"`
	Source      string          `json:"source,omitempty"`
	Confidence  float64         `json:"confidence" validate:"gte=0,lte=1"`
	Location    string          `json:"location" validate:"required,max=500"`
	Latitude    *float64        `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64        `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
	Images      []string        `json:"images,omitempty" validate:"max=10,dive,url"`
	Description string          `json:"description" validate:"max=5000"`
	Contact     *ContactRequest `json:"contact,omitempty"`
}

// ContactRequest - контакты заявителя
type ContactRequest struct {
	Name  string `json:"name,omitempty" validate:"max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"max=32"`
}

// UpdateStatusRequest DTO для смены статуса алерта. Значение проверяет сервис
// после проверки существования алерта, поэтому тега required нет.
// @Description Статус: Pending, Resolved или Dismissed
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// FeedbackRequest DTO для оценки гражданина
// @Description rating от 1 до 5
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AlertResponse DTO для ответа с информацией об алерте. Тот же формат уходит в live-стрим.
// @Description DTO для ответа с информацией об алерте
type AlertResponse struct {
	ID          string                `json:"id"`
	IssueType   string                `json:"issue_type"`
	Status      string                `json:"status"`
	Source      string                `json:"source"`
	Confidence  float64               `json:"confidence"`
	Location    string                `json:"location"`
	Latitude    *float64              `json:"latitude,omitempty"`
	Longitude   *float64              `json:"longitude,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
	Images      []string              `json:"images"`
	Description string                `json:"description"`
	CameraID    string                `json:"camera_id,omitempty"`
	Detections  []models.DetectionBox `json:"detections,omitempty"`
	Contact     *models.Contact       `json:"contact,omitempty"`
	Feedback    *models.Feedback      `json:"feedback,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// CreateCameraRequest DTO для регистрации камеры
// @Description DTO для регистрации камеры
type CreateCameraRequest struct {
	ID        string `json:"id" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=255"`
	Location  string `json:"location" validate:"max=500"`
	StreamURL string `json:"stream_url,omitempty" validate:"omitempty,url"`
	Online    bool   `json:"online"`
}

// CameraStatusRequest DTO для переключения камеры online/offline
type CameraStatusRequest struct {
	Online *bool `json:"online" validate:"required"`
}

// CameraResponse DTO для ответа с информацией о камере
type CameraResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Location  string     `json:"location"`
	StreamURL string     `json:"stream_url,omitempty"`
	Online    bool       `json:"online"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DetectionRequest DTO для обнаружения от камеры или голосового канала
// @Description DTO для обнаружения
type DetectionRequest struct {
	CameraID   string                `json:"camera_id,omitempty"`
	Source     string                `json:"source" validate:"required,oneof=camera voice"`
	Label      string                `json:"label" validate:"required"`
	Confidence float64               `json:"confidence"`
	Location   string                `json:"location,omitempty" validate:"max=500"`
	Images     []string              `json:"images,omitempty" validate:"max=10,dive,url"`
	Boxes      []models.DetectionBox `json:"boxes,omitempty"`
	Transcript string                `json:"transcript,omitempty" validate:"max=5000"`
	DetectedAt *time.Time            `json:"detected_at,omitempty"`
}

// DetectionResponse возвращается, когда обнаружение отброшено по порогу уверенности
type DetectionResponse struct {
	Status string `json:"status"`
}

// EnhanceRequest DTO для улучшения текста описания
type EnhanceRequest struct {
	Description string `json:"description" validate:"max=4000"`
	IssueType   string `json:"issue_type,omitempty"`
}

type EnhanceResponse struct {
	Description string `json:"description"`
}

// AuthorityContactRequest DTO для обращения в городскую службу
type AuthorityContactRequest struct {
	AlertID string `json:"alert_id" validate:"required"`
	Message string `json:"message" validate:"max=2000"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

// HealthResponse DTO для ответа health-check
type HealthResponse struct {
	Status            string            `json:"status"`
	StreamSubscribers int               `json:"stream_subscribers"`
	Checks            map[string]string `json:"checks,omitempty"`
}
