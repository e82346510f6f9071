package models

import (
	"time"
)

// IssueType - категория инцидента
type IssueType string

const (
	IssueAccident IssueType = "accident"
	IssueTraffic  IssueType = "traffic"
	IssuePothole  IssueType = "pothole"
	IssueGarbage  IssueType = "garbage"
)

// Valid сообщает, входит ли тип в допустимый набор
func (t IssueType) Valid() bool {
	switch t {
	case IssueAccident, IssueTraffic, IssuePothole, IssueGarbage:
		return true
	}
	return false
}

// AlertStatus - состояние жизненного цикла алерта
type AlertStatus string

const (
	StatusPending   AlertStatus = "Pending"
	StatusResolved  AlertStatus = "Resolved"
	StatusDismissed AlertStatus = "Dismissed"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Terminal - Resolved и Dismissed не предполагают дальнейших переходов
func (s AlertStatus) Terminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

// AlertSource - откуда пришел алерт
type AlertSource string

const (
	SourceCitizen AlertSource = "citizen"
	SourceCamera  AlertSource = "camera"
	SourceVoice   AlertSource = "voice"
)

func (s AlertSource) Valid() bool {
	switch s {
	case SourceCitizen, SourceCamera, SourceVoice:
		return true
	}
	return false
}

// DetectionBox - рамка обнаруженного объекта на кадре камеры
type DetectionBox struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Contact - контактные данные заявителя
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Feedback - оценка гражданина после решения проблемы
type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Alert struct {
	ID          string         `json:"id"`
	IssueType   IssueType      `json:"issue_type"`
	Status      AlertStatus    `json:"status"`
	Source      AlertSource    `json:"source"`
	Confidence  float64        `json:"confidence"`
	Location    string         `json:"location"`
	Latitude    *float64       `json:"latitude,omitempty"`
	Longitude   *float64       `json:"longitude,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Images      []string       `json:"images"`
	Description string         `json:"description"`
	CameraID    string         `json:"camera_id,omitempty"`
	Detections  []DetectionBox `json:"detections,omitempty"`
	Contact     *Contact       `json:"contact,omitempty"`
	Feedback    *Feedback      `json:"feedback,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// AlertFilter - параметры выборки списка алертов
type AlertFilter struct {
	Status    AlertStatus
	IssueType IssueType
	Source    AlertSource
	Page      int
	PageSize  int
}

// AlertStats - агрегаты для дашборда аналитики
type AlertStats struct {
	Total         int                 `json:"total"`
	ByStatus      map[AlertStatus]int `json:"by_status"`
	ByType        map[IssueType]int   `json:"by_type"`
	BySource      map[AlertSource]int `json:"by_source"`
	FeedbackCount int                 `json:"feedback_count"`
	AverageRating *float64            `json:"average_rating,omitempty"`
}
