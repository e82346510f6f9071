package models

import "time"

// Detection - событие обнаружения от камеры или голосового канала
type Detection struct {
	CameraID   string         `json:"camera_id,omitempty"`
	Source     AlertSource    `json:"source"`
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	Location   string         `json:"location"`
	Images     []string       `json:"images,omitempty"`
	Boxes      []DetectionBox `json:"boxes,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
	DetectedAt time.Time      `json:"detected_at"`
}
