package v1

import (
	"time"

	"github.com/shenikar/civic_alerts/internal/models"
)

// CreateRequestToAlertModel преобразует DTO создания в доменную модель
func CreateRequestToAlertModel(req CreateAlertRequest) *models.Alert {
	alert := &models.Alert{
		ID:          req.ID,
		IssueType:   models.IssueType(req.IssueType),
		Source:      models.AlertSource(req.Source),
		Confidence:  req.Confidence,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Images:      req.Images,
		Description: req.Description,
	}
	if req.Timestamp != nil {
		alert.Timestamp = req.Timestamp.UTC()
	}
	if req.Contact != nil {
		alert.Contact = &models.Contact{
			Name:  req.Contact.Name,
			Email: req.Contact.Email,
			Phone: req.Contact.Phone,
		}
	}
	return alert
}

// ModelToAlertResponse преобразует доменную модель в DTO для ответа
func ModelToAlertResponse(model *models.Alert) *AlertResponse {
	images := model.Images
	if images == nil {
		images = []string{}
	}
	return &AlertResponse{
		ID:          model.ID,
		IssueType:   string(model.IssueType),
		Status:      string(model.Status),
		Source:      string(model.Source),
		Confidence:  model.Confidence,
		Location:    model.Location,
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
		Timestamp:   model.Timestamp,
		Images:      images,
		Description: model.Description,
		CameraID:    model.CameraID,
		Detections:  model.Detections,
		Contact:     model.Contact,
		Feedback:    model.Feedback,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// ModelsToAlertResponses преобразует слайс моделей в слайс DTO
func ModelsToAlertResponses(alerts []*models.Alert) []*AlertResponse {
	responses := make([]*AlertResponse, len(alerts))
	for i, alert := range alerts {
		responses[i] = ModelToAlertResponse(alert)
	}
	return responses
}

func CreateRequestToCameraModel(req CreateCameraRequest) *models.Camera {
	return &models.Camera{
		ID:        req.ID,
		Name:      req.Name,
		Location:  req.Location,
		StreamURL: req.StreamURL,
		Online:    req.Online,
	}
}

func ModelToCameraResponse(model *models.Camera) *CameraResponse {
	return &CameraResponse{
		ID:        model.ID,
		Name:      model.Name,
		Location:  model.Location,
		StreamURL: model.StreamURL,
		Online:    model.Online,
		LastSeen:  model.LastSeen,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func ModelsToCameraResponses(cameras []*models.Camera) []*CameraResponse {
	responses := make([]*CameraResponse, len(cameras))
	for i, camera := range cameras {
		responses[i] = ModelToCameraResponse(camera)
	}
	return responses
}

// DetectionRequestToModel - время обнаружения по умолчанию равно времени приема
func DetectionRequestToModel(req DetectionRequest, receivedAt time.Time) models.Detection {
	detectedAt := receivedAt.UTC()
	if req.DetectedAt != nil {
		detectedAt = req.DetectedAt.UTC()
	}
	return models.Detection{
		CameraID:   req.CameraID,
		Source:     models.AlertSource(req.Source),
		Label:      req.Label,
		Confidence: req.Confidence,
		Location:   req.Location,
		Images:     req.Images,
		Boxes:      req.Boxes,
		Transcript: req.Transcript,
		DetectedAt: detectedAt,
	}
}
