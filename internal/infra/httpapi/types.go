package httpapi

import (
	"time"

	"smart-home-assistant/internal/domain"
)

type CommandRequest struct {
	Command  string `json:"command" example:"turn on the kitchen lamp"`
	Language string `json:"language,omitempty" example:"auto"`
}

type CommandResponse struct {
	TurnID              string `json:"turn_id"`
	Response            string `json:"response"`
	Success             bool   `json:"success"`
	LanguageDetected    string `json:"language_detected"`
	TranslationDegraded bool   `json:"translation_degraded"`
	ErrorKind           string `json:"error_kind,omitempty"`
}

type DeviceResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Location   string         `json:"location"`
	Category   string         `json:"category"`
	Power      bool           `json:"power"`
	Online     bool           `json:"online"`
	Attributes map[string]any `json:"attributes"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type ActionResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	AffectedDeviceIDs []string `json:"affected_device_ids"`
	ErrorKind         string   `json:"error_kind,omitempty"`
}

type StatusResponse struct {
	TotalDevices int            `json:"total_devices"`
	PoweredOn    int            `json:"powered_on"`
	Offline      int            `json:"offline"`
	ByCategory   map[string]int `json:"by_category"`
}

type TurnResponse struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	Language  string    `json:"language"`
	Response  string    `json:"response"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toDeviceResponse(d domain.Device) DeviceResponse {
	return DeviceResponse{
		ID:         d.ID,
		Name:       d.Name,
		Location:   d.Location,
		Category:   string(d.Category),
		Power:      d.Power,
		Online:     d.Online,
		Attributes: d.Fields(),
		UpdatedAt:  d.UpdatedAt,
	}
}

func toActionResponse(r domain.ActionResult) ActionResponse {
	message := r.RenderedSummary
	if message == "" && r.Err != nil {
		message = domain.Explain(r.Err)
	}
	affected := r.AffectedDeviceIDs
	if affected == nil {
		affected = []string{}
	}
	return ActionResponse{
		Success:           r.Success,
		Message:           message,
		AffectedDeviceIDs: affected,
		ErrorKind:         string(r.ErrorKind),
	}
}
