package handler

import "time"

type statusUpdateRequest struct {
	Status    string    `json:"status"    validate:"required,oneof=in_transit out_for_delivery delivered cancelled"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"    validate:"required"`
	Notes     string    `json:"notes"     validate:"max=500"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

type bulkStatusRequest struct {
	TrackingIDs []string  `json:"tracking_ids" validate:"required,min=1,max=500,dive,required"`
	Action      string    `json:"action"       validate:"required,oneof=mark_in_transit mark_out_for_delivery mark_delivered cancel"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"       validate:"required"`
	Notes       string    `json:"notes"        validate:"max=500"`
}

type bulkStatusItem struct {
	TrackingID string `json:"tracking_id"`
	Applied    bool   `json:"applied"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

type bulkStatusResponse struct {
	Status  string           `json:"status"`
	Updated int              `json:"updated"`
	Failed  int              `json:"failed"`
	Items   []bulkStatusItem `json:"items"`
}
