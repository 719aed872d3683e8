package dto

type UpdateAlertRequest struct {
	Status string `json:"status" validate:"required,oneof=EN_ROUTE RESOLVED"`
}
