package dto

type ValidationError struct {
	Field   string `json:"field" example:"width"`
	Message string `json:"message" example:"must be positive"`
}
