package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalysisRequest struct {
	UserID  string `json:"user_id" validate:"required,min=1,max=128"`
	AssetID string `json:"asset_id" validate:"omitempty,max=128"`
}

type OutcomesRequest struct {
	UserID string `query:"user_id" json:"user_id" validate:"required,min=1,max=128"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}
