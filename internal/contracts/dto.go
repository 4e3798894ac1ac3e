package contracts

import (
	"time"

	"contract-backend/internal/fields"
	"contract-backend/internal/scoring"
)

type uploadResponse struct {
	ContractID string `json:"contract_id"`
	Status     Status `json:"status"`
	Message    string `json:"message"`
}

type summaryResponse struct {
	ContractID string    `json:"contract_id"`
	FileName   string    `json:"file_name"`
	SizeBytes  int64     `json:"size_bytes"`
	Status     Status    `json:"status"`
	Score      int       `json:"score"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type listResponse struct {
	Contracts  []summaryResponse `json:"contracts"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// detailResponse flattens the six categories next to the contract metadata.
type detailResponse struct {
	ContractID     string         `json:"contract_id"`
	FileName       string         `json:"file_name"`
	MimeType       string         `json:"mime_type"`
	SizeBytes      int64          `json:"size_bytes"`
	Status         Status         `json:"status"`
	Score          int            `json:"score"`
	ScoreBreakdown map[string]int `json:"score_breakdown,omitempty"`
	Error          string         `json:"error,omitempty"`
	fields.Fields
	RawText   *string   `json:"raw_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type statusResponse struct {
	ContractID string    `json:"contract_id"`
	Status     Status    `json:"status"`
	RunState   string    `json:"run_state,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type rawResponse struct {
	ContractID string `json:"contract_id"`
	RawText    string `json:"raw_text"`
}

type reprocessResponse struct {
	ContractID string `json:"contract_id"`
	Status     Status `json:"status"`
	RunState   string `json:"run_state,omitempty"`
	Message    string `json:"message"`
}

func toSummary(c Contract) summaryResponse {
	return summaryResponse{
		ContractID: c.ID,
		FileName:   c.FileName,
		SizeBytes:  c.SizeBytes,
		Status:     c.Status,
		Score:      c.Score,
		Error:      c.ErrorMessage,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toListResponse(p Page) listResponse {
	items := make([]summaryResponse, 0, len(p.Contracts))
	for _, c := range p.Contracts {
		items = append(items, toSummary(c))
	}
	return listResponse{
		Contracts:  items,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

// toDetail builds the detail view. The breakdown is only shown for completed
// runs, where it sums to the stored score.
func toDetail(c Contract, includeRaw bool) detailResponse {
	out := detailResponse{
		ContractID: c.ID,
		FileName:   c.FileName,
		MimeType:   c.MimeType,
		SizeBytes:  c.SizeBytes,
		Status:     c.Status,
		Score:      c.Score,
		Error:      c.ErrorMessage,
		Fields:     c.Fields,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.Status == StatusCompleted {
		out.ScoreBreakdown = scoring.Breakdown(c.Fields)
	}
	if includeRaw {
		raw := c.RawText
		out.RawText = &raw
	}
	return out
}

func toStatus(v StatusView) statusResponse {
	return statusResponse{
		ContractID: v.Contract.ID,
		Status:     v.Contract.Status,
		RunState:   v.RunState,
		Error:      v.Contract.ErrorMessage,
		CreatedAt:  v.Contract.CreatedAt,
		UpdatedAt:  v.Contract.UpdatedAt,
	}
}
