package contracts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/server/middleware"
	"contract-backend/internal/shared/server/respond"
)

// multipartOverhead is the slack allowed above the file cap for form framing.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches contract routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contracts/upload", h.upload)
	rg.GET("/contracts", h.list)
	rg.GET("/contracts/:id", h.detail)
	rg.GET("/contracts/:id/status", h.status)
	rg.GET("/contracts/:id/raw", h.raw)
	rg.GET("/contracts/:id/download", h.download)
	rg.POST("/contracts/:id/reprocess", h.reprocess)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.maxUploadBytes()+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	contract, err := h.Svc.Upload(c.Request.Context(), fileHeader.Filename, fileHeader.Size, file)
	if contract.ID != "" {
		c.Set(middleware.ContractIDKey, contract.ID)
	}
	if err != nil {
		if contract.ID != "" {
			respond.Error(c, http.StatusServiceUnavailable, ErrorCodeUnavailable, "contract stored but processing could not be scheduled", gin.H{
				"contract_id": contract.ID,
				"status":      contract.Status,
			})
			return
		}
		writeError(c, err, "failed to upload contract")
		return
	}

	respond.JSON(c, http.StatusAccepted, uploadResponse{
		ContractID: contract.ID,
		Status:     contract.Status,
		Message:    "contract uploaded, processing started",
	})
}

func (h *Handler) list(c *gin.Context) {
	f, details := parseListFilter(c)
	if len(details) > 0 {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid query parameters", details)
		return
	}

	page, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err, "failed to list contracts")
		return
	}
	respond.OK(c, toListResponse(page))
}

func (h *Handler) detail(c *gin.Context) {
	contract, err := h.Svc.Get(c.Request.Context(), contractID(c))
	if err != nil {
		writeError(c, err, "failed to fetch contract")
		return
	}
	includeRaw, _ := strconv.ParseBool(c.Query("include_raw"))
	respond.OK(c, toDetail(contract, includeRaw))
}

func (h *Handler) status(c *gin.Context) {
	view, err := h.Svc.Status(c.Request.Context(), contractID(c))
	if err != nil {
		writeError(c, err, "failed to fetch contract status")
		return
	}
	respond.OK(c, toStatus(view))
}

func (h *Handler) raw(c *gin.Context) {
	contract, err := h.Svc.Get(c.Request.Context(), contractID(c))
	if err != nil {
		writeError(c, err, "failed to fetch contract")
		return
	}
	if contract.RawText == "" {
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "raw text not available", gin.H{"status": contract.Status})
		return
	}
	respond.OK(c, rawResponse{ContractID: contract.ID, RawText: contract.RawText})
}

func (h *Handler) download(c *gin.Context) {
	contract, body, err := h.Svc.OpenFile(c.Request.Context(), contractID(c))
	if err != nil {
		writeError(c, err, "failed to open contract file")
		return
	}
	defer body.Close()

	mimeType := contract.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	c.DataFromReader(http.StatusOK, contract.SizeBytes, mimeType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", contract.FileName),
	})
}

func (h *Handler) reprocess(c *gin.Context) {
	view, err := h.Svc.Reprocess(c.Request.Context(), contractID(c))
	if err != nil {
		writeError(c, err, "failed to reprocess contract")
		return
	}
	respond.JSON(c, http.StatusAccepted, reprocessResponse{
		ContractID: view.Contract.ID,
		Status:     view.Contract.Status,
		RunState:   view.RunState,
		Message:    "contract scheduled for processing",
	})
}

// contractID reads the :id path parameter and tags the request log with it.
func contractID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.ContractIDKey, id)
	return id
}

// parseListFilter reads list query parameters and collects every invalid one.
func parseListFilter(c *gin.Context) (ListFilter, map[string]string) {
	f := ListFilter{Page: 1, Limit: DefaultPageSize, SortBy: SortCreatedAt, SortDesc: true}
	details := map[string]string{}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			details["page"] = "must be a positive integer"
		}
		f.Page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPageSize {
			details["limit"] = fmt.Sprintf("must be between 1 and %d", MaxPageSize)
		}
		f.Limit = n
	}
	if v := c.Query("status"); v != "" {
		st, ok := ParseStatus(strings.ToLower(v))
		if !ok {
			details["status"] = "must be one of pending, processing, completed, failed"
		}
		f.Status = st
	}
	f.MinScore = parseScore(c.Query("min_score"), "min_score", details)
	f.MaxScore = parseScore(c.Query("max_score"), "max_score", details)
	if v := c.Query("sort_by"); v != "" {
		switch v {
		case SortCreatedAt, SortUpdatedAt, SortScore, SortStatus, SortFileName:
			f.SortBy = v
		default:
			details["sort_by"] = "must be one of created_at, updated_at, score, status, file_name"
		}
	}
	switch strings.ToLower(c.Query("sort_order")) {
	case "", "desc":
		f.SortDesc = true
	case "asc":
		f.SortDesc = false
	default:
		details["sort_order"] = "must be asc or desc"
	}
	f.Search = strings.TrimSpace(c.Query("search"))
	return f, details
}

func parseScore(v, name string, details map[string]string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 100 {
		details[name] = "must be an integer between 0 and 100"
		return nil
	}
	return &n
}

// writeError maps service errors onto the error envelope.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, err.Error(), nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "contract not found", nil)
	case errors.Is(err, ErrAlreadyScheduled):
		respond.Error(c, http.StatusConflict, ErrorCodeConflict, "a run for this contract is already queued or running", nil)
	case errors.Is(err, ErrSchedulerUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, ErrorCodeUnavailable, "processing is unavailable", nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusBadGateway, ErrorCodeStorage, fallback, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, fallback, nil)
	}
}
