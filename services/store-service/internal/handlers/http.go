package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tireline/tireline/services/store-service/internal/storage"
)

type Handler struct {
	repo     *storage.Repository
	validate *validator.Validate
}

func New(repo *storage.Repository) *Handler {
	return &Handler{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func branchIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Branch-Id"))
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			http.Error(w, "invalid field: "+verrs[0].Field(), http.StatusBadRequest)
			return false
		}
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetOrCreateProfile(r.Context(), branchID)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"branch_id":                p.BranchID,
		"name":                     p.Name,
		"timezone":                 p.Timezone,
		"reminder_offsets_minutes": p.OffsetsMins,
	})
}

type updateProfileRequest struct {
	Name                   string `json:"name" validate:"max=200"`
	Timezone               string `json:"timezone" validate:"omitempty,timezone"`
	ReminderOffsetsMinutes []int  `json:"reminder_offsets_minutes" validate:"dive,gt=0,lte=525600"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req updateProfileRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	offsets := req.ReminderOffsetsMinutes
	if len(offsets) == 0 {
		offsets = []int{1440, 60}
	}

	if err := h.repo.UpdateProfile(r.Context(), branchID, req.Name, req.Timezone, offsets); err != nil {
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createServiceRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	DurationMins int     `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	StepMins     int     `json:"slot_step_minutes" validate:"omitempty,gt=0,lte=120"`
	Price        float64 `json:"price" validate:"gte=0"`
	Description  string  `json:"description" validate:"max=2000"`
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req createServiceRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.StepMins == 0 {
		req.StepMins = 15
	}

	id, err := h.repo.CreateService(r.Context(), branchID, req.Name, req.DurationMins, req.StepMins, strconv.FormatFloat(req.Price, 'f', 2, 64), req.Description)
	if err != nil {
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": id,
	})
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	services, err := h.repo.ListServices(r.Context(), branchID, 100)
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(services)
}

type createBayRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	IsActive *bool  `json:"is_active"`
}

func (h *Handler) CreateBay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req createBayRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	id, err := h.repo.CreateBay(r.Context(), branchID, req.Name, isActive)
	if err != nil {
		http.Error(w, "failed to create bay", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": id,
	})
}

func (h *Handler) ListBays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	bays, err := h.repo.ListBays(r.Context(), branchID, 100)
	if err != nil {
		http.Error(w, "failed to list bays", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(bays)
}

func (h *Handler) ListBayHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	bayID := strings.TrimSpace(r.URL.Query().Get("bay_id"))
	if bayID == "" {
		http.Error(w, "bay_id is required", http.StatusBadRequest)
		return
	}

	hours, err := h.repo.ListBayHours(r.Context(), branchID, bayID)
	if err != nil {
		http.Error(w, "failed to list bay hours", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(hours)
}

type upsertBayHoursRequest struct {
	Weekday     int  `json:"weekday" validate:"gte=0,lte=6"`
	IsOpen      bool `json:"is_open"`
	OpenMinute  int  `json:"open_minute" validate:"gte=0,lt=1440"`
	CloseMinute int  `json:"close_minute" validate:"gte=0,lte=1440"`
}

func (h *Handler) UpsertBayHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	bayID := strings.TrimSpace(r.URL.Query().Get("bay_id"))
	if bayID == "" {
		http.Error(w, "bay_id is required", http.StatusBadRequest)
		return
	}

	var req upsertBayHoursRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	openMin := req.OpenMinute
	closeMin := req.CloseMinute
	if !req.IsOpen {
		openMin = 0
		closeMin = 0
	} else if openMin >= closeMin {
		http.Error(w, "open_minute must be before close_minute", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpsertBayHours(r.Context(), branchID, bayID, req.Weekday, req.IsOpen, openMin, closeMin); err != nil {
		if storageNotFound(err) {
			http.Error(w, "bay not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to upsert bay hours", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createClosureRequest struct {
	BayID     string `json:"bay_id"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (h *Handler) CreateClosure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req createClosureRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if !end.After(start) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateClosure(r.Context(), branchID, strings.TrimSpace(req.BayID), start.UTC(), end.UTC(), req.Reason)
	if err != nil {
		if storageNotFound(err) {
			http.Error(w, "bay not found", http.StatusNotFound)
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			http.Error(w, "closure overlaps existing entry", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create closure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *Handler) ListClosures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	bayID := strings.TrimSpace(r.URL.Query().Get("bay_id"))
	fromStr := strings.TrimSpace(r.URL.Query().Get("from"))
	toStr := strings.TrimSpace(r.URL.Query().Get("to"))
	if fromStr == "" || toStr == "" {
		http.Error(w, "from and to are required (RFC3339)", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	items, err := h.repo.ListClosures(r.Context(), branchID, bayID, from.UTC(), to.UTC(), 100)
	if err != nil {
		http.Error(w, "failed to list closures", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

func (h *Handler) DeleteClosure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteClosure(r.Context(), branchID, id); err != nil {
		if storageNotFound(err) {
			http.Error(w, "closure not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete closure", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
