package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tireline/tireline/services/booking-service/internal/availability"
	"github.com/tireline/tireline/services/booking-service/internal/model"
	"github.com/tireline/tireline/services/booking-service/internal/outbox"
	"github.com/tireline/tireline/services/booking-service/internal/policy"
	"github.com/tireline/tireline/services/booking-service/internal/scheduling"
	"github.com/tireline/tireline/services/booking-service/internal/storage"
)

type BookingHandler struct {
	repo       *storage.AppointmentRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	policy     policy.Provider
	scheduling scheduling.Provider
	defaults   []time.Duration
	leadTime   time.Duration
}

func NewBookingHandler(repo *storage.AppointmentRepository, outboxRepo *outbox.Repository, logger *slog.Logger, policyProvider policy.Provider, schedulingProvider scheduling.Provider, defaults []time.Duration, leadTime time.Duration) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
		policy:     policyProvider,
		scheduling: schedulingProvider,
		defaults:   defaults,
		leadTime:   leadTime,
	}
}

type createBookingRequest struct {
	BranchID        string `json:"branch_id"`
	ServiceID       string `json:"service_id"`
	BayID           string `json:"bay_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	VehiclePlate    string `json:"vehicle_plate"`
	Locale          string `json:"locale"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type createBookingResponse struct {
	AppointmentID string `json:"appointment_id"`
}

type cancelBookingRequest struct {
	BranchID      string `json:"branch_id"`
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type cancelBookingResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at"`
}

type listAppointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	BayID         string `json:"bay_id"`
	ServiceID     string `json:"service_id"`
	VehiclePlate  string `json:"vehicle_plate,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// dayConfig is the resolved per-branch schedule for one date: opening window,
// closures and slot geometry, all in the branch's timezone.
type dayConfig struct {
	location *time.Location
	hours    availability.BusinessHours
	closures []availability.Interval
	duration int
	step     int
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := strings.TrimSpace(r.URL.Query().Get("branch_id"))
	bayID := strings.TrimSpace(r.URL.Query().Get("bay_id"))
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if branchID == "" || bayID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "branch_id, bay_id, service_id, and date are required", http.StatusBadRequest)
		return
	}

	cfg, ok := h.resolveDayConfig(r.Context(), branchID, bayID, serviceID, dateStr, r.URL.Query())
	if !ok {
		writeJSON(w, http.StatusOK, []slotItem{})
		return
	}

	day, err := time.ParseInLocation("2006-01-02", dateStr, cfg.location)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	records, err := h.repo.ListForBayDay(r.Context(), h.repo.Pool(), branchID, bayID, day, day.AddDate(0, 0, 1))
	if err != nil {
		http.Error(w, "failed to load booked slots", http.StatusInternalServerError)
		return
	}

	slots, err := h.computeSlots(cfg, day, records, time.Now())
	if err != nil {
		h.logger.Error("slot computation failed", "err", err, "branch_id", branchID, "date", dateStr)
		http.Error(w, "invalid schedule configuration", http.StatusInternalServerError)
		return
	}

	resp := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		start := day.Add(time.Duration(s.StartMinute) * time.Minute)
		resp = append(resp, slotItem{
			StartTime: start.UTC().Format(time.RFC3339),
			EndTime:   start.Add(time.Duration(cfg.duration) * time.Minute).UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.BranchID = strings.TrimSpace(req.BranchID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.BayID = strings.TrimSpace(req.BayID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)

	if req.BranchID == "" || req.ServiceID == "" || req.BayID == "" || req.CustomerName == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	now := time.Now()
	if startTime.Before(now.Add(h.leadTime)) {
		http.Error(w, "start_time is too soon", http.StatusUnprocessableEntity)
		return
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, req.BranchID, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			if len(rec.ResponsePayload) > 0 {
				_, _ = w.Write(rec.ResponsePayload)
				return
			}
			_ = json.NewEncoder(w).Encode(createBookingResponse{AppointmentID: rec.AppointmentID})
			return
		}
	}

	// Re-check the slot against the latest bookings inside the transaction.
	// Whatever the customer saw when slots were listed may be stale by now.
	appt, status, errMsg := h.validateAndBuild(ctx, tx, req, startTime, now)
	if status != 0 {
		if idempotencyKey != "" && status != http.StatusServiceUnavailable {
			if h.finalizeIdempotencyError(ctx, tx, req.BranchID, idempotencyKey, status, errMsg) {
				_ = tx.Commit(ctx)
			}
		}
		http.Error(w, errMsg, status)
		return
	}

	id, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			// The bay exclusion constraint is the tie-breaker between two
			// transactions racing for the same slot.
			http.Error(w, "slot is no longer available", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"appointment_id": id,
		"branch_id":      appt.BranchID,
		"bay_id":         appt.BayID,
		"service_id":     appt.ServiceID,
		"customer_email": appt.CustomerEmail,
		"customer_phone": appt.CustomerPhone,
		"customer_name":  appt.CustomerName,
		"vehicle_plate":  appt.VehiclePlate,
		"locale":         appt.Locale,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}

	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     "booking.appointment.booked.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	offsets := h.defaults
	if h.policy != nil {
		if policyOffsets, err := h.policy.ReminderOffsets(ctx, appt.BranchID); err == nil && len(policyOffsets) > 0 {
			offsets = policyOffsets
		} else if err != nil {
			h.logger.Warn("policy offsets fetch failed; using defaults", "err", err)
		}
	}
	for _, offset := range offsets {
		remindAt := appt.StartTime.Add(-offset)
		if remindAt.Before(now.UTC()) {
			continue
		}
		h.enqueueReminder(ctx, tx, id, appt, remindAt, "email", appt.CustomerEmail)
		h.enqueueReminder(ctx, tx, id, appt, remindAt, "sms", appt.CustomerPhone)
	}

	respBody, err := json.Marshal(createBookingResponse{AppointmentID: id})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, appt.BranchID, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// validateAndBuild resolves the branch schedule, recomputes the open slots
// against the bookings visible to this transaction, and confirms the requested
// start is still among them. A zero status means the booking may proceed.
func (h *BookingHandler) validateAndBuild(ctx context.Context, tx pgx.Tx, req createBookingRequest, startTime time.Time, now time.Time) (*model.Appointment, int, string) {
	appt := &model.Appointment{
		BranchID:      req.BranchID,
		ServiceID:     req.ServiceID,
		BayID:         req.BayID,
		CustomerName:  req.CustomerName,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		VehiclePlate:  strings.TrimSpace(req.VehiclePlate),
		Locale:        strings.TrimSpace(req.Locale),
		StartTime:     startTime,
		Status:        model.StatusScheduled,
	}

	if h.scheduling == nil {
		// No schedule provider in this build. Check for plain overlap against
		// current bookings; the exclusion constraint remains the final guard.
		duration := req.DurationMinutes
		if duration <= 0 {
			duration = 30
		}
		appt.EndTime = startTime.Add(time.Duration(duration) * time.Minute)

		records, err := h.repo.ListForBayDay(ctx, tx, req.BranchID, req.BayID, startTime.Add(-24*time.Hour), appt.EndTime.Add(24*time.Hour))
		if err != nil {
			return nil, http.StatusInternalServerError, "failed to load bookings"
		}
		for _, rec := range records {
			if rec.Status == model.StatusCancelled || rec.Status == model.StatusNoShow {
				continue
			}
			if startTime.Before(rec.EndTime) && rec.StartTime.Before(appt.EndTime) {
				return nil, http.StatusConflict, "slot is no longer available"
			}
		}
		return appt, 0, ""
	}

	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cfg, err := h.scheduling.GetAvailabilityConfig(reqCtx, req.BranchID, req.BayID, req.ServiceID, startTime.Format("2006-01-02"))
	if err != nil {
		return nil, http.StatusServiceUnavailable, "schedule service unavailable"
	}
	dc, ok := dayConfigFrom(cfg)
	if !ok {
		return nil, http.StatusUnprocessableEntity, "branch is closed on the requested date"
	}

	startLocal := startTime.In(dc.location)
	day := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), 0, 0, 0, 0, dc.location)
	startMinute := startLocal.Hour()*60 + startLocal.Minute()
	if startLocal.Second() != 0 || startLocal.Nanosecond() != 0 {
		return nil, http.StatusUnprocessableEntity, "start_time must be aligned to whole minutes"
	}
	appt.EndTime = startTime.Add(time.Duration(dc.duration) * time.Minute)

	records, err := h.repo.ListForBayDay(ctx, tx, req.BranchID, req.BayID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, http.StatusInternalServerError, "failed to load bookings"
	}

	slots, err := h.computeSlots(dc, day, records, now)
	if err != nil {
		h.logger.Error("slot re-validation failed", "err", err, "branch_id", req.BranchID)
		return nil, http.StatusInternalServerError, "invalid schedule configuration"
	}
	for _, s := range slots {
		if s.StartMinute == startMinute {
			return appt, 0, ""
		}
	}
	return nil, http.StatusConflict, "slot is no longer available"
}

// computeSlots turns the day's appointments plus configured closures into busy
// intervals and runs the slot engine over them.
func (h *BookingHandler) computeSlots(cfg dayConfig, day time.Time, records []model.Appointment, now time.Time) ([]availability.Slot, error) {
	busyRecords := make([]availability.AppointmentRecord, 0, len(records))
	for _, a := range records {
		busyRecords = append(busyRecords, availability.AppointmentRecord{
			StartTime:       a.StartTime,
			DurationMinutes: int(a.EndTime.Sub(a.StartTime) / time.Minute),
			Status:          a.Status,
		})
	}
	busy := availability.BusyIntervals(day, busyRecords)
	busy = append(busy, cfg.closures...)

	return availability.ComputeSlots(availability.SlotRequest{
		Date:                   day,
		ServiceDurationMinutes: cfg.duration,
		StepMinutes:            cfg.step,
	}, cfg.hours, busy, now, h.leadTime)
}

func (h *BookingHandler) resolveDayConfig(ctx context.Context, branchID, bayID, serviceID, dateStr string, query map[string][]string) (dayConfig, bool) {
	if h.scheduling != nil {
		reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		cfg, err := h.scheduling.GetAvailabilityConfig(reqCtx, branchID, bayID, serviceID, dateStr)
		if err == nil {
			return dayConfigFrom(cfg)
		}
		h.logger.Warn("availability config fetch failed; falling back to query params", "err", err)
	}

	// Fallback: explicit geometry via query params for dev/testing without store-service.
	get := func(key string) string {
		if vals := query[key]; len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
		return ""
	}

	duration := 30
	if v := get("duration_minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 8*60 {
			return dayConfig{}, false
		}
		duration = n
	}
	step := 15
	if v := get("slot_step_minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 120 {
			return dayConfig{}, false
		}
		step = n
	}
	openMin, closeMin := 9*60, 17*60
	if v := get("open_minute"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n >= 24*60 {
			return dayConfig{}, false
		}
		openMin = n
	}
	if v := get("close_minute"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= openMin || n > 24*60 {
			return dayConfig{}, false
		}
		closeMin = n
	}

	hours := availability.BusinessHours{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		hours[wd] = availability.DayWindow{OpenMinute: openMin, CloseMinute: closeMin}
	}
	return dayConfig{
		location: time.UTC,
		hours:    hours,
		duration: duration,
		step:     step,
	}, true
}

func dayConfigFrom(cfg scheduling.AvailabilityConfig) (dayConfig, bool) {
	if !cfg.IsOpen {
		return dayConfig{}, false
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		loc = time.UTC
	}
	if cfg.CloseMinute <= cfg.OpenMinute {
		return dayConfig{}, false
	}
	duration := cfg.DurationMinutes
	if duration <= 0 {
		duration = 30
	}
	step := cfg.SlotStepMinutes
	if step <= 0 {
		step = 15
	}

	hours := availability.BusinessHours{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		hours[wd] = availability.DayWindow{OpenMinute: cfg.OpenMinute, CloseMinute: cfg.CloseMinute}
	}
	closures := make([]availability.Interval, 0, len(cfg.Closures))
	for _, c := range cfg.Closures {
		if c.EndMinute <= c.StartMinute {
			continue
		}
		closures = append(closures, availability.Interval{StartMinute: c.StartMinute, EndMinute: c.EndMinute})
	}
	return dayConfig{
		location: loc,
		hours:    hours,
		closures: closures,
		duration: duration,
		step:     step,
	}, true
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BranchID = strings.TrimSpace(req.BranchID)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.BranchID == "" || req.AppointmentID == "" {
		http.Error(w, "branch_id and appointment_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetAppointmentForUpdate(ctx, tx, req.BranchID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.Status == model.StatusCancelled && appt.CancelledAt != nil {
		h.writeCancelResponse(w, appt.ID, appt.CancelledAt.UTC())
		return
	}
	if appt.Status != model.StatusScheduled && appt.Status != model.StatusConfirmed {
		http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.repo.CancelAppointment(ctx, tx, req.BranchID, appt.ID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}

	cancelPayload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"branch_id":      appt.BranchID,
		"bay_id":         appt.BayID,
		"service_id":     appt.ServiceID,
		"customer_email": appt.CustomerEmail,
		"customer_name":  appt.CustomerName,
		"locale":         appt.Locale,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
		"cancelled_at":   cancelledAt.UTC().Format(time.RFC3339),
		"reason":         req.Reason,
	})
	if err != nil {
		http.Error(w, "failed to build cancellation event", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     "booking.appointment.cancelled.v1",
		Payload:       cancelPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeCancelResponse(w, appt.ID, cancelledAt.UTC())
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := strings.TrimSpace(r.Header.Get("X-Branch-Id"))
	if branchID == "" {
		branchID = strings.TrimSpace(r.URL.Query().Get("branch_id"))
	}
	if branchID == "" {
		http.Error(w, "branch_id required", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.repo.ListByBranch(r.Context(), branchID, limit)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]listAppointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := listAppointmentItem{
			AppointmentID: appt.ID,
			BayID:         appt.BayID,
			ServiceID:     appt.ServiceID,
			VehiclePlate:  appt.VehiclePlate,
			StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
			EndTime:       appt.EndTime.UTC().Format(time.RFC3339),
			Status:        appt.Status,
			CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) enqueueReminder(ctx context.Context, tx pgx.Tx, appointmentID string, appt *model.Appointment, remindAt time.Time, channel string, recipient string) {
	if strings.TrimSpace(recipient) == "" {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appointmentID,
		"branch_id":      appt.BranchID,
		"channel":        channel,
		"recipient":      recipient,
		"locale":         appt.Locale,
		"remind_at":      remindAt.UTC().Format(time.RFC3339),
		"template_data": map[string]any{
			"customer_name": appt.CustomerName,
			"service_id":    appt.ServiceID,
			"vehicle_plate": appt.VehiclePlate,
			"start_time":    appt.StartTime.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		h.logger.Error("failed to build reminder payload", "err", err)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appointmentID,
		EventType:     "booking.reminder.requested.v1",
		Payload:       payload,
	}); err != nil {
		h.logger.Error("failed to enqueue reminder", "err", err)
	}
}

func (h *BookingHandler) writeCancelResponse(w http.ResponseWriter, appointmentID string, cancelledAt time.Time) {
	writeJSON(w, http.StatusOK, cancelBookingResponse{
		AppointmentID: appointmentID,
		Status:        model.StatusCancelled,
		CancelledAt:   cancelledAt.Format(time.RFC3339),
	})
}

func (h *BookingHandler) finalizeIdempotencyError(ctx context.Context, tx pgx.Tx, branchID, key string, statusCode int, msg string) bool {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return false
	}
	if err := h.repo.FinalizeIdempotency(ctx, tx, branchID, key, "", statusCode, body); err != nil {
		h.logger.Error("failed to finalize idempotency (error)", "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
