package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/service"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/transfer"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/validation"
)

const maxBodyBytes = 1 << 20

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	service *service.TransferService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(svc *service.TransferService) *APIHandlers {
	return &APIHandlers{service: svc}
}

type usersResponse struct {
	Users  []string `json:"users"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

type suggestionsResponse struct {
	UserID      string                      `json:"userId"`
	Suggestions []domain.TransferSuggestion `json:"suggestions"`
}

type evaluateRequest struct {
	Device domain.DeviceRecord `json:"device"`
	User   domain.UserRecord   `json:"user"`
	Market *domain.MarketData  `json:"market,omitempty"`
}

type promptContextInput struct {
	TimeOfDay string             `json:"timeOfDay,omitempty" validate:"omitempty,oneof=morning afternoon evening night"`
	DayOfWeek *int               `json:"dayOfWeek,omitempty" validate:"omitempty,min=0,max=6"`
	Season    string             `json:"season,omitempty" validate:"omitempty,oneof=spring summer autumn winter"`
	Location  *string            `json:"location,omitempty"`
	Market    *domain.MarketData `json:"market,omitempty"`
}

type promptRequest struct {
	Suggestion domain.TransferSuggestion `json:"suggestion"`
	Device     *domain.DeviceRecord      `json:"device" validate:"required"`
	User       domain.UserRecord         `json:"user"`
	Context    *promptContextInput       `json:"context,omitempty"`
}

type timingRequest struct {
	Device domain.DeviceRecord `json:"device"`
	User   domain.UserRecord   `json:"user"`
	Market *domain.MarketData  `json:"market,omitempty"`
}

func (h *APIHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, validation.ErrorCode, err.Error(), nil)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, validation.ErrorCode, err.Error(), nil)
		return
	}
	ids, err := h.service.ListUsers(r.Context(), offset, limit)
	if err != nil {
		h.fail(w, r, err, "failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, usersResponse{Users: ids, Offset: offset, Limit: limit})
}

func (h *APIHandlers) listSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	suggestions, err := h.service.GenerateSuggestions(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "failed to generate suggestions")
		return
	}
	respondJSON(w, http.StatusOK, suggestionsResponse{UserID: userID, Suggestions: suggestions})
}

func (h *APIHandlers) evaluateSuggestion(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ev, err := h.service.EvaluateDevice(r.Context(), req.Device, req.User, req.Market)
	if err != nil {
		h.fail(w, r, err, "failed to evaluate device")
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

func (h *APIHandlers) composePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	pc := h.service.PromptContext(*req.Device, req.User)
	if in := req.Context; in != nil {
		if in.TimeOfDay != "" {
			pc.TimeOfDay = transfer.TimeOfDay(in.TimeOfDay)
		}
		if in.DayOfWeek != nil {
			pc.DayOfWeek = time.Weekday(*in.DayOfWeek)
		}
		if in.Season != "" {
			pc.Season = transfer.Season(in.Season)
		}
		if in.Location != nil {
			pc.Location = *in.Location
		}
		if in.Market != nil {
			snapshot := in.Market.Normalize()
			pc.Market = &snapshot
		}
	}

	respondJSON(w, http.StatusOK, h.service.ComposePrompt(req.Suggestion, pc))
}

func (h *APIHandlers) deviceTiming(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	deviceID := chi.URLParam(r, "deviceID")
	timing, err := h.service.OptimizeDeviceTiming(r.Context(), userID, deviceID)
	if err != nil {
		h.fail(w, r, err, "failed to optimise transfer timing")
		return
	}
	respondJSON(w, http.StatusOK, timing)
}

func (h *APIHandlers) optimizeTiming(w http.ResponseWriter, r *http.Request) {
	var req timingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	timing, err := h.service.OptimizeTiming(r.Context(), req.Device, req.User, req.Market)
	if err != nil {
		h.fail(w, r, err, "failed to optimise transfer timing")
		return
	}
	respondJSON(w, http.StatusOK, timing)
}

func (h *APIHandlers) marketSnapshot(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "category")
	category := domain.ParseCategory(raw)
	if category == domain.CategoryOther && !strings.EqualFold(strings.TrimSpace(raw), string(domain.CategoryOther)) {
		writeError(w, http.StatusBadRequest, validation.ErrorCode, fmt.Sprintf("unknown category %q", raw), nil)
		return
	}
	data, err := h.service.MarketSnapshot(r.Context(), category)
	if err != nil {
		h.fail(w, r, err, "failed to load market data")
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// fail maps service errors onto HTTP statuses. Internal details are logged,
// never returned.
func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrMarketUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg(msg)
		writeError(w, http.StatusBadGateway, "MARKET_UNAVAILABLE", "market data is currently unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Warn().Err(err).Msg(msg)
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", msg, nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msg, nil)
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return v, nil
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error(), nil)
		return false
	}
	if err := validation.ValidateStruct(dst); err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, validation.ErrorCode, verr.Error(), verr.Details())
			return false
		}
		writeError(w, http.StatusBadRequest, validation.ErrorCode, err.Error(), nil)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	respondJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg, Details: details}})
}
