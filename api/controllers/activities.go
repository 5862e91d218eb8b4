package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/luisfigueroa/merchantflow-backend/api/responses"
	"github.com/luisfigueroa/merchantflow-backend/api/validators"
	"github.com/luisfigueroa/merchantflow-backend/internal/activities"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
)

type activityLogRequest struct {
	Type            string     `json:"type" validate:"required"`
	Outcome         string     `json:"outcome" validate:"required"`
	DurationMinutes int        `json:"duration_minutes" validate:"min=0"`
	Notes           *string    `json:"notes,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// ActivityLog records a field visit, call, or follow-up against a merchant.
func ActivityLog(svc activities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		actorID, actorRole, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body activityLogRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := activities.LogInput{
			MerchantID:      merchantID,
			Type:            enums.ActivityType(strings.ToUpper(strings.TrimSpace(body.Type))),
			Outcome:         enums.ActivityOutcome(strings.ToUpper(strings.TrimSpace(body.Outcome))),
			DurationMinutes: body.DurationMinutes,
			Notes:           body.Notes,
			ActorUserID:     actorID,
			ActorRole:       actorRole,
		}
		if body.CompletedAt != nil {
			input.CompletedAt = *body.CompletedAt
		}

		activity, err := svc.Log(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, activity)
	}
}

// ActivityList returns the merchant's activity log, newest first.
func ActivityList(svc activities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		merchantID, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParseCursorParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByMerchant(r.Context(), merchantID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
