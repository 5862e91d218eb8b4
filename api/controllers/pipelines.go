package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/luisfigueroa/merchantflow-backend/api/responses"
	"github.com/luisfigueroa/merchantflow-backend/api/validators"
	"github.com/luisfigueroa/merchantflow-backend/internal/pipeline"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
)

type pipelineTransitionRequest struct {
	NewStage     string     `json:"new_stage" validate:"required"`
	LostReason   *string    `json:"lost_reason,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	NextAction   *string    `json:"next_action,omitempty"`
	NextActionAt *time.Time `json:"next_action_at,omitempty"`
}

// PipelineGet returns the merchant's current pipeline state.
func PipelineGet(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
			return
		}

		merchantID, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.Get(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// PipelineHistory returns the full stage journey, oldest first.
func PipelineHistory(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
			return
		}

		merchantID, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"history": entries})
	}
}

// PipelineTransition moves the merchant to a new stage.
func PipelineTransition(svc pipeline.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pipeline service unavailable"))
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

		var body pipelineTransitionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.Transition(r.Context(), pipeline.TransitionInput{
			MerchantID:   merchantID,
			NewStage:     enums.PipelineStage(strings.ToUpper(strings.TrimSpace(body.NewStage))),
			LostReason:   body.LostReason,
			Notes:        body.Notes,
			NextAction:   body.NextAction,
			NextActionAt: body.NextActionAt,
			ActorUserID:  actorID,
			ActorRole:    actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}
