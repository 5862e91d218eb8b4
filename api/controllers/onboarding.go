package controllers

import (
	"net/http"

	"github.com/luisfigueroa/merchantflow-backend/api/responses"
	"github.com/luisfigueroa/merchantflow-backend/api/validators"
	"github.com/luisfigueroa/merchantflow-backend/internal/onboarding"
	pkgerrors "github.com/luisfigueroa/merchantflow-backend/pkg/errors"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
)

type onboardingChecklistRequest struct {
	SurveyFilled    *bool `json:"survey_filled,omitempty"`
	OffersAdded     *bool `json:"offers_added,omitempty"`
	BranchesCovered *bool `json:"branches_covered,omitempty"`
	AssetsComplete  *bool `json:"assets_complete,omitempty"`
	QAApproved      *bool `json:"qa_approved,omitempty"`
}

// OnboardingGet returns the merchant's onboarding checklist and status.
func OnboardingGet(svc onboarding.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "onboarding service unavailable"))
			return
		}

		merchantID, err := parseURLUUID(r, "merchantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// OnboardingChecklistUpdate patches checklist flags and recomputes completion.
func OnboardingChecklistUpdate(svc onboarding.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "onboarding service unavailable"))
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

		var body onboardingChecklistRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateChecklist(r.Context(), onboarding.UpdateChecklistInput{
			MerchantID:      merchantID,
			SurveyFilled:    body.SurveyFilled,
			OffersAdded:     body.OffersAdded,
			BranchesCovered: body.BranchesCovered,
			AssetsComplete:  body.AssetsComplete,
			QAApproved:      body.QAApproved,
			ActorUserID:     actorID,
			ActorRole:       actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// OnboardingGoLive flips the merchant to LIVE once the checklist is complete.
func OnboardingGoLive(svc onboarding.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "onboarding service unavailable"))
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

		record, err := svc.MarkLive(r.Context(), onboarding.MarkLiveInput{
			MerchantID:  merchantID,
			ActorUserID: actorID,
			ActorRole:   actorRole,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}
