package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

func (h *Handler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPrediction")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtureID := r.PathValue("fixtureID")
	var req predictionRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := h.predictionService.Submit(ctx, usecase.SubmitPredictionInput{
		UserID:    caller.ID,
		FixtureID: fixtureID,
		HomeScore: *req.HomeScore,
		AwayScore: *req.AwayScore,
		Scorer:    req.Scorer,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit prediction failed", "user_id", caller.ID, "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, predictionToDTO(saved))
}

func (h *Handler) ListMyPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPredictions")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.predictionService.ListMine(ctx, caller.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my predictions failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]myPredictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, myPredictionDTO{
			predictionDTO: predictionToDTO(item.Prediction),
			Fixture:       fixtureToDTO(item.Fixture),
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListFixturePredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixturePredictions")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	items, err := h.predictionService.ListForFixture(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixture predictions failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, predictionsToDTO(items))
}

func (h *Handler) AdminListPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminListPredictions")
	defer span.End()

	query := r.URL.Query()
	items, err := h.predictionService.AdminList(ctx, prediction.Filter{
		FixtureID: strings.TrimSpace(query.Get("fixture_id")),
		UserID:    strings.TrimSpace(query.Get("user_id")),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "admin list predictions failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, predictionsToDTO(items))
}

func (h *Handler) AdminOverridePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminOverridePrediction")
	defer span.End()

	predictionID := r.PathValue("predictionID")
	var req predictionRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := h.predictionService.AdminOverride(ctx, predictionID, usecase.OverridePredictionInput{
		HomeScore: *req.HomeScore,
		AwayScore: *req.AwayScore,
		Scorer:    req.Scorer,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "override prediction failed", "prediction_id", predictionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, predictionToDTO(saved))
}

func (h *Handler) AdminDeletePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminDeletePrediction")
	defer span.End()

	predictionID := r.PathValue("predictionID")
	if err := h.predictionService.AdminDelete(ctx, predictionID); err != nil {
		h.logger.WarnContext(ctx, "delete prediction failed", "prediction_id", predictionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": predictionID})
}
