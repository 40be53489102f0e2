package httpapi

import (
	"net/http"

	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.teamService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	teamID := r.PathValue("teamID")
	item, err := h.teamService.Get(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	query := r.URL.Query()
	from, err := parseOptionalTime(query.Get("from"), "from")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	to, err := parseOptionalTime(query.Get("to"), "to")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtures, err := h.fixtureService.List(ctx, usecase.ListFixturesInput{
		Status:      query.Get("status"),
		Competition: query.Get("competition"),
		From:        from,
		To:          to,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, fixturesToDTO(fixtures))
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	item, err := h.fixtureService.Get(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) AdminCreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminCreateTeam")
	defer span.End()

	var req teamRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.teamService.Create(ctx, usecase.TeamInput{
		Name:      req.Name,
		ShortName: req.ShortName,
		LogoURL:   req.LogoURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed", "name", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(item))
}

func (h *Handler) AdminUpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminUpdateTeam")
	defer span.End()

	teamID := r.PathValue("teamID")
	var req teamRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.teamService.Update(ctx, teamID, usecase.TeamInput{
		Name:      req.Name,
		ShortName: req.ShortName,
		LogoURL:   req.LogoURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) AdminDeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminDeleteTeam")
	defer span.End()

	teamID := r.PathValue("teamID")
	if err := h.teamService.Delete(ctx, teamID); err != nil {
		h.logger.WarnContext(ctx, "delete team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": teamID})
}

func (h *Handler) AdminCreateFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminCreateFixture")
	defer span.End()

	var req fixtureRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.fixtureService.Create(ctx, fixtureInputFromRequest(req))
	if err != nil {
		h.logger.WarnContext(ctx, "create fixture failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, fixtureToDTO(item))
}

func (h *Handler) AdminUpdateFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminUpdateFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	var req fixtureRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.fixtureService.Update(ctx, fixtureID, fixtureInputFromRequest(req))
	if err != nil {
		h.logger.WarnContext(ctx, "update fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) AdminDeleteFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminDeleteFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	if err := h.fixtureService.Delete(ctx, fixtureID); err != nil {
		h.logger.WarnContext(ctx, "delete fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": fixtureID})
}

func (h *Handler) AdminSetFixtureResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminSetFixtureResult")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	var req fixtureResultRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, scored, err := h.fixtureService.SetResult(ctx, fixtureID, usecase.FixtureResultInput{
		Status:    req.Status,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
		Scorers:   req.Scorers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "set fixture result failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "fixture result saved", "fixture_id", fixtureID, "status", item.Status, "scored", scored)
	writeSuccess(ctx, w, http.StatusOK, fixtureResultDTO{Fixture: fixtureToDTO(item), Scored: scored})
}

func (h *Handler) AdminSyncFixtureResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminSyncFixtureResult")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	var req fixtureSyncRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, scored, err := h.fixtureService.SyncResult(ctx, fixtureID, req.ProviderFixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "sync fixture result failed",
			"fixture_id", fixtureID,
			"provider_fixture_id", req.ProviderFixtureID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "fixture result synced", "fixture_id", fixtureID, "status", item.Status, "scored", scored)
	writeSuccess(ctx, w, http.StatusOK, fixtureResultDTO{Fixture: fixtureToDTO(item), Scored: scored})
}

func (h *Handler) AdminRescoreFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminRescoreFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	scored, err := h.fixtureService.Rescore(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "rescore fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]any{"fixture_id": fixtureID, "scored": scored})
}

func fixtureInputFromRequest(req fixtureRequest) usecase.FixtureInput {
	return usecase.FixtureInput{
		Competition: req.Competition,
		Matchday:    req.Matchday,
		HomeTeamID:  req.HomeTeamID,
		AwayTeamID:  req.AwayTeamID,
		KickoffAt:   req.KickoffAt,
		Venue:       req.Venue,
		Status:      req.Status,
	}
}
