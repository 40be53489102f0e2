package httpapi

import (
	"net/http"

	"github.com/riskibarqy/plus-predictor/internal/domain/league"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const (
	defaultRankingLimit = 50
	maxRankingLimit     = 500
)

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMe")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	dashboard, err := h.dashboardService.Get(ctx, caller.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get dashboard failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dashboardDTO{
		User:              userToDTO(dashboard.User),
		GlobalRank:        dashboard.GlobalRank,
		TotalPoints:       dashboard.TotalPoints,
		ExactHits:         dashboard.ExactHits,
		ScoredPredictions: dashboard.ScoredPredictions,
		PendingFixtures:   fixturesToDTO(dashboard.PendingFixtures),
		Leagues:           leaguesWithRankToDTO(dashboard.Leagues),
	})
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMe")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateMeRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.userService.UpdateDisplayName(ctx, caller.ID, req.DisplayName)
	if err != nil {
		h.logger.WarnContext(ctx, "update display name failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, userToDTO(updated))
}

func (h *Handler) GlobalRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GlobalRanking")
	defer span.End()

	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultRankingLimit, maxRankingLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.leagueService.GlobalRanking(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "global ranking failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, rankingToDTO(entries))
}

func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateLeague")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req leagueNameRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.leagueService.Create(ctx, usecase.CreateLeagueInput{UserID: caller.ID, Name: req.Name})
	if err != nil {
		h.logger.WarnContext(ctx, "create league failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}
	dto := leagueToDTO(created, true)
	dto.Role = league.RoleOwner
	writeSuccess(ctx, w, http.StatusCreated, dto)
}

func (h *Handler) ListMyLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyLeagues")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.leagueService.ListMine(ctx, caller.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "list my leagues failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, leaguesWithRankToDTO(items))
}

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeague")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	item, err := h.leagueService.Get(ctx, caller.ID, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get league failed", "user_id", caller.ID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(item, true))
}

func (h *Handler) JoinLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinLeague")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req joinLeagueRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	joined, err := h.leagueService.Join(ctx, caller.ID, req.InviteCode)
	if err != nil {
		h.logger.WarnContext(ctx, "join league failed", "user_id", caller.ID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(joined, true))
}

func (h *Handler) LeaveLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveLeague")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	if err := h.leagueService.Leave(ctx, caller.ID, leagueID); err != nil {
		h.logger.WarnContext(ctx, "leave league failed", "user_id", caller.ID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"league_id": leagueID})
}

func (h *Handler) RenameLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenameLeague")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	var req leagueNameRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	renamed, err := h.leagueService.Rename(ctx, caller.ID, leagueID, req.Name)
	if err != nil {
		h.logger.WarnContext(ctx, "rename league failed", "user_id", caller.ID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(renamed, true))
}

func (h *Handler) DeleteLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteLeague")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	if err := h.leagueService.Delete(ctx, caller.ID, leagueID); err != nil {
		h.logger.WarnContext(ctx, "delete league failed", "user_id", caller.ID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": leagueID})
}

func (h *Handler) LeagueRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeagueRanking")
	defer span.End()

	caller, err := currentUser(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := r.PathValue("leagueID")
	entries, err := h.leagueService.Ranking(ctx, caller.ID, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "league ranking failed", "user_id", caller.ID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, rankingToDTO(entries))
}

func (h *Handler) AdminListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminListLeagues")
	defer span.End()

	items, err := h.leagueService.AdminList(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]leagueDTO, 0, len(items))
	for _, item := range items {
		out = append(out, leagueToDTO(item, true))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) AdminDeleteLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminDeleteLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	if err := h.leagueService.AdminDelete(ctx, leagueID); err != nil {
		h.logger.WarnContext(ctx, "admin delete league failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": leagueID})
}

func (h *Handler) AdminRemoveLeagueMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminRemoveLeagueMember")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	userID := r.PathValue("userID")
	if err := h.leagueService.AdminRemoveMember(ctx, leagueID, userID); err != nil {
		h.logger.WarnContext(ctx, "admin remove member failed", "league_id", leagueID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"league_id": leagueID, "user_id": userID})
}
