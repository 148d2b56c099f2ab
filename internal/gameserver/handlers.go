package gameserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/torbridge/conquest/internal/content"
	"github.com/torbridge/conquest/internal/game/board"
	"github.com/torbridge/conquest/internal/game/rulebook"
	"github.com/torbridge/conquest/internal/storage/postgres"
)

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, msg string) {
	writeJSON(w, logger, status, map[string]string{"error": msg})
}

// splitParam parses a comma-separated query parameter into its non-empty parts.
func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (s *Server) handleListPacks(w http.ResponseWriter, _ *http.Request) {
	packs := s.repo.AvailablePacks()
	if packs == nil {
		packs = []string{}
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"packs": packs})
}

func (s *Server) handleSearchRules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	sections := splitParam(q.Get("sections"))
	tags := splitParam(q.Get("tags"))

	campaignID := "library"
	packs := splitParam(q.Get("packs"))
	if raw := q.Get("campaign"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, s.logger, http.StatusBadRequest, "invalid campaign id")
			return
		}
		if s.campaigns == nil {
			writeError(w, s.logger, http.StatusServiceUnavailable, "campaign storage is not configured")
			return
		}
		unlocked, err := s.campaigns.UnlockedPacks(r.Context(), id)
		if err != nil {
			s.respondCampaignError(w, err)
			return
		}
		campaignID = id.String()
		packs = unlocked
	}

	cr, err := s.compiler.BuildCampaignRulebook(campaignID, packs)
	if err != nil {
		s.logger.Error("compiling rulebook for search", zap.Error(err))
		writeError(w, s.logger, http.StatusInternalServerError, "rulebook unavailable")
		return
	}

	matches := rulebook.SearchRules(cr.Compiled, query, sections, tags)
	results := rulebook.RankResults(cr.Compiled, query, matches)
	if results == nil {
		results = []rulebook.SearchResult{}
	}

	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"query":   query,
		"version": cr.Version,
		"total":   len(results),
		"results": results,
	})
}

func (s *Server) respondCampaignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, postgres.ErrCampaignNotFound):
		writeError(w, s.logger, http.StatusNotFound, "campaign not found")
	case errors.Is(err, postgres.ErrCampaignExists):
		writeError(w, s.logger, http.StatusConflict, "campaign already exists")
	default:
		s.logger.Error("campaign storage", zap.Error(err))
		writeError(w, s.logger, http.StatusInternalServerError, "campaign storage failure")
	}
}

func (s *Server) requireCampaigns(w http.ResponseWriter) bool {
	if s.campaigns == nil {
		writeError(w, s.logger, http.StatusServiceUnavailable, "campaign storage is not configured")
		return false
	}
	return true
}

func campaignJSON(c postgres.Campaign, packs []string) map[string]any {
	if packs == nil {
		packs = []string{}
	}
	return map[string]any{
		"id":             c.ID.String(),
		"name":           c.Name,
		"board_id":       c.BoardID,
		"created_at":     c.CreatedAt,
		"unlocked_packs": packs,
	}
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	if !s.requireCampaigns(w) {
		return
	}

	var req struct {
		Name    string `json:"name"`
		BoardID string `json:"board_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.BoardID == "" {
		writeError(w, s.logger, http.StatusBadRequest, "name and board_id are required")
		return
	}
	if _, err := s.boards.Get(req.BoardID); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			writeError(w, s.logger, http.StatusBadRequest, "unknown board")
			return
		}
		s.logger.Error("loading board", zap.String("board", req.BoardID), zap.Error(err))
		writeError(w, s.logger, http.StatusInternalServerError, "board unavailable")
		return
	}

	c, err := s.campaigns.Create(r.Context(), req.Name, req.BoardID)
	if err != nil {
		s.respondCampaignError(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, campaignJSON(c, nil))
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	if !s.requireCampaigns(w) {
		return
	}
	campaigns, err := s.campaigns.List(r.Context())
	if err != nil {
		s.respondCampaignError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, campaignJSON(c, nil))
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"campaigns": out})
}

func (s *Server) campaignID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid campaign id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	if !s.requireCampaigns(w) {
		return
	}
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}

	c, err := s.campaigns.Get(r.Context(), id)
	if err != nil {
		s.respondCampaignError(w, err)
		return
	}
	packs, err := s.campaigns.UnlockedPacks(r.Context(), id)
	if err != nil {
		s.respondCampaignError(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, campaignJSON(c, packs))
}

func (s *Server) handleUnlockPack(w http.ResponseWriter, r *http.Request) {
	if !s.requireCampaigns(w) {
		return
	}
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}

	var req struct {
		Pack string `json:"pack"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pack == "" {
		writeError(w, s.logger, http.StatusBadRequest, "pack is required")
		return
	}

	if err := s.campaigns.UnlockPack(r.Context(), id, req.Pack); err != nil {
		s.respondCampaignError(w, err)
		return
	}
	// The campaign's compiled rulebook is stale now.
	s.compiler.ClearCampaignCache(id.String())

	packs, err := s.campaigns.UnlockedPacks(r.Context(), id)
	if err != nil {
		s.respondCampaignError(w, err)
		return
	}
	if packs == nil {
		packs = []string{}
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"campaign_id":    id.String(),
		"unlocked_packs": packs,
	})
}

func (s *Server) handleCampaignRulebook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.campaignID(w, r)
	if !ok {
		return
	}

	var packs []string
	if s.campaigns != nil {
		unlocked, err := s.campaigns.UnlockedPacks(r.Context(), id)
		if err != nil {
			s.respondCampaignError(w, err)
			return
		}
		packs = unlocked
	} else {
		packs = splitParam(r.URL.Query().Get("packs"))
	}

	cr, err := s.compiler.BuildCampaignRulebook(id.String(), packs)
	if err != nil {
		s.logger.Error("compiling campaign rulebook",
			zap.String("campaign", id.String()),
			zap.Error(err),
		)
		writeError(w, s.logger, http.StatusInternalServerError, "rulebook unavailable")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, cr)
}

func (s *Server) handleListBoards(w http.ResponseWriter, _ *http.Request) {
	versions := s.boards.Versions()
	if versions == nil {
		versions = []string{}
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"boards": versions})
}

// topology resolves the {version} path segment to a cached topology,
// answering 404 for unknown boards.
func (s *Server) topology(w http.ResponseWriter, r *http.Request) (*board.Topology, bool) {
	version := r.PathValue("version")
	topo, err := s.boards.Get(version)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			writeError(w, s.logger, http.StatusNotFound, "board not found")
			return nil, false
		}
		s.logger.Error("loading board", zap.String("board", version), zap.Error(err))
		writeError(w, s.logger, http.StatusInternalServerError, "board unavailable")
		return nil, false
	}
	return topo, true
}

func (s *Server) handleBoardStatistics(w http.ResponseWriter, r *http.Request) {
	topo, ok := s.topology(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, topo.Statistics())
}

func (s *Server) handleBoardIntegrity(w http.ResponseWriter, r *http.Request) {
	topo, ok := s.topology(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, http.StatusOK, topo.VerifyIntegrity())
}

func (s *Server) handleGetTerritory(w http.ResponseWriter, r *http.Request) {
	topo, ok := s.topology(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	terr, ok := topo.Territory(id)
	if !ok {
		writeError(w, s.logger, http.StatusNotFound, "territory not found")
		return
	}
	adjacent, err := topo.AdjacentTerritories(id)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "territory not found")
		return
	}
	if adjacent == nil {
		adjacent = []*board.Territory{}
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"territory": terr,
		"adjacent":  adjacent,
	})
}

func (s *Server) handleValidateMovement(w http.ResponseWriter, r *http.Request) {
	topo, ok := s.topology(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		writeError(w, s.logger, http.StatusBadRequest, "from and to are required")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"from":  from,
		"to":    to,
		"valid": topo.ValidateMovement(from, to),
	})
}
