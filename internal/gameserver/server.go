// Package gameserver exposes the compiled rulebook and board topology over a
// small HTTP JSON API.
package gameserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/torbridge/conquest/internal/config"
	"github.com/torbridge/conquest/internal/game/board"
	"github.com/torbridge/conquest/internal/game/rulebook"
	"github.com/torbridge/conquest/internal/storage/postgres"
)

// CampaignDirectory defines the campaign persistence operations the server
// needs. postgres.CampaignStore satisfies it.
type CampaignDirectory interface {
	Create(ctx context.Context, name, boardID string) (postgres.Campaign, error)
	Get(ctx context.Context, id uuid.UUID) (postgres.Campaign, error)
	List(ctx context.Context) ([]postgres.Campaign, error)
	UnlockPack(ctx context.Context, campaignID uuid.UUID, pack string) error
	UnlockedPacks(ctx context.Context, campaignID uuid.UUID) ([]string, error)
}

// Server serves rulebook and board queries over HTTP.
type Server struct {
	logger    *zap.Logger
	compiler  *rulebook.Compiler
	repo      *rulebook.Repository
	boards    *board.Cache
	campaigns CampaignDirectory

	httpServer *http.Server
}

// New creates a Server. campaigns may be nil, in which case the campaign
// endpoints respond 503 and rulebook compilation takes its pack list from
// the request instead of the database.
//
// Precondition: logger, compiler, repo, and boards must be non-nil.
func New(
	cfg config.ServerConfig,
	logger *zap.Logger,
	compiler *rulebook.Compiler,
	repo *rulebook.Repository,
	boards *board.Cache,
	campaigns CampaignDirectory,
) *Server {
	s := &Server{
		logger:    logger,
		compiler:  compiler,
		repo:      repo,
		boards:    boards,
		campaigns: campaigns,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/packs", s.handleListPacks)
	mux.HandleFunc("GET /api/rules/search", s.handleSearchRules)

	mux.HandleFunc("POST /api/campaigns", s.handleCreateCampaign)
	mux.HandleFunc("GET /api/campaigns", s.handleListCampaigns)
	mux.HandleFunc("GET /api/campaigns/{id}", s.handleGetCampaign)
	mux.HandleFunc("POST /api/campaigns/{id}/unlocks", s.handleUnlockPack)
	mux.HandleFunc("GET /api/campaigns/{id}/rulebook", s.handleCampaignRulebook)

	mux.HandleFunc("GET /api/boards", s.handleListBoards)
	mux.HandleFunc("GET /api/boards/{version}/statistics", s.handleBoardStatistics)
	mux.HandleFunc("GET /api/boards/{version}/integrity", s.handleBoardIntegrity)
	mux.HandleFunc("GET /api/boards/{version}/territories/{id}", s.handleGetTerritory)
	mux.HandleFunc("GET /api/boards/{version}/movement", s.handleValidateMovement)

	return mux
}

// Start runs the HTTP listener and blocks until shutdown or failure.
func (s *Server) Start() error {
	s.logger.Info("game server listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the listener, draining in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}
