package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Campaign is a persistent game campaign. Its unlocked packs drive which
// rulebook modifiers apply when the campaign's rulebook is compiled.
type Campaign struct {
	ID        uuid.UUID
	Name      string
	BoardID   string
	CreatedAt time.Time
}

// ErrCampaignNotFound is returned when a campaign lookup yields no results.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrCampaignExists is returned when attempting to create a duplicate
// campaign name.
var ErrCampaignExists = errors.New("campaign already exists")

// CampaignStore provides campaign and unlock persistence operations.
type CampaignStore struct {
	db *pgxpool.Pool
}

// NewCampaignStore creates a CampaignStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCampaignStore(db *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{db: db}
}

// Create inserts a new campaign on the named board.
//
// Precondition: name and boardID must be non-empty.
// Postcondition: Returns the created Campaign with ID and CreatedAt set,
// or ErrCampaignExists if the name is taken.
func (s *CampaignStore) Create(ctx context.Context, name, boardID string) (Campaign, error) {
	if name == "" {
		return Campaign{}, fmt.Errorf("campaign name must not be empty")
	}
	if boardID == "" {
		return Campaign{}, fmt.Errorf("campaign board must not be empty")
	}

	var c Campaign
	err := s.db.QueryRow(ctx,
		`INSERT INTO campaigns (id, name, board_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, board_id, created_at`,
		uuid.New(), name, boardID,
	).Scan(&c.ID, &c.Name, &c.BoardID, &c.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Campaign{}, ErrCampaignExists
		}
		return Campaign{}, fmt.Errorf("inserting campaign: %w", err)
	}

	return c, nil
}

// Get fetches a campaign by ID.
//
// Postcondition: Returns the Campaign, or ErrCampaignNotFound.
func (s *CampaignStore) Get(ctx context.Context, id uuid.UUID) (Campaign, error) {
	var c Campaign
	err := s.db.QueryRow(ctx,
		`SELECT id, name, board_id, created_at FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.BoardID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Campaign{}, ErrCampaignNotFound
		}
		return Campaign{}, fmt.Errorf("fetching campaign: %w", err)
	}
	return c, nil
}

// GetByName fetches a campaign by its unique name.
//
// Postcondition: Returns the Campaign, or ErrCampaignNotFound.
func (s *CampaignStore) GetByName(ctx context.Context, name string) (Campaign, error) {
	var c Campaign
	err := s.db.QueryRow(ctx,
		`SELECT id, name, board_id, created_at FROM campaigns WHERE name = $1`,
		name,
	).Scan(&c.ID, &c.Name, &c.BoardID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Campaign{}, ErrCampaignNotFound
		}
		return Campaign{}, fmt.Errorf("fetching campaign: %w", err)
	}
	return c, nil
}

// List returns all campaigns ordered by creation time.
func (s *CampaignStore) List(ctx context.Context) ([]Campaign, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, board_id, created_at FROM campaigns ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.BoardID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	return campaigns, nil
}

// UnlockPack records that a campaign has unlocked a pack. Unlocking the same
// pack twice is a no-op, so replayed requests are harmless.
//
// Postcondition: The pack is unlocked for the campaign, or
// ErrCampaignNotFound if the campaign does not exist.
func (s *CampaignStore) UnlockPack(ctx context.Context, campaignID uuid.UUID, pack string) error {
	if pack == "" {
		return fmt.Errorf("pack identifier must not be empty")
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO campaign_unlocks (campaign_id, pack)
		 SELECT id, $2 FROM campaigns WHERE id = $1
		 ON CONFLICT (campaign_id, pack) DO NOTHING`,
		campaignID, pack,
	)
	if err != nil {
		return fmt.Errorf("unlocking pack: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the campaign is missing or the pack was already unlocked.
		// Distinguish the two so a bad campaign ID surfaces as not-found.
		if _, err := s.Get(ctx, campaignID); err != nil {
			return err
		}
	}
	return nil
}

// UnlockedPacks returns the campaign's unlocked pack identifiers in unlock
// order.
//
// Postcondition: Returns the pack list (possibly empty), or
// ErrCampaignNotFound if the campaign does not exist.
func (s *CampaignStore) UnlockedPacks(ctx context.Context, campaignID uuid.UUID) ([]string, error) {
	if _, err := s.Get(ctx, campaignID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT pack FROM campaign_unlocks
		 WHERE campaign_id = $1
		 ORDER BY unlocked_at, pack`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing unlocked packs: %w", err)
	}
	defer rows.Close()

	var packs []string
	for rows.Next() {
		var pack string
		if err := rows.Scan(&pack); err != nil {
			return nil, fmt.Errorf("scanning pack: %w", err)
		}
		packs = append(packs, pack)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing unlocked packs: %w", err)
	}
	return packs, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
