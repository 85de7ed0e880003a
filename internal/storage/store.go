package storage

import (
	"context"
	"sort"

	"github.com/MukeshR-prog/distributer/internal/types"
	"github.com/rs/zerolog"
)

// Store defines the persistence interface. Agent task counters are owned
// by the store: creating a distribution, crossing the completed boundary,
// redistributing, and deleting a distribution all adjust the counters
// together with the document write, never separately.
type Store interface {
	CreateAgent(agent types.Agent) error
	GetAgent(id string) (*types.Agent, error)
	ListAgents(includeInactive bool) ([]types.Agent, error)
	// UpdateAgent replaces profile fields only; task counters are
	// maintained by the store itself.
	UpdateAgent(agent types.Agent) error
	DeleteAgent(id string) error

	CreateDistribution(dist *types.Distribution) error
	GetDistribution(id string) (*types.Distribution, error)
	ListDistributions(opts ListOptions) ([]types.Distribution, int, error)
	ListDistributionsByAgent(agentID string) ([]types.Distribution, error)
	UpdateRecordStatus(distID, agentID, recordID string, status types.RecordStatus, notes *string) (*types.Record, error)
	SaveRedistribution(dist *types.Distribution, moves []types.RecordMove) error
	DeleteDistribution(id string) error

	Close() error
}

// ListOptions filters and paginates distribution listings. A zero
// PageSize disables pagination.
type ListOptions struct {
	Strategy string
	Status   string
	Page     int // 1-based
	PageSize int
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadStorageConfig()

	switch cfg.Mode {
	case ModeSQLite:
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case ModeLocal, ModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("using in-memory store (STORAGE_MODE=memory)")
		return NewMemoryStore(logger), nil
	}
}

// applyListOptions filters, sorts newest-first, and paginates. Used by
// the backends that load distributions before filtering.
func applyListOptions(dists []types.Distribution, opts ListOptions) ([]types.Distribution, int) {
	filtered := make([]types.Distribution, 0, len(dists))
	for _, d := range dists {
		if opts.Strategy != "" && string(d.Strategy) != opts.Strategy {
			continue
		}
		if opts.Status != "" && string(d.Status) != opts.Status {
			continue
		}
		filtered = append(filtered, d)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID < filtered[j].ID
	})

	total := len(filtered)
	if opts.PageSize <= 0 {
		return filtered, total
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * opts.PageSize
	if start >= total {
		return []types.Distribution{}, total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// sortAgents orders agents oldest-first with id as tiebreaker, so every
// backend lists them the same way
func sortAgents(agents []types.Agent) {
	sort.SliceStable(agents, func(i, j int) bool {
		if !agents[i].CreatedAt.Equal(agents[j].CreatedAt) {
			return agents[i].CreatedAt.Before(agents[j].CreatedAt)
		}
		return agents[i].ID < agents[j].ID
	})
}
