package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/omarshaarawi/leaguebot/internal/models"
)

// Repository holds score proposals waiting for the opposing captain. They are
// process-local and lost on restart, like any unanswered prompt.
type Repository struct {
	proposals map[string]models.ScoreProposal
	clock     clockwork.Clock
	mu        sync.RWMutex
}

func NewRepository(clock clockwork.Clock) *Repository {
	return &Repository{
		proposals: make(map[string]models.ScoreProposal),
		clock:     clock,
	}
}

// SaveProposal stores p as the pending proposal of its match, replacing any
// earlier one, and stamps its id and time.
func (r *Repository) SaveProposal(p models.ScoreProposal) models.ScoreProposal {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = uuid.NewString()
	p.ProposedAt = r.clock.Now()
	r.proposals[p.MatchID] = p
	return p
}

func (r *Repository) GetProposal(matchID string) (models.ScoreProposal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.proposals[matchID]
	return p, ok
}

func (r *Repository) DeleteProposal(matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.proposals[matchID]
	delete(r.proposals, matchID)
	return ok
}

// Proposals returns every pending proposal, oldest first.
func (r *Repository) Proposals() []models.ScoreProposal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ScoreProposal, 0, len(r.proposals))
	for _, p := range r.proposals {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProposedAt.Before(out[j].ProposedAt)
	})
	return out
}

// ExpireProposals removes and returns proposals older than ttl.
func (r *Repository) ExpireProposals(ttl time.Duration) []models.ScoreProposal {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-ttl)
	var expired []models.ScoreProposal
	for id, p := range r.proposals {
		if p.ProposedAt.Before(cutoff) {
			expired = append(expired, p)
			delete(r.proposals, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ProposedAt.Before(expired[j].ProposedAt)
	})
	return expired
}
