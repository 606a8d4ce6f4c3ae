// README: Matching service filters the pro population, scores survivors, and
// dispatches match attempts to the best candidates.
package matching

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"pronto/internal/config"
	"pronto/internal/modules/directory"
	"pronto/internal/types"
)

// EligibilityGate reports whether a pro may accept jobs (insurance gate).
type EligibilityGate interface {
	IsEligible(ctx context.Context, proID types.ID) bool
}

// RequestMarker moves a request into the matching status once candidates have
// been dispatched.
type RequestMarker interface {
	MarkMatching(ctx context.Context, id types.ID) error
}

// AttemptSink persists pending match attempts.
type AttemptSink interface {
	Create(ctx context.Context, a MatchAttempt) error
}

// DispatchMarker records which pros were notified for a request.
type DispatchMarker interface {
	RecordDispatch(ctx context.Context, requestID types.ID, proIDs []types.ID) error
	WasNotified(ctx context.Context, requestID, proID types.ID) (bool, error)
}

type Service struct {
	directory directory.Directory
	gate      EligibilityGate
	attempts  AttemptSink
	dispatch  DispatchMarker
	requests  RequestMarker
	cfg       config.MatchingConfig
}

func NewService(
	dir directory.Directory,
	gate EligibilityGate,
	attempts AttemptSink,
	dispatch DispatchMarker,
	requests RequestMarker,
	cfg config.MatchingConfig,
) *Service {
	return &Service{
		directory: dir,
		gate:      gate,
		attempts:  attempts,
		dispatch:  dispatch,
		requests:  requests,
		cfg:       cfg,
	}
}

// Match returns candidates ranked best-first. An empty slice is a normal
// outcome, not an error. Ties are broken by pro ID so repeated calls rank
// identically.
func (s *Service) Match(ctx context.Context, c MatchCriteria) ([]RankedPro, error) {
	pros, err := s.directory.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedPro, 0, len(pros))
	for _, p := range pros {
		if !p.Available {
			continue
		}
		if c.VerifiedOnly && !p.Verified {
			continue
		}
		if !p.Serves(c.ServiceType) {
			continue
		}
		if !s.gate.IsEligible(ctx, p.ID) {
			continue
		}
		ranked = append(ranked, RankedPro{Pro: p, Score: Score(c, p)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Pro.ID < ranked[j].Pro.ID
	})

	if c.PriorityOnly && len(ranked) > s.cfg.PriorityTopK {
		ranked = ranked[:s.cfg.PriorityTopK]
	}
	return ranked, nil
}

// Dispatch ranks candidates for a request, moves the request into matching,
// and records a pending attempt for each notified pro. Notification delivery
// itself lives outside this core.
func (s *Service) Dispatch(ctx context.Context, requestID types.ID, c MatchCriteria) ([]RankedPro, error) {
	ranked, err := s.Match(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return ranked, nil
	}

	if err := s.requests.MarkMatching(ctx, requestID); err != nil {
		return nil, err
	}

	n := s.cfg.NotifyCount
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}
	now := time.Now()
	notified := make([]types.ID, 0, n)
	for _, r := range ranked[:n] {
		// Re-dispatching a request must not pile duplicate attempts onto a
		// pro who was already notified.
		if seen, err := s.dispatch.WasNotified(ctx, requestID, r.Pro.ID); err == nil && seen {
			continue
		}
		a := MatchAttempt{
			ID:        types.ID(uuid.NewString()),
			RequestID: requestID,
			ProID:     r.Pro.ID,
			Status:    AttemptPending,
			CreatedAt: now,
			ExpiresAt: now.Add(attemptTTL),
		}
		if err := s.attempts.Create(ctx, a); err != nil {
			return nil, err
		}
		notified = append(notified, r.Pro.ID)
	}
	if len(notified) > 0 {
		_ = s.dispatch.RecordDispatch(ctx, requestID, notified)
	}
	return ranked, nil
}
