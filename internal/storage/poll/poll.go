package storage_poll

import (
	"context"
	"log/slog"
	"sync"

	"github.com/humanbelnik/livepoll/internal/model"
	usecase_poll "github.com/humanbelnik/livepoll/internal/usecase/poll"
)

type LatestIDCache interface {
	Get(ctx context.Context) (model.PollID, error)
	Set(ctx context.Context, id model.PollID) error
	Invalidate(ctx context.Context) error
}

// Storage puts a latest-poll-id cache in front of a poll repository.
type Storage struct {
	repo   usecase_poll.PollRepository
	cache  LatestIDCache
	logger *slog.Logger

	mu sync.Mutex
	// gen counts creates; a refresh read before a create must not overwrite it.
	gen uint64
	// stale is set while the cached id may point at a superseded poll.
	stale bool
}

type Option func(*Storage)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

func New(
	repo usecase_poll.PollRepository,
	cache LatestIDCache,
	opts ...Option,
) *Storage {
	s := &Storage{
		repo:   repo,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores the poll and points the cache at it. A failed cache write
// leaves the repository as the only source of truth until a later refresh
// succeeds.
func (s *Storage) Create(ctx context.Context, poll *model.Poll) error {
	if err := s.repo.Create(ctx, poll); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stale = false
	if err := s.cache.Set(ctx, poll.ID); err != nil {
		s.stale = true
		s.logger.Warn("failed to cache latest poll id",
			slog.String("poll_id", poll.ID),
			slog.String("error", err.Error()))
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate latest poll id", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Latest tries a fast pass through the cached id first.
// It falls back to the repository and refreshes the cache when the id is
// missing or dangling, or when a failed cache write left it behind.
func (s *Storage) Latest(ctx context.Context) (*model.Poll, error) {
	s.mu.Lock()
	stale, gen := s.stale, s.gen
	s.mu.Unlock()

	if !stale {
		id, _ := s.cache.Get(ctx)
		if id != model.EmptyPollID {
			// Fast path
			if poll, err := s.repo.ByID(ctx, id); err == nil {
				return poll, nil
			}
		}
	}

	// Slow path
	poll, err := s.repo.Latest(ctx)
	if err != nil || poll == nil {
		return poll, err
	}
	s.refresh(ctx, poll.ID, gen)
	return poll, nil
}

// refresh caches id unless a create happened since it was read.
func (s *Storage) refresh(ctx context.Context, id model.PollID, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if err := s.cache.Set(ctx, id); err == nil {
		s.stale = false
	}
}

func (s *Storage) ByID(ctx context.Context, id model.PollID) (*model.Poll, error) {
	return s.repo.ByID(ctx, id)
}

func (s *Storage) AppendVote(ctx context.Context, id model.PollID, voterID string, optionIndex int) (*model.Poll, error) {
	return s.repo.AppendVote(ctx, id, voterID, optionIndex)
}

func (s *Storage) List(ctx context.Context, order model.Order) ([]*model.Poll, error) {
	return s.repo.List(ctx, order)
}
