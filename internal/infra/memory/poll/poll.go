package infra_memory_poll

import (
	"context"
	"slices"
	"sync"

	"github.com/humanbelnik/livepoll/internal/model"
	usecase_poll "github.com/humanbelnik/livepoll/internal/usecase/poll"
)

// Driver keeps polls in process memory. It backs the "memory" storage
// profile and the delivery tests.
type Driver struct {
	mu    sync.Mutex
	polls map[model.PollID]*model.Poll
	// creation order, oldest first
	order []model.PollID
}

func New() *Driver {
	return &Driver{
		polls: make(map[model.PollID]*model.Poll),
	}
}

func (d *Driver) Create(ctx context.Context, poll *model.Poll) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if poll.ID == model.EmptyPollID || len(poll.Options) < 2 {
		return usecase_poll.ErrValidation
	}
	if _, exists := d.polls[poll.ID]; exists {
		return usecase_poll.ErrValidation
	}

	d.polls[poll.ID] = poll.Clone()
	d.order = append(d.order, poll.ID)
	return nil
}

func (d *Driver) ByID(ctx context.Context, id model.PollID) (*model.Poll, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	poll, ok := d.polls[id]
	if !ok {
		return nil, usecase_poll.ErrResourceNotFound
	}
	return poll.Clone(), nil
}

func (d *Driver) Latest(ctx context.Context) (*model.Poll, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.order) == 0 {
		return nil, nil
	}
	return d.polls[d.order[len(d.order)-1]].Clone(), nil
}

func (d *Driver) AppendVote(ctx context.Context, id model.PollID, voterID string, optionIndex int) (*model.Poll, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	poll, ok := d.polls[id]
	if !ok {
		return nil, usecase_poll.ErrResourceNotFound
	}
	if poll.HasVoted(voterID) {
		return nil, usecase_poll.ErrAlreadyVoted
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, usecase_poll.ErrIndexOutOfRange
	}

	poll.Options[optionIndex].Votes++
	poll.Responses = append(poll.Responses, model.Response{
		StudentID:           voterID,
		SelectedOptionIndex: optionIndex,
	})
	return poll.Clone(), nil
}

func (d *Driver) List(ctx context.Context, order model.Order) ([]*model.Poll, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	polls := make([]*model.Poll, 0, len(d.order))
	for _, id := range d.order {
		polls = append(polls, d.polls[id].Clone())
	}
	if order == model.NewestFirst {
		slices.Reverse(polls)
	}
	return polls, nil
}
