package usecase_poll

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/humanbelnik/livepoll/internal/model"
	"github.com/humanbelnik/livepoll/internal/service/lifecycle"
	"github.com/humanbelnik/livepoll/internal/service/membership"
)

var (
	ErrValidation       = errors.New("missing required fields or invalid options")
	ErrResourceNotFound = errors.New("no such resource")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrIndexOutOfRange  = errors.New("option index out of range")
	ErrPollInProgress   = errors.New("current poll is still open")
	ErrPollClosed       = errors.New("poll is closed")
	ErrVoteNotStored    = errors.New("vote not stored")
	ErrInternal         = errors.New("internal error")
)

const minOptions = 2

//go:generate mockery --name=PollRepository --output=./mocks/poll/repository --filename=repository.go
type PollRepository interface {
	Create(ctx context.Context, poll *model.Poll) error
	ByID(ctx context.Context, id model.PollID) (*model.Poll, error)
	// Latest returns nil, nil when no poll was ever created.
	Latest(ctx context.Context) (*model.Poll, error)
	// AppendVote must be atomic: append-if-absent for voterID.
	AppendVote(ctx context.Context, id model.PollID, voterID string, optionIndex int) (*model.Poll, error)
	List(ctx context.Context, order model.Order) ([]*model.Poll, error)
}

type Tracker interface {
	Record(pollID model.PollID) membership.Record
	RecordVote(pollID model.PollID, voterID string) (membership.Outcome, error)
}

//go:generate mockery --name=Publisher --output=./mocks/poll/publisher --filename=publisher.go
type Publisher interface {
	NewQuestion(poll *model.Poll)
	PollUpdated(poll *model.Poll)
	PollEnded(pollID model.PollID)
}

type nopPublisher struct{}

func (nopPublisher) NewQuestion(*model.Poll) {}
func (nopPublisher) PollUpdated(*model.Poll) {}
func (nopPublisher) PollEnded(model.PollID)  {}

type CreateInput struct {
	Question  string
	Options   []string
	CreatedBy string
	ExpiresAt *time.Time
}

type Usecase struct {
	repo      PollRepository
	tracker   Tracker
	publisher Publisher

	now    func() time.Time
	logger *slog.Logger

	// create is serialised so two teachers can't both pass the open-poll gate
	createMu sync.Mutex
	votes    *keyedMutex
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		u.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithPublisher(p Publisher) Option {
	return func(u *Usecase) {
		u.publisher = p
	}
}

func New(
	repo PollRepository,
	tracker Tracker,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		repo:      repo,
		tracker:   tracker,
		publisher: nopPublisher{},
		now:       time.Now,
		logger:    slog.Default(),
		votes:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SetPublisher breaks the construction cycle with the websocket hub, which
// both publishes for and reads from the usecase.
func (u *Usecase) SetPublisher(p Publisher) {
	if p == nil {
		p = nopPublisher{}
	}
	u.publisher = p
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*model.Poll, error) {
	poll, err := u.buildPoll(in)
	if err != nil {
		return nil, err
	}

	u.createMu.Lock()
	defer u.createMu.Unlock()

	latest, err := u.repo.Latest(ctx)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	if latest != nil && !lifecycle.CanCreate(latest, u.tracker.Record(latest.ID), u.now()) {
		return nil, ErrPollInProgress
	}

	if err := u.repo.Create(ctx, poll); err != nil {
		if errors.Is(err, ErrValidation) {
			return nil, ErrValidation
		}
		return nil, errors.Join(ErrInternal, err)
	}

	u.logger.Info("poll created", slog.String("poll_id", poll.ID), slog.Int("options", len(poll.Options)))
	u.publisher.NewQuestion(poll)
	return poll, nil
}

func (u *Usecase) buildPoll(in CreateInput) (*model.Poll, error) {
	question := strings.TrimSpace(in.Question)
	createdBy := strings.TrimSpace(in.CreatedBy)
	if question == "" || createdBy == "" {
		return nil, ErrValidation
	}

	options := make([]model.Option, 0, len(in.Options))
	for _, text := range in.Options {
		if text = strings.TrimSpace(text); text != "" {
			options = append(options, model.Option{Text: text})
		}
	}
	if len(options) < minOptions {
		return nil, ErrValidation
	}

	now := u.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, ErrValidation
	}

	return &model.Poll{
		ID:        model.NewPollID(),
		Question:  question,
		Options:   options,
		CreatedBy: createdBy,
		ExpiresAt: in.ExpiresAt,
		Responses: []model.Response{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Vote stores the vote durably, then records it in the tracker and fans the
// new poll state out. The whole sequence holds the poll's lock so updates
// reach each room in acceptance order.
func (u *Usecase) Vote(ctx context.Context, pollID model.PollID, studentID string, optionIndex int) (*model.Poll, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, ErrValidation
	}

	unlock := u.votes.Lock(pollID)
	defer unlock()

	poll, err := u.get(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.HasVoted(studentID) {
		return nil, ErrAlreadyVoted
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, ErrIndexOutOfRange
	}

	open, err := u.acceptsVotes(ctx, poll)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrPollClosed
	}

	updated, err := u.repo.AppendVote(ctx, pollID, studentID, optionIndex)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyVoted):
			return nil, ErrAlreadyVoted
		case errors.Is(err, ErrIndexOutOfRange):
			return nil, ErrIndexOutOfRange
		case errors.Is(err, ErrResourceNotFound):
			return nil, ErrResourceNotFound
		}
		return nil, errors.Join(ErrInternal, err)
	}

	if err := u.settle(updated, studentID); err != nil {
		u.logger.Warn("vote already tracked", slog.String("poll_id", pollID), slog.String("student_id", studentID))
	}
	return updated, nil
}

// ConfirmVote handles a client's realtime notice that it voted. The client's
// copy of the poll is never trusted: the vote is only tracked when the store
// holds a response for studentID. Returns membership.ErrDuplicateVote when
// the vote was already tracked.
func (u *Usecase) ConfirmVote(ctx context.Context, pollID model.PollID, studentID string) error {
	unlock := u.votes.Lock(pollID)
	defer unlock()

	poll, err := u.get(ctx, pollID)
	if err != nil {
		return err
	}
	if !poll.HasVoted(studentID) {
		return ErrVoteNotStored
	}
	return u.settle(poll, studentID)
}

func (u *Usecase) settle(poll *model.Poll, studentID string) error {
	out, err := u.tracker.RecordVote(poll.ID, studentID)
	if err != nil {
		return err
	}

	u.publisher.PollUpdated(poll)
	if out.Completed {
		u.logger.Info("all students voted", slog.String("poll_id", poll.ID))
		u.publisher.PollEnded(poll.ID)
	}
	return nil
}

func (u *Usecase) acceptsVotes(ctx context.Context, poll *model.Poll) (bool, error) {
	latest, err := u.repo.Latest(ctx)
	if err != nil {
		return false, errors.Join(ErrInternal, err)
	}
	isLatest := latest != nil && latest.ID == poll.ID
	return lifecycle.AcceptsVotes(poll, isLatest, u.tracker.Record(poll.ID), u.now()), nil
}

func (u *Usecase) Get(ctx context.Context, pollID model.PollID) (*model.Poll, error) {
	return u.get(ctx, pollID)
}

func (u *Usecase) get(ctx context.Context, pollID model.PollID) (*model.Poll, error) {
	poll, err := u.repo.ByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errors.Join(ErrInternal, err)
	}
	return poll, nil
}

// Latest returns the active poll, nil when none exists.
func (u *Usecase) Latest(ctx context.Context) (*model.Poll, error) {
	poll, err := u.repo.Latest(ctx)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	return poll, nil
}

func (u *Usecase) List(ctx context.Context) ([]*model.Poll, error) {
	return u.list(ctx, model.NewestFirst)
}

func (u *Usecase) History(ctx context.Context) ([]*model.Poll, error) {
	return u.list(ctx, model.OldestFirst)
}

func (u *Usecase) list(ctx context.Context, order model.Order) ([]*model.Poll, error) {
	polls, err := u.repo.List(ctx, order)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	if polls == nil {
		polls = []*model.Poll{}
	}
	return polls, nil
}

func (u *Usecase) Status(ctx context.Context) (model.Status, error) {
	latest, err := u.Latest(ctx)
	if err != nil {
		return model.Status{}, err
	}
	if latest == nil {
		return lifecycle.Status(nil, membership.Record{}, u.now()), nil
	}
	return lifecycle.Status(latest, u.tracker.Record(latest.ID), u.now()), nil
}
