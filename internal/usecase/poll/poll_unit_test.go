package usecase_poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/humanbelnik/livepoll/internal/model"
	"github.com/humanbelnik/livepoll/internal/service/membership"
	publisher_mocks "github.com/humanbelnik/livepoll/internal/usecase/poll/mocks/poll/publisher"
	repo_mocks "github.com/humanbelnik/livepoll/internal/usecase/poll/mocks/poll/repository"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type UsecasePollUnitSuite struct {
	suite.Suite
}

type resources struct {
	usecase   *Usecase
	repo      *repo_mocks.PollRepository
	publisher *publisher_mocks.Publisher
	tracker   *membership.Tracker
	ctx       context.Context
}

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func initResources(t provider.T) *resources {
	repo := repo_mocks.NewPollRepository(t)
	publisher := publisher_mocks.NewPublisher(t)
	tracker := membership.New()

	return &resources{
		usecase: New(repo, tracker,
			WithPublisher(publisher),
			WithClock(func() time.Time { return fixedNow }),
		),
		repo:      repo,
		publisher: publisher,
		tracker:   tracker,
		ctx:       context.Background(),
	}
}

/*
Object Mother helpers.
*/
func validInput() CreateInput {
	exp := fixedNow.Add(time.Minute)
	return CreateInput{
		Question:  "Which planet is largest?",
		Options:   []string{"Jupiter", "Mars"},
		CreatedBy: "teacher",
		ExpiresAt: &exp,
	}
}

func openPoll() *model.Poll {
	exp := fixedNow.Add(time.Minute)
	return &model.Poll{
		ID:        "poll-1",
		Question:  "Which planet is largest?",
		Options:   []model.Option{{Text: "Jupiter"}, {Text: "Mars"}},
		CreatedBy: "teacher",
		ExpiresAt: &exp,
		Responses: []model.Response{},
		CreatedAt: fixedNow.Add(-time.Second),
	}
}

func withVote(p *model.Poll, studentID string, idx int) *model.Poll {
	c := p.Clone()
	c.Options[idx].Votes++
	c.Responses = append(c.Responses, model.Response{StudentID: studentID, SelectedOptionIndex: idx})
	return c
}

func (s *UsecasePollUnitSuite) TestCreate(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		input         func() CreateInput
		setupMocks    func(r *resources)
		expectedError error
	}{
		{
			name:  "Should create first poll and announce it",
			input: validInput,
			setupMocks: func(r *resources) {
				r.repo.On("Latest", r.ctx).Return(nil, nil).Once()
				r.repo.On("Create", r.ctx, mock.AnythingOfType("*model.Poll")).Return(nil).Once()
				r.publisher.On("NewQuestion", mock.AnythingOfType("*model.Poll")).Once()
			},
		},
		{
			name: "Should reject fewer than two non-empty options",
			input: func() CreateInput {
				in := validInput()
				in.Options = []string{"Jupiter", "  "}
				return in
			},
			setupMocks:    func(r *resources) {},
			expectedError: ErrValidation,
		},
		{
			name: "Should reject missing creator",
			input: func() CreateInput {
				in := validInput()
				in.CreatedBy = ""
				return in
			},
			setupMocks:    func(r *resources) {},
			expectedError: ErrValidation,
		},
		{
			name: "Should reject expiry in the past",
			input: func() CreateInput {
				in := validInput()
				past := fixedNow.Add(-time.Second)
				in.ExpiresAt = &past
				return in
			},
			setupMocks:    func(r *resources) {},
			expectedError: ErrValidation,
		},
		{
			name:  "Should refuse while latest poll is open",
			input: validInput,
			setupMocks: func(r *resources) {
				r.repo.On("Latest", r.ctx).Return(openPoll(), nil).Once()
				r.tracker.Join("c1", "poll-1")
			},
			expectedError: ErrPollInProgress,
		},
		{
			name:  "Should wrap storage failure",
			input: validInput,
			setupMocks: func(r *resources) {
				r.repo.On("Latest", r.ctx).Return(nil, nil).Once()
				r.repo.On("Create", r.ctx, mock.AnythingOfType("*model.Poll")).Return(errors.New("db down")).Once()
			},
			expectedError: ErrInternal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			tc.setupMocks(r)

			poll, err := r.usecase.Create(r.ctx, tc.input())

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, poll)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, poll.ID)
				assert.Len(t, poll.Options, 2)
				assert.Equal(t, fixedNow, poll.CreatedAt)
			}
		})
	}

	t.Run("Should allow new poll once everyone voted", func(t provider.T) {
		r := initResources(t)
		latest := openPoll()
		r.tracker.Join("c1", latest.ID)
		_, _ = r.tracker.RecordVote(latest.ID, "alice")

		r.repo.On("Latest", r.ctx).Return(latest, nil).Once()
		r.repo.On("Create", r.ctx, mock.AnythingOfType("*model.Poll")).Return(nil).Once()
		r.publisher.On("NewQuestion", mock.AnythingOfType("*model.Poll")).Once()

		_, err := r.usecase.Create(r.ctx, validInput())

		assert.NoError(t, err)
	})
}

func (s *UsecasePollUnitSuite) TestVote(t provider.T) {
	t.Parallel()

	t.Run("Should store vote, publish update and end poll when complete", func(t provider.T) {
		r := initResources(t)
		poll := openPoll()
		r.tracker.Join("c1", poll.ID)
		r.tracker.Join("c2", poll.ID)

		first := withVote(poll, "alice", 0)
		second := withVote(first, "bob", 1)

		r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Once()
		r.repo.On("ByID", r.ctx, poll.ID).Return(first, nil).Once()
		r.repo.On("Latest", r.ctx).Return(poll, nil).Twice()
		r.repo.On("AppendVote", r.ctx, poll.ID, "alice", 0).Return(first, nil).Once()
		r.repo.On("AppendVote", r.ctx, poll.ID, "bob", 1).Return(second, nil).Once()

		var order []string
		r.publisher.On("PollUpdated", first).Run(func(mock.Arguments) { order = append(order, "updated:alice") }).Once()
		r.publisher.On("PollUpdated", second).Run(func(mock.Arguments) { order = append(order, "updated:bob") }).Once()
		r.publisher.On("PollEnded", poll.ID).Run(func(mock.Arguments) { order = append(order, "ended") }).Once()

		got, err := r.usecase.Vote(r.ctx, poll.ID, "alice", 0)
		assert.NoError(t, err)
		assert.Equal(t, 1, got.Options[0].Votes)

		got, err = r.usecase.Vote(r.ctx, poll.ID, "bob", 1)
		assert.NoError(t, err)
		assert.Equal(t, 1, got.Options[0].Votes)
		assert.Equal(t, 1, got.Options[1].Votes)

		assert.Equal(t, []string{"updated:alice", "updated:bob", "ended"}, order)
		assert.Equal(t, 2, r.tracker.CountVoted(poll.ID))
	})

	testCases := []struct {
		name          string
		studentID     string
		index         int
		setupMocks    func(r *resources, poll *model.Poll)
		expectedError error
	}{
		{
			name:      "Should reject unknown poll",
			studentID: "alice",
			setupMocks: func(r *resources, poll *model.Poll) {
				r.repo.On("ByID", r.ctx, poll.ID).Return(nil, ErrResourceNotFound).Once()
			},
			expectedError: ErrResourceNotFound,
		},
		{
			name:      "Should reject second vote from same student",
			studentID: "alice",
			setupMocks: func(r *resources, poll *model.Poll) {
				r.repo.On("ByID", r.ctx, poll.ID).Return(withVote(poll, "alice", 0), nil).Once()
			},
			expectedError: ErrAlreadyVoted,
		},
		{
			name:      "Should reject option out of range",
			studentID: "alice",
			index:     5,
			setupMocks: func(r *resources, poll *model.Poll) {
				r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Once()
			},
			expectedError: ErrIndexOutOfRange,
		},
		{
			name:      "Should reject vote on superseded poll",
			studentID: "alice",
			setupMocks: func(r *resources, poll *model.Poll) {
				newer := openPoll()
				newer.ID = "poll-2"
				r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Once()
				r.repo.On("Latest", r.ctx).Return(newer, nil).Once()
			},
			expectedError: ErrPollClosed,
		},
		{
			name:      "Should surface racing duplicate from store",
			studentID: "alice",
			setupMocks: func(r *resources, poll *model.Poll) {
				r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Once()
				r.repo.On("Latest", r.ctx).Return(poll, nil).Once()
				r.repo.On("AppendVote", r.ctx, poll.ID, "alice", 0).Return(nil, ErrAlreadyVoted).Once()
			},
			expectedError: ErrAlreadyVoted,
		},
		{
			name:      "Should keep tracker untouched on failed write",
			studentID: "alice",
			setupMocks: func(r *resources, poll *model.Poll) {
				r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Once()
				r.repo.On("Latest", r.ctx).Return(poll, nil).Once()
				r.repo.On("AppendVote", r.ctx, poll.ID, "alice", 0).Return(nil, errors.New("conn reset")).Once()
			},
			expectedError: ErrInternal,
		},
		{
			name:          "Should reject blank student",
			studentID:     " ",
			setupMocks:    func(r *resources, poll *model.Poll) {},
			expectedError: ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			poll := openPoll()
			tc.setupMocks(r, poll)

			got, err := r.usecase.Vote(r.ctx, poll.ID, tc.studentID, tc.index)

			assert.ErrorIs(t, err, tc.expectedError)
			assert.Nil(t, got)
			assert.Equal(t, 0, r.tracker.CountVoted(poll.ID))
		})
	}

	t.Run("Should reject vote after expiry", func(t provider.T) {
		r := initResources(t)
		poll := openPoll()
		past := fixedNow.Add(-time.Second)
		poll.ExpiresAt = &past

		r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Once()
		r.repo.On("Latest", r.ctx).Return(poll, nil).Once()

		_, err := r.usecase.Vote(r.ctx, poll.ID, "alice", 0)

		assert.ErrorIs(t, err, ErrPollClosed)
	})
}

func (s *UsecasePollUnitSuite) TestConfirmVote(t provider.T) {
	t.Parallel()

	t.Run("Should track stored vote once", func(t provider.T) {
		r := initResources(t)
		poll := withVote(openPoll(), "alice", 0)

		r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Twice()
		r.publisher.On("PollUpdated", poll).Once()

		assert.NoError(t, r.usecase.ConfirmVote(r.ctx, poll.ID, "alice"))
		assert.ErrorIs(t, r.usecase.ConfirmVote(r.ctx, poll.ID, "alice"), membership.ErrDuplicateVote)
	})

	t.Run("Should ignore vote missing from store", func(t provider.T) {
		r := initResources(t)
		poll := openPoll()

		r.repo.On("ByID", r.ctx, poll.ID).Return(poll, nil).Once()

		assert.ErrorIs(t, r.usecase.ConfirmVote(r.ctx, poll.ID, "mallory"), ErrVoteNotStored)
		assert.False(t, r.tracker.HasVoted(poll.ID, "mallory"))
	})
}

func (s *UsecasePollUnitSuite) TestStatus(t provider.T) {
	t.Parallel()

	t.Run("Should report inactive without polls", func(t provider.T) {
		r := initResources(t)
		r.repo.On("Latest", r.ctx).Return(nil, nil).Once()

		st, err := r.usecase.Status(r.ctx)

		assert.NoError(t, err)
		assert.False(t, st.Active)
	})

	t.Run("Should report expired poll with no votes", func(t provider.T) {
		r := initResources(t)
		poll := openPoll()
		exp := fixedNow.Add(-time.Second)
		poll.ExpiresAt = &exp
		r.tracker.Join("c1", poll.ID)
		r.repo.On("Latest", r.ctx).Return(poll, nil).Once()

		st, err := r.usecase.Status(r.ctx)

		assert.NoError(t, err)
		assert.True(t, st.Active)
		assert.True(t, st.Expired)
		assert.False(t, st.AllVoted)
		assert.Equal(t, 1, st.TotalStudents)
	})

	t.Run("Should wrap storage failure", func(t provider.T) {
		r := initResources(t)
		r.repo.On("Latest", r.ctx).Return(nil, errors.New("timeout")).Once()

		_, err := r.usecase.Status(r.ctx)

		assert.ErrorIs(t, err, ErrInternal)
	})
}

func (s *UsecasePollUnitSuite) TestLists(t provider.T) {
	t.Parallel()

	t.Run("Should list newest first and history oldest first", func(t provider.T) {
		r := initResources(t)
		a, b := openPoll(), openPoll()
		b.ID = "poll-2"
		r.repo.On("List", r.ctx, model.NewestFirst).Return([]*model.Poll{b, a}, nil).Once()
		r.repo.On("List", r.ctx, model.OldestFirst).Return(nil, nil).Once()

		list, err := r.usecase.List(r.ctx)
		assert.NoError(t, err)
		assert.Equal(t, []*model.Poll{b, a}, list)

		history, err := r.usecase.History(r.ctx)
		assert.NoError(t, err)
		assert.NotNil(t, history)
		assert.Empty(t, history)
	})
}

func TestUsecasePollUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecasePollUnitSuite))
}
