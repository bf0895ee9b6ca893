package infra_postgres_poll

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/livepoll/internal/model"
	usecase_poll "github.com/humanbelnik/livepoll/internal/usecase/poll"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type pollDTO struct {
	ID        string       `db:"id"`
	Question  string       `db:"question"`
	CreatedBy string       `db:"created_by"`
	ExpiresAt sql.NullTime `db:"expires_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

type optionDTO struct {
	PollID string `db:"poll_id"`
	Idx    int    `db:"idx"`
	Text   string `db:"text"`
	Votes  int    `db:"votes"`
}

type responseDTO struct {
	PollID    string `db:"poll_id"`
	StudentID string `db:"student_id"`
	OptionIdx int    `db:"option_idx"`
}

func (p pollDTO) toModel() *model.Poll {
	poll := &model.Poll{
		ID:        p.ID,
		Question:  p.Question,
		CreatedBy: p.CreatedBy,
		Options:   []model.Option{},
		Responses: []model.Response{},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.ExpiresAt.Valid {
		t := p.ExpiresAt.Time
		poll.ExpiresAt = &t
	}
	return poll
}

func (d *Driver) Create(ctx context.Context, poll *model.Poll) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	dto := pollDTO{
		ID:        poll.ID,
		Question:  poll.Question,
		CreatedBy: poll.CreatedBy,
		CreatedAt: poll.CreatedAt,
		UpdatedAt: poll.UpdatedAt,
	}
	if poll.ExpiresAt != nil {
		dto.ExpiresAt = sql.NullTime{Time: *poll.ExpiresAt, Valid: true}
	}

	insertPollQuery := `
		INSERT INTO polls (id, question, created_by, expires_at, created_at, updated_at)
		VALUES (:id, :question, :created_by, :expires_at, :created_at, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, insertPollQuery, dto); err != nil {
		return err
	}

	insertOptionQuery := `
		INSERT INTO poll_options (poll_id, idx, text, votes)
		VALUES ($1, $2, $3, 0)
	`
	for i, opt := range poll.Options {
		if _, err := tx.ExecContext(ctx, insertOptionQuery, poll.ID, i, opt.Text); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *Driver) ByID(ctx context.Context, id model.PollID) (*model.Poll, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, usecase_poll.ErrResourceNotFound
	}
	return d.load(ctx, d.db, id)
}

func (d *Driver) Latest(ctx context.Context) (*model.Poll, error) {
	var id string

	query := `SELECT id FROM polls ORDER BY created_at DESC LIMIT 1`

	err := d.db.GetContext(ctx, &id, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return d.load(ctx, d.db, id)
}

// AppendVote locks the poll row, inserts the response if the student has none
// and bumps the chosen option, all in one transaction.
func (d *Driver) AppendVote(ctx context.Context, id model.PollID, voterID string, optionIndex int) (*model.Poll, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, usecase_poll.ErrResourceNotFound
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	lockQuery := `SELECT id FROM polls WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &locked, lockQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, usecase_poll.ErrResourceNotFound
		}
		return nil, err
	}

	insertResponseQuery := `
		INSERT INTO poll_responses (poll_id, student_id, option_idx)
		VALUES ($1, $2, $3)
		ON CONFLICT (poll_id, student_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, insertResponseQuery, id, voterID, optionIndex)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, usecase_poll.ErrAlreadyVoted
	}

	bumpQuery := `
		UPDATE poll_options
		SET votes = votes + 1
		WHERE poll_id = $1 AND idx = $2
	`
	res, err = tx.ExecContext(ctx, bumpQuery, id, optionIndex)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, usecase_poll.ErrIndexOutOfRange
	}

	touchQuery := `UPDATE polls SET updated_at = now() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, touchQuery, id); err != nil {
		return nil, err
	}

	poll, err := d.load(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return poll, tx.Commit()
}

func (d *Driver) List(ctx context.Context, order model.Order) ([]*model.Poll, error) {
	query := `
		SELECT id, question, created_by, expires_at, created_at, updated_at
		FROM polls
		ORDER BY created_at ASC
	`
	if order == model.NewestFirst {
		query = `
		SELECT id, question, created_by, expires_at, created_at, updated_at
		FROM polls
		ORDER BY created_at DESC
	`
	}

	var rows []pollDTO
	if err := d.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*model.Poll{}, nil
	}

	ids := make([]string, len(rows))
	polls := make([]*model.Poll, len(rows))
	byID := make(map[string]*model.Poll, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		polls[i] = row.toModel()
		byID[row.ID] = polls[i]
	}

	var options []optionDTO
	optionsQuery := `
		SELECT poll_id, idx, text, votes
		FROM poll_options
		WHERE poll_id = ANY($1)
		ORDER BY poll_id, idx
	`
	if err := d.db.SelectContext(ctx, &options, optionsQuery, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, o := range options {
		if p, ok := byID[o.PollID]; ok {
			p.Options = append(p.Options, model.Option{Text: o.Text, Votes: o.Votes})
		}
	}

	var responses []responseDTO
	responsesQuery := `
		SELECT poll_id, student_id, option_idx
		FROM poll_responses
		WHERE poll_id = ANY($1)
		ORDER BY poll_id, seq
	`
	if err := d.db.SelectContext(ctx, &responses, responsesQuery, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, r := range responses {
		if p, ok := byID[r.PollID]; ok {
			p.Responses = append(p.Responses, model.Response{StudentID: r.StudentID, SelectedOptionIndex: r.OptionIdx})
		}
	}

	return polls, nil
}

func (d *Driver) load(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Poll, error) {
	var row pollDTO
	pollQuery := `
		SELECT id, question, created_by, expires_at, created_at, updated_at
		FROM polls
		WHERE id = $1
	`
	if err := sqlx.GetContext(ctx, q, &row, pollQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, usecase_poll.ErrResourceNotFound
		}
		return nil, err
	}
	poll := row.toModel()

	var options []optionDTO
	optionsQuery := `
		SELECT poll_id, idx, text, votes
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY idx
	`
	if err := sqlx.SelectContext(ctx, q, &options, optionsQuery, id); err != nil {
		return nil, err
	}
	for _, o := range options {
		poll.Options = append(poll.Options, model.Option{Text: o.Text, Votes: o.Votes})
	}

	var responses []responseDTO
	responsesQuery := `
		SELECT poll_id, student_id, option_idx
		FROM poll_responses
		WHERE poll_id = $1
		ORDER BY seq
	`
	if err := sqlx.SelectContext(ctx, q, &responses, responsesQuery, id); err != nil {
		return nil, err
	}
	for _, r := range responses {
		poll.Responses = append(poll.Responses, model.Response{StudentID: r.StudentID, SelectedOptionIndex: r.OptionIdx})
	}

	return poll, nil
}
