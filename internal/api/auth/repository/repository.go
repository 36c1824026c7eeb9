package authRepository

import (
	"PanicButton/internal/entity"
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
		now: time.Now,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
	now func() time.Time
}

type Repository interface {
	NewClient(tx bool) (Client, error)
	Migrate(ctx context.Context) error
}

// Migrate creates the users table. The DDL is shared by postgres and sqlite.
func (r *repository) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, querySchema)
	return err
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Users:    &userRepository{q: db, log: r.log, now: r.now},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type Client struct {
	Users interface {
		CreateUser(ctx context.Context, user entity.User) error
		GetByID(ctx context.Context, id string) (entity.User, error)
		GetByEmail(ctx context.Context, email string) (entity.User, error)
		UpdateLocations(ctx context.Context, id, homeLocation, workLocation string) error
		UpdateLanguage(ctx context.Context, id, language string) error
	}

	Commit   func() error
	Rollback func() error
}

type userRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
	now func() time.Time
}
