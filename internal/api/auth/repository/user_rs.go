package authRepository

import (
	"PanicButton/internal/api/auth"
	"PanicButton/internal/entity"
	contextPkg "PanicButton/pkg/context"
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type UserDB struct {
	ID                sql.NullString `db:"id"`
	Email             sql.NullString `db:"email"`
	Password          sql.NullString `db:"password"`
	HomeLocation      sql.NullString `db:"home_location"`
	WorkLocation      sql.NullString `db:"work_location"`
	PreferredLanguage sql.NullString `db:"preferred_language"`
	CreatedAt         sql.NullTime   `db:"created_at"`
	UpdatedAt         sql.NullTime   `db:"updated_at"`
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *userRepository) CreateUser(c context.Context, user entity.User) error {
	requestID := contextPkg.GetRequestID(c)
	now := r.now()

	language := user.PreferredLanguage
	if language == "" {
		language = entity.DefaultLanguage
	}

	argsKV := map[string]interface{}{
		"id":                 user.ID,
		"email":              user.Email,
		"password":           user.Password,
		"home_location":      nullable(user.HomeLocation),
		"work_location":      nullable(user.WorkLocation),
		"preferred_language": language,
		"created_at":         now,
		"updated_at":         now,
	}

	query, args, err := sqlx.Named(queryCreateUser, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateUser")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(c, query, args...); err != nil {
		if isUniqueViolation(err) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Email already exists")
			return auth.ErrEmailAlreadyExists
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating user")
		return err
	}

	return nil
}

func (r *userRepository) GetByID(c context.Context, id string) (entity.User, error) {
	return r.getOne(c, queryGetById, map[string]interface{}{"id": id}, "GetByID")
}

func (r *userRepository) GetByEmail(c context.Context, email string) (entity.User, error) {
	return r.getOne(c, queryGetByEmail, map[string]interface{}{"email": email}, "GetByEmail")
}

func (r *userRepository) getOne(c context.Context, q string, argsKV map[string]interface{}, op string) (entity.User, error) {
	requestID := contextPkg.GetRequestID(c)
	var user UserDB

	query, args, err := sqlx.Named(q, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return entity.User{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
			}).Warn(op + " no rows found")
			return entity.User{}, auth.ErrUserNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return entity.User{}, err
	}

	return r.makeUser(user), nil
}

func (r *userRepository) UpdateLocations(c context.Context, id, homeLocation, workLocation string) error {
	return r.update(c, queryUpdateLocations, map[string]interface{}{
		"id":            id,
		"home_location": nullable(homeLocation),
		"work_location": nullable(workLocation),
		"updated_at":    r.now(),
	}, "UpdateLocations")
}

func (r *userRepository) UpdateLanguage(c context.Context, id, language string) error {
	return r.update(c, queryUpdateLanguage, map[string]interface{}{
		"id":                 id,
		"preferred_language": language,
		"updated_at":         r.now(),
	}, "UpdateLanguage")
}

func (r *userRepository) update(c context.Context, q string, argsKV map[string]interface{}, op string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(q, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " named query preparation err")
		return err
	}

	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error(op + " execution err")
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
		}).Warn(op + " no rows found")
		return auth.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) makeUser(user UserDB) entity.User {
	var createdAt, updatedAt time.Time

	if user.CreatedAt.Valid {
		createdAt = user.CreatedAt.Time
	}

	if user.UpdatedAt.Valid {
		updatedAt = user.UpdatedAt.Time
	}

	language := user.PreferredLanguage.String
	if language == "" {
		language = entity.DefaultLanguage
	}

	return entity.User{
		ID:                user.ID.String,
		Email:             user.Email.String,
		Password:          user.Password.String,
		HomeLocation:      user.HomeLocation.String,
		WorkLocation:      user.WorkLocation.String,
		PreferredLanguage: language,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}
