package authRepository

const (
	querySchema = `
CREATE TABLE IF NOT EXISTS users (
    id                 TEXT PRIMARY KEY,
    email              TEXT NOT NULL UNIQUE,
    password           TEXT NOT NULL,
    home_location      TEXT,
    work_location      TEXT,
    preferred_language TEXT NOT NULL DEFAULT 'en',
    created_at         TIMESTAMP NOT NULL,
    updated_at         TIMESTAMP NOT NULL
)`

	queryCreateUser = `
INSERT INTO users (id, email, password, home_location, work_location, preferred_language, created_at, updated_at)
VALUES (:id, :email, :password, :home_location, :work_location, :preferred_language, :created_at, :updated_at)`

	queryGetById = `
SELECT id, email, password, home_location, work_location, preferred_language, created_at, updated_at
FROM users
    WHERE id = :id`

	queryGetByEmail = `
SELECT id, email, password, home_location, work_location, preferred_language, created_at, updated_at
FROM users
    WHERE email = :email`

	queryUpdateLocations = `
UPDATE users
SET home_location = :home_location,
    work_location = :work_location,
    updated_at = :updated_at
WHERE id = :id`

	queryUpdateLanguage = `
UPDATE users
SET preferred_language = :preferred_language,
    updated_at = :updated_at
WHERE id = :id`
)
