package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"surf-market/internal/model"
)

const userColumns = `id, name, email, password_hash, image, bio, location, latitude, longitude, role, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. A duplicate email yields model.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users
			(id, name, email, password_hash, image, bio, location, latitude, longitude, role, created_at, updated_at)
		VALUES
			(:id, :name, :email, :password_hash, :image, :bio, :location, :latitude, :longitude, :role, :created_at, :updated_at)
	`, u)
	if isUniqueViolation(err) {
		return model.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("UserRepository.Create: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "GetByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "GetByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByAccount finds the user linked to an OAuth identity.
func (r *UserRepository) GetByAccount(ctx context.Context, provider, providerAccountID string) (*model.User, error) {
	return r.getOne(ctx, "GetByAccount", `
		SELECT u.id, u.name, u.email, u.password_hash, u.image, u.bio, u.location, u.latitude, u.longitude,
		       u.role, u.created_at, u.updated_at
		FROM users u
		JOIN accounts a ON a.user_id = u.id
		WHERE a.provider = $1 AND a.provider_account_id = $2
	`, provider, providerAccountID)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, query, args...)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("UserRepository.%s: %w", op, err)
	}
	return &u, nil
}

// Update saves the profile fields; email, password and role are not touched.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET
			name       = :name,
			image      = :image,
			bio        = :bio,
			location   = :location,
			latitude   = :latitude,
			longitude  = :longitude,
			updated_at = :updated_at
		WHERE id = :id
	`, u)
	if err != nil {
		return fmt.Errorf("UserRepository.Update: %w", err)
	}
	return expectOne(res, model.ErrUserNotFound)
}

func (r *UserRepository) LinkAccount(ctx context.Context, a *model.Account) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO accounts (id, user_id, provider, provider_account_id, created_at)
		VALUES (:id, :user_id, :provider, :provider_account_id, :created_at)
		ON CONFLICT (provider, provider_account_id) DO NOTHING
	`, a)
	if err != nil {
		return fmt.Errorf("UserRepository.LinkAccount: %w", err)
	}
	return nil
}

// Delete removes the user with everything they own in one transaction and
// returns the image ids that belonged to their listings so blobs can be purged.
func (r *UserRepository) Delete(ctx context.Context, id string) (images []string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UserRepository.BeginTxx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var perListing []pq.StringArray
	if err = tx.SelectContext(ctx, &perListing, `SELECT images FROM listings WHERE seller_id = $1`, id); err != nil {
		return nil, fmt.Errorf("UserRepository.Delete images: %w", err)
	}
	for _, imgs := range perListing {
		images = append(images, imgs...)
	}

	steps := []struct{ name, query string }{
		{"favorites", `DELETE FROM favorites WHERE user_id = $1 OR listing_id IN (SELECT id FROM listings WHERE seller_id = $1)`},
		{"listings", `DELETE FROM listings WHERE seller_id = $1`},
		{"accounts", `DELETE FROM accounts WHERE user_id = $1`},
	}
	for _, s := range steps {
		if _, err = tx.ExecContext(ctx, s.query, id); err != nil {
			return nil, fmt.Errorf("UserRepository.Delete %s: %w", s.name, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("UserRepository.Delete user: %w", err)
	}
	if err = expectOne(res, model.ErrUserNotFound); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("UserRepository commit: %w", err)
	}
	return images, nil
}
