package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rama26012004/moodtunes/internal/models"
	"github.com/rama26012004/moodtunes/internal/shared"
)

// UserRepository implements CRUD for users against sqlite.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user, assigning the id and sequence number.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	seq, err := NextSequence(r.db, "users")
	if err != nil {
		return nil, fmt.Errorf("failed to get next sequence: %w", err)
	}

	u := *user
	u.SetID(shared.GenerateID())
	now := time.Now()
	u.SetCreatedAt(now)
	u.SetUpdatedAt(now)

	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	spotify := u.SpotifyTokens()
	fitbit := u.FitbitTokens()
	query := `INSERT INTO users (
		id, sequence, spotify_id, spotify_access_token, spotify_refresh_token,
		display_name, email, fitbit_id, fitbit_access_token, fitbit_refresh_token,
		fitbit_name, fitbit_email, fitbit_data, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		u.ID(), seq,
		nullable(u.SpotifyID()), spotify.AccessToken, spotify.RefreshToken,
		u.DisplayName(), u.Email(),
		nullable(u.FitbitID()), fitbit.AccessToken, fitbit.RefreshToken,
		u.FitbitName(), u.FitbitEmail(), u.FitbitData(),
		u.CreatedAt(), u.UpdatedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created := models.NewUser(seq)
	*created = u
	return created, nil
}

// Get retrieves a user by id, excluding soft-deleted rows.
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetBySpotifyID retrieves a user by their Spotify account id.
func (r *UserRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*models.User, error) {
	return r.getBy(ctx, "spotify_id", spotifyID)
}

// GetByFitbitID retrieves a user by their Fitbit account id.
func (r *UserRepository) GetByFitbitID(ctx context.Context, fitbitID string) (*models.User, error) {
	return r.getBy(ctx, "fitbit_id", fitbitID)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT id, sequence, spotify_id, spotify_access_token,
		spotify_refresh_token, display_name, email, fitbit_id, fitbit_access_token,
		fitbit_refresh_token, fitbit_name, fitbit_email, fitbit_data,
		created_at, updated_at
		FROM users WHERE %s = ? AND deleted_at IS NULL`, column)

	row := r.db.QueryRowContext(ctx, query, value)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update persists changes to an existing user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user.SetUpdatedAt(time.Now())
	spotify := user.SpotifyTokens()
	fitbit := user.FitbitTokens()

	query := `UPDATE users SET
		spotify_id = ?, spotify_access_token = ?, spotify_refresh_token = ?,
		display_name = ?, email = ?,
		fitbit_id = ?, fitbit_access_token = ?, fitbit_refresh_token = ?,
		fitbit_name = ?, fitbit_email = ?, fitbit_data = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query,
		nullable(user.SpotifyID()), spotify.AccessToken, spotify.RefreshToken,
		user.DisplayName(), user.Email(),
		nullable(user.FitbitID()), fitbit.AccessToken, fitbit.RefreshToken,
		user.FitbitName(), user.FitbitEmail(), user.FitbitData(),
		user.UpdatedAt(), user.ID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return nil, shared.ErrUserNotFound
	}
	return user, nil
}

// Delete soft-deletes a user by setting deleted_at.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// List retrieves users matching the given criteria.
func (r *UserRepository) List(ctx context.Context, criteria map[string]any) ([]*models.User, error) {
	query := `SELECT id, sequence, spotify_id, spotify_access_token,
		spotify_refresh_token, display_name, email, fitbit_id, fitbit_access_token,
		fitbit_refresh_token, fitbit_name, fitbit_email, fitbit_data,
		created_at, updated_at
		FROM users WHERE deleted_at IS NULL`
	args := []any{}

	for key, value := range criteria {
		switch key {
		case "spotify_id", "fitbit_id", "email":
			query += fmt.Sprintf(" AND %s = ?", key)
			args = append(args, value)
		}
	}
	query += " ORDER BY sequence"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpsertSpotify finds the user with the given Spotify id and updates their
// tokens and profile, or creates a new user when none exists. OAuth callbacks
// call this on every completed login.
func (r *UserRepository) UpsertSpotify(ctx context.Context, spotifyID string, tokens models.ProviderTokens, displayName, email string) (*models.User, error) {
	user, err := r.GetBySpotifyID(ctx, spotifyID)
	if err == nil {
		user.LinkSpotify(spotifyID, tokens, displayName, email)
		return r.Update(ctx, user)
	}
	if err != shared.ErrUserNotFound {
		return nil, err
	}

	user = models.NewUser(0)
	user.LinkSpotify(spotifyID, tokens, displayName, email)
	return r.Create(ctx, user)
}

// UpsertFitbit finds the user with the given Fitbit id and updates their
// tokens and profile, or creates a new user when none exists.
func (r *UserRepository) UpsertFitbit(ctx context.Context, fitbitID string, tokens models.ProviderTokens, name, email string) (*models.User, error) {
	user, err := r.GetByFitbitID(ctx, fitbitID)
	if err == nil {
		user.LinkFitbit(fitbitID, tokens, name, email)
		return r.Update(ctx, user)
	}
	if err != shared.ErrUserNotFound {
		return nil, err
	}

	user = models.NewUser(0)
	user.LinkFitbit(fitbitID, tokens, name, email)
	return r.Create(ctx, user)
}

// UpdateSpotifyAccessToken persists a refreshed Spotify access token.
func (r *UserRepository) UpdateSpotifyAccessToken(ctx context.Context, id, accessToken string) error {
	query := `UPDATE users SET spotify_access_token = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, accessToken, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update access token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		id, displayName, email             string
		spotifyID, fitbitID                sql.NullString
		spotifyAccess, spotifyRefresh      string
		fitbitAccess, fitbitRefresh        string
		fitbitName, fitbitEmail, fitbitRaw string
		sequence                           int
		createdAt, updatedAt               time.Time
	)

	err := row.Scan(&id, &sequence, &spotifyID, &spotifyAccess, &spotifyRefresh,
		&displayName, &email, &fitbitID, &fitbitAccess, &fitbitRefresh,
		&fitbitName, &fitbitEmail, &fitbitRaw, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(sequence)
	user.SetID(id)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if spotifyID.Valid {
		user.LinkSpotify(spotifyID.String, models.ProviderTokens{
			AccessToken:  spotifyAccess,
			RefreshToken: spotifyRefresh,
		}, displayName, email)
	}
	if fitbitID.Valid {
		user.LinkFitbit(fitbitID.String, models.ProviderTokens{
			AccessToken:  fitbitAccess,
			RefreshToken: fitbitRefresh,
		}, fitbitName, fitbitEmail)
		user.SetFitbitData(fitbitRaw)
	}
	return user, nil
}

// nullable maps empty strings to NULL so partial unique indexes skip them.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
