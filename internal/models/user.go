package models

import (
	"fmt"
	"time"
)

// ProviderTokens holds the OAuth token pair for one provider.
type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
}

// User binds a Spotify identity and an optional Fitbit identity to one
// account, carrying the tokens the upstream adapters authenticate with.
//
// A user row is created the first time either provider's OAuth callback
// completes; the other provider's fields stay empty until that provider
// is linked.
type User struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time

	spotifyID   string
	spotify     ProviderTokens
	displayName string
	email       string

	fitbitID    string
	fitbit      ProviderTokens
	fitbitName  string
	fitbitEmail string
	fitbitData  string // raw activity summary JSON, refreshed on each sync
}

// NewUser creates a User with the given sequence number and timestamps set to now.
func NewUser(sequence int) *User {
	now := time.Now()
	return &User{
		sequence:  sequence,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)              { u.id = id }
func (u *User) SetCreatedAt(t time.Time)     { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)     { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)    { u.deletedAt = t }

func (u *User) SpotifyID() string             { return u.spotifyID }
func (u *User) SpotifyTokens() ProviderTokens { return u.spotify }
func (u *User) DisplayName() string           { return u.displayName }
func (u *User) Email() string                 { return u.email }

func (u *User) FitbitID() string             { return u.fitbitID }
func (u *User) FitbitTokens() ProviderTokens { return u.fitbit }
func (u *User) FitbitName() string           { return u.fitbitName }
func (u *User) FitbitEmail() string          { return u.fitbitEmail }
func (u *User) FitbitData() string           { return u.fitbitData }

// LinkSpotify records the Spotify identity, profile, and token pair.
func (u *User) LinkSpotify(spotifyID string, tokens ProviderTokens, displayName, email string) {
	u.spotifyID = spotifyID
	u.spotify = tokens
	u.displayName = displayName
	u.email = email
}

// LinkFitbit records the Fitbit identity, profile, and token pair.
func (u *User) LinkFitbit(fitbitID string, tokens ProviderTokens, name, email string) {
	u.fitbitID = fitbitID
	u.fitbit = tokens
	u.fitbitName = name
	u.fitbitEmail = email
}

// SetSpotifyAccessToken replaces the Spotify access token after a refresh.
func (u *User) SetSpotifyAccessToken(token string) {
	u.spotify.AccessToken = token
}

// SetFitbitData stores the latest raw activity summary JSON.
func (u *User) SetFitbitData(data string) {
	u.fitbitData = data
}

// HasSpotify reports whether this user has a linked Spotify session.
func (u *User) HasSpotify() bool {
	return u.spotifyID != "" && u.spotify.AccessToken != ""
}

// HasFitbit reports whether this user has a linked Fitbit session.
func (u *User) HasFitbit() bool {
	return u.fitbitID != "" && u.fitbit.AccessToken != ""
}

// Validate checks that the user is linked to at least one provider.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("user id is required")
	}
	if u.spotifyID == "" && u.fitbitID == "" {
		return fmt.Errorf("user must be linked to at least one provider")
	}
	return nil
}
