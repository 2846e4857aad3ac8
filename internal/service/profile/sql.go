package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type profileModel struct {
	bun.BaseModel `bun:"table:advisor_profiles,alias:p"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username,notnull,unique"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash []byte    `bun:"password_hash"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	AdvisorID    *string   `bun:"advisor_id,unique"`
	FirmName     string    `bun:"firm_name,notnull"`
	Role         string    `bun:"role,notnull"`
	Bio          string    `bun:"bio,notnull"`
	AvatarURL    string    `bun:"avatar_url,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (m *profileModel) ToDomain() *Record {
	return &Record{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		AdvisorID: m.AdvisorID,
		FirmName:  m.FirmName,
		Role:      m.Role,
		Bio:       m.Bio,
		AvatarURL: m.AvatarURL,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func (m *profileModel) apply(d Delta) {
	if d.FirstName != nil {
		m.FirstName = *d.FirstName
	}
	if d.LastName != nil {
		m.LastName = *d.LastName
	}
	if d.Bio != nil {
		m.Bio = *d.Bio
	}
	if d.AvatarURL != nil {
		m.AvatarURL = *d.AvatarURL
	}
}

// SQLStore persists records in SQLite through bun. Uniqueness is enforced by
// the schema and surfaced as ErrConstraintViolation.
type SQLStore struct {
	DB *bun.DB
}

// NewSQLStore wraps db. Call CreateSchema once before use.
func NewSQLStore(db *bun.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// CreateSchema creates the profile table when it does not exist yet.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	_, err := s.DB.NewCreateTable().
		Model((*profileModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create profile table: %w", err)
	}
	return nil
}

// Create inserts a new profile row; unique columns reject duplicates.
func (s *SQLStore) Create(ctx context.Context, n NewRecord) (*Record, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	createdAt := now()
	m := &profileModel{
		ID:           uuid.NewString(),
		Username:     n.Username,
		Email:        n.Email,
		PasswordHash: n.PasswordHash,
		FirstName:    n.FirstName,
		LastName:     n.LastName,
		AdvisorID:    n.AdvisorID,
		FirmName:     n.FirmName,
		Role:         n.Role,
		Bio:          n.Bio,
		AvatarURL:    n.AvatarURL,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if _, err := s.DB.NewInsert().Model(m).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert profile: %w", mapSQLError(err))
	}
	return m.ToDomain(), nil
}

// Get loads the profile row for id.
func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	m, err := selectProfile(ctx, s.DB, "id", id)
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Update writes only the delta columns in a transaction and re-reads the row.
func (s *SQLStore) Update(ctx context.Context, id string, d Delta) (*Record, error) {
	columns := d.Fields()
	if len(columns) > 0 {
		err := s.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			m, err := selectProfile(ctx, tx, "id", id)
			if err != nil {
				return err
			}
			m.apply(d)
			m.UpdatedAt = now()

			_, err = tx.NewUpdate().
				Model(m).
				Column(append(columns, "updated_at")...).
				WherePK().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update profile: %w", mapSQLError(err))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Credentials looks up the login id and password hash for username.
func (s *SQLStore) Credentials(ctx context.Context, username string) (Credentials, error) {
	m, err := selectProfile(ctx, s.DB, "username", username)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{ID: m.ID, Username: m.Username, PasswordHash: m.PasswordHash}, nil
}

func selectProfile(ctx context.Context, db bun.IDB, column, value string) (*profileModel, error) {
	m := new(profileModel)
	err := db.NewSelect().
		Model(m).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select profile by %s: %w", column, err)
	}
	return m, nil
}

// mapSQLError converts SQLite unique and primary key violations to ErrConstraintViolation.
func mapSQLError(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", sqliteErr.Error(), ErrConstraintViolation)
		}
	}
	return err
}

var _ Repository = (*SQLStore)(nil)
