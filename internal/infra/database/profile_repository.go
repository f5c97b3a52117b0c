package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

const profileColumns = `id, email, name, role, password_hash, created_at, updated_at`

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*entity.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = LOWER($1)`,
		strings.TrimSpace(email),
	)
	return scanProfile(row)
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *entity.Profile) error {
	query := `
		INSERT INTO profiles (id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			password_hash = CASE WHEN EXCLUDED.password_hash = '' THEN profiles.password_hash ELSE EXCLUDED.password_hash END,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.DB.ExecContext(ctx, query,
		p.ID,
		strings.ToLower(strings.TrimSpace(p.Email)),
		p.Name,
		string(p.Role),
		p.PasswordHash,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ProfileRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE role = $1 ORDER BY name, email`,
		string(role),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*entity.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func scanProfile(row rowScanner) (*entity.Profile, error) {
	var p entity.Profile
	var role string

	err := row.Scan(&p.ID, &p.Email, &p.Name, &role, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Role = entity.Role(role)
	return &p, nil
}
