package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "rentalhub/internal/config"
	"rentalhub/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() (*sql.DB, error) {
	if r.DB != nil {
		return r.DB, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, fmt.Errorf("database not connected")
}

const userColumns = `id, name, email, phone, address, gender, barangay, password_hash, role, status, COALESCE(push_token,''), created_at, updated_at`

func (r UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, email)
}

func (r UserRepository) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	db, err := r.db()
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	err = db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.Gender, &u.Barangay,
		&u.PasswordHash, &u.Role, &u.Status, &u.PushToken, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}
