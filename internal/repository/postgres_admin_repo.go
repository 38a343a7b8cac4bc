package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/stampman/internal/model"
)

// PostgresAdminRepo はPostgreSQLを使用した管理者リポジトリ。
type PostgresAdminRepo struct {
	db *sql.DB
}

// NewPostgresAdminRepo はPostgresAdminRepoを生成する。
func NewPostgresAdminRepo(db *sql.DB) *PostgresAdminRepo {
	return &PostgresAdminRepo{db: db}
}

// FindByID は指定IDの管理者を取得する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	admin := &model.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, last_login, failed_attempts
		 FROM admins WHERE id = $1`,
		id,
	).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.LastLogin, &admin.FailedAttempts)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by ID: %w", err)
	}

	return admin, nil
}

// FindByUsername はユーザー名で管理者を検索する。見つからない場合はnilを返す。
func (r *PostgresAdminRepo) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	admin := &model.Admin{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, last_login, failed_attempts
		 FROM admins WHERE username = $1`,
		username,
	).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.LastLogin, &admin.FailedAttempts)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin by username: %w", err)
	}

	return admin, nil
}

// Create は管理者を作成する。
func (r *PostgresAdminRepo) Create(ctx context.Context, admin *model.Admin) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash, failed_attempts)
		 VALUES ($1, $2, $3, 0)`,
		admin.ID, admin.Username, admin.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// RecordLoginSuccess はログイン成功を記録する。
func (r *PostgresAdminRepo) RecordLoginSuccess(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admins SET last_login = now(), failed_attempts = 0 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to record admin login success: %w", err)
	}
	return nil
}

// RecordLoginFailure はログイン失敗を記録する。
func (r *PostgresAdminRepo) RecordLoginFailure(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admins SET failed_attempts = failed_attempts + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to record admin login failure: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AdminRepository = (*PostgresAdminRepo)(nil)
