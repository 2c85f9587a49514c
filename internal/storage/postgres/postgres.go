// Package postgres реализует хранилище пользователей, тарифов и подписок на PostgreSQL.
// Уникальность email, документа и кода сброса обеспечивается индексами, регистрация
// выполняется в одной транзакции.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/farm-backend/internal/models"
	"github.com/magabrotheeeer/farm-backend/internal/storage"
)

// Имена уникальных индексов из migrations.
const (
	emailIndex     = "users_email_key"
	documentIndex  = "users_document_key"
	resetCodeIndex = "users_reset_code_key"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New открывает подключение к PostgreSQL и проверяет его.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{DB: db}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// RegisterUser сохраняет пользователя и подписку на тариф planName в одной транзакции.
// Email проверяется раньше документа, тариф ищется после обеих проверок; при гонке
// конфликт определяется по имени нарушенного индекса.
func (s *Storage) RegisterUser(ctx context.Context, user models.User, sub models.Subscription, planName string) (*models.Plan, error) {
	const op = "storage.postgres.RegisterUser"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var taken bool
	if err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, user.Email).Scan(&taken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
	}
	if err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE document = $1)`, user.Document).Scan(&taken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrDocumentExists)
	}

	var plan models.Plan
	err = tx.QueryRowContext(ctx, `SELECT id, name, price::float8 FROM plans WHERE name = $1`, planName).
		Scan(&plan.ID, &plan.Name, &plan.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO users (uid, name, email, document, password_hash, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.UUID, user.Name, user.Email, user.Document, user.PasswordHash, user.Phone, user.Address, user.CreatedAt)
	if err != nil {
		if name, ok := uniqueViolation(err); ok {
			return nil, fmt.Errorf("%s: %w", op, s.registrationConflict(ctx, name, user.Email))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO subscriptions (id, user_uid, plan_id, type, value, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, user.UUID, plan.ID, string(sub.Type), sub.Value, string(sub.Status), sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &plan, nil
}

// registrationConflict переводит нарушение уникального индекса в ошибку хранилища.
// Если сработал индекс документа, а email тоже занят, сообщается о email.
func (s *Storage) registrationConflict(ctx context.Context, index, email string) error {
	if index == emailIndex {
		return storage.ErrEmailExists
	}
	var emailTaken bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&emailTaken)
	if err == nil && emailTaken {
		return storage.ErrEmailExists
	}
	return storage.ErrDocumentExists
}

const userColumns = `uid, name, email, document, password_hash, phone, address, created_at,
	reset_code, reset_code_expires_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		code      sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(&u.UUID, &u.Name, &u.Email, &u.Document, &u.PasswordHash, &u.Phone, &u.Address,
		&u.CreatedAt, &code, &expiresAt)
	if err != nil {
		return nil, err
	}
	if code.Valid && expiresAt.Valid {
		c := code.String
		exp := expiresAt.Time
		u.ResetCode = &c
		u.ResetCodeExpiresAt = &exp
	}
	return &u, nil
}

// GetUserByEmail возвращает пользователя по точному совпадению email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.GetUserByEmail"
	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.postgres.GetUser"
	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByResetCode возвращает пользователя, чей код совпадает и действует на момент now.
func (s *Storage) GetUserByResetCode(ctx context.Context, code string, now time.Time) (*models.User, error) {
	const op = "storage.postgres.GetUserByResetCode"
	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_code = $1 AND reset_code_expires_at > $2`, code, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrResetCodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetResetCode записывает код сброса поверх предыдущего.
func (s *Storage) SetResetCode(ctx context.Context, userUID, code string, expiresAt time.Time) error {
	const op = "storage.postgres.SetResetCode"
	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET reset_code = $2, reset_code_expires_at = $3 WHERE uid = $1`, userUID, code, expiresAt)
	if err != nil {
		if name, ok := uniqueViolation(err); ok && name == resetCodeIndex {
			return fmt.Errorf("%s: %w", op, storage.ErrResetCodeTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// ResetPassword меняет хэш и очищает код одним условным UPDATE.
func (s *Storage) ResetPassword(ctx context.Context, userUID, code, passwordHash string, now time.Time) error {
	const op = "storage.postgres.ResetPassword"
	res, err := s.DB.ExecContext(ctx, `UPDATE users
		SET password_hash = $1, reset_code = NULL, reset_code_expires_at = NULL
		WHERE uid = $2 AND reset_code = $3 AND reset_code_expires_at > $4`,
		passwordHash, userUID, code, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrResetCodeNotFound)
	}
	return nil
}

// ClearExpiredResetCodes обнуляет коды сброса, срок которых истёк к моменту now.
func (s *Storage) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.ClearExpiredResetCodes"
	res, err := s.DB.ExecContext(ctx, `UPDATE users
		SET reset_code = NULL, reset_code_expires_at = NULL
		WHERE reset_code IS NOT NULL AND reset_code_expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// GetPlanByName возвращает тариф по имени.
func (s *Storage) GetPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	const op = "storage.postgres.GetPlanByName"
	var p models.Plan
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, price::float8 FROM plans WHERE name = $1`, name).
		Scan(&p.ID, &p.Name, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// GetSubscriptionView возвращает подписку пользователя вместе с именем тарифа.
func (s *Storage) GetSubscriptionView(ctx context.Context, userUID string) (*models.SubscriptionView, error) {
	const op = "storage.postgres.GetSubscriptionView"
	var (
		v       models.SubscriptionView
		subType string
		status  string
	)
	err := s.DB.QueryRowContext(ctx, `SELECT p.name, s.type, s.status, s.created_at
		FROM subscriptions s JOIN plans p ON p.id = s.plan_id
		WHERE s.user_uid = $1`, userUID).Scan(&v.PlanName, &subType, &status, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrSubscriptionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	v.Type = models.SubscriptionType(subType)
	v.Status = models.SubscriptionStatus(status)
	return &v, nil
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
