package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Setting keys the SLA engine reads. Values are free-form strings
// maintained by the surrounding application's admin surface.
const (
	SettingAutocloseValue    = "autoclose_value"
	SettingAutocloseUnit     = "autoclose_unit"
	SettingEscalationManager = "escalation_manager"
	SettingMailHost          = "mail_host"
	SettingMailPort          = "mail_port"
	SettingMailUsername      = "mail_username"
	SettingMailPassword      = "mail_password"
	SettingMailEncryption    = "mail_encryption"
	SettingMailFromAddress   = "mail_from_address"
	SettingMailFromName      = "mail_from_name"
)

// SettingsRepository reads the mutable key/value runtime configuration.
type SettingsRepository interface {
	// Get returns the value for key, or "" when the key is unset.
	Get(ctx context.Context, key string) (string, error)
	// GetMany returns the subset of the requested keys that exist.
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository instantiates repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM app_settings WHERE key=$1`
	var value string
	if err := r.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *settingsRepository) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	const query = `SELECT key, value FROM app_settings WHERE key = ANY($1)`
	rows, err := r.pool.Query(ctx, query, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string, len(keys))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, rows.Err()
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	const query = `
        INSERT INTO app_settings (key, value) VALUES ($1,$2)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value`
	_, err := r.pool.Exec(ctx, query, key, value)
	return err
}
