package mail

import (
	"context"
	"strconv"

	"github.com/spec-kit/ticket-sla-service/internal/repository"
)

// Settings is a point-in-time snapshot of the mutable SMTP configuration.
// It is loaded fresh before each send so admin edits take effect without
// a restart, and passed explicitly to avoid hidden cross-call state.
type Settings struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Encryption  string
	FromAddress string
	FromName    string
}

// Configured reports whether the snapshot carries enough to attempt a
// send. Host and port are the minimum.
func (s Settings) Configured() bool {
	return s.Host != "" && s.Port > 0
}

// LoadSettings reads the SMTP snapshot from the key/value store.
func LoadSettings(ctx context.Context, settings repository.SettingsRepository) (Settings, error) {
	values, err := settings.GetMany(ctx, []string{
		repository.SettingMailHost,
		repository.SettingMailPort,
		repository.SettingMailUsername,
		repository.SettingMailPassword,
		repository.SettingMailEncryption,
		repository.SettingMailFromAddress,
		repository.SettingMailFromName,
	})
	if err != nil {
		return Settings{}, err
	}

	port, _ := strconv.Atoi(values[repository.SettingMailPort])
	return Settings{
		Host:        values[repository.SettingMailHost],
		Port:        port,
		Username:    values[repository.SettingMailUsername],
		Password:    values[repository.SettingMailPassword],
		Encryption:  values[repository.SettingMailEncryption],
		FromAddress: values[repository.SettingMailFromAddress],
		FromName:    values[repository.SettingMailFromName],
	}, nil
}
