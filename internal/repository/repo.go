package repository

import (
	"context"
	"database/sql"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertSettings makes sure a row exists for the guild and returns it.
func (r *Repo) UpsertSettings(ctx context.Context, guild string) (*Settings, error) {
	_, _ = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings(guild_id) VALUES (?)`, guild,
	)
	return r.GetSettings(ctx, guild)
}

func (r *Repo) GetSettings(ctx context.Context, guild string) (*Settings, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT guild_id, playlist_limit, default_volume, leave_if_no_listeners
	FROM settings WHERE guild_id = ?`, guild)

	var s Settings
	var leave int
	if err := row.Scan(&s.GuildID, &s.PlaylistLimit, &s.DefaultVolume, &leave); err != nil {
		return nil, err
	}
	s.LeaveIfNoListeners = leave != 0
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, s *Settings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE settings SET
		  playlist_limit=?,
		  default_volume=?,
		  leave_if_no_listeners=?
		WHERE guild_id=?`,
		s.PlaylistLimit, s.DefaultVolume, boolToInt(s.LeaveIfNoListeners), s.GuildID,
	)
	return err
}

// SetDefaultVolume persists the guild's volume so the next session starts at
// the same level.
func (r *Repo) SetDefaultVolume(ctx context.Context, guild string, volume int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE settings SET default_volume=? WHERE guild_id=?`, volume, guild)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO settings(guild_id, default_volume) VALUES (?,?)`, guild, volume)
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
