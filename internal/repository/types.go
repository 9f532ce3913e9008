package repository

import "database/sql"

type Repo struct {
	db *sql.DB
}

// Settings are the per-guild knobs. Defaults come from the schema.
type Settings struct {
	GuildID            string
	PlaylistLimit      int
	DefaultVolume      int // percent, 0-200
	LeaveIfNoListeners bool
}
