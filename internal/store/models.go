package store

import "time"

type User struct {
	ID           int64     `json:"id" db:"id"`
	UID          string    `json:"uid" db:"uid"`
	PasswordHash string    `json:"-" db:"password_hash"` // Do not expose this in JSON responses
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// FileEntry maps a stable numeric file id to a path inside a user's folder.
type FileEntry struct {
	ID   int64  `db:"fileid"`
	UID  string `db:"uid"`
	Path string `db:"path"`
}
