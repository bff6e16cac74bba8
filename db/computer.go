package db

import "time"

// Computer is a cached copy of one agent. Data holds the full API record as JSON.
type Computer struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"index" json:"name"`
	ClientID     int       `gorm:"index" json:"client_id"`
	ClientName   string    `json:"client_name"`
	LocationID   int       `json:"location_id"`
	LocationName string    `json:"location_name"`
	OS           string    `json:"os"`
	IsOnline     bool      `json:"is_online"`
	LastContact  string    `json:"last_contact"`
	Data         string    `json:"data"`
	SyncedAt     time.Time `json:"synced_at"`
}

// SyncState records the last inventory refresh. There is only ever one row.
type SyncState struct {
	ID        int `gorm:"primaryKey"`
	ServerURL string
	Computers int
	Failed    int
	SyncedAt  time.Time
}
