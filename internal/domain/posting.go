package domain

import "time"

type Tier string

const (
	Tier1 Tier = "Tier1"
	Tier2 Tier = "Tier2"
	Tier3 Tier = "Tier3"
)

// Posting is a canonical internship posting row. The canonical table is
// the single source of truth; mirror copies are derived from it.
type Posting struct {
	ID           string   `json:"id"` // "I001" style
	CompanyID    string   `json:"companyId"`
	Sector       string   `json:"sector"`
	Tier         Tier     `json:"tier"`
	State        string   `json:"state"` // two-letter state code, e.g. "GJ"
	Capacity     int      `json:"capacity"`
	ReqSkills    []string `json:"reqSkills"`
	Stipend      int      `json:"stipend"`
	LocationType string   `json:"locationType"` // Office/Factory/Remote
	DemandCount  int      `json:"demandCount"`
}

// MirrorPosting is a tier-mirror copy of a Posting. Only the propagator
// writes these rows.
type MirrorPosting struct {
	Posting
	SyncedAt time.Time `json:"syncedAt"`
}

// Student holds the six ordered posting preferences used to recompute
// demand counts. Prefs may hold fewer than six entries.
type Student struct {
	ID          string   `json:"id"` // "S00001" style
	GPA         float64  `json:"gpa"`
	Skills      []string `json:"skills"`
	Reservation string   `json:"reservation"` // GEN/OBC/SC/ST
	Rural       bool     `json:"rural"`
	Gender      string   `json:"gender"`
	Prefs       []string `json:"prefs"` // pref_1..pref_6 posting ids, in order
}
