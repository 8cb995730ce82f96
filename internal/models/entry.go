package models

// Entry modes. "journal" talks to Celi, "rant" talks to the Void.
const (
	ModeJournal = "journal"
	ModeRant    = "rant"
)

// JournalEntry is one document in the "history" collection, keyed by
// (user_id, timestamp). Timestamp is a per-user monotonically increasing
// unix-millisecond key and doubles as the entry identity.
//
// Enrichment fields (Summary, AIAnalysis, Embedding, ConstellationName)
// start empty and are patched later by the worker; everything else is
// written once by the pipeline and never mutated.
type JournalEntry struct {
	UserID    string `bson:"user_id" json:"user_id"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
	Date      string `bson:"date" json:"date"` // "2006-01-02"

	FullMessage string `bson:"full_message" json:"full_message"`
	Reply       string `bson:"reply" json:"reply"`
	Mode        string `bson:"mode" json:"mode"`

	ImageID string `bson:"image_id,omitempty" json:"image_id,omitempty"`
	AudioID string `bson:"audio_id,omitempty" json:"audio_id,omitempty"`

	// Whether this entry counted toward streak/constellation progress
	// (first accepted entry of the calendar day).
	IsValidStar bool `bson:"is_valid_star" json:"is_valid_star"`

	Summary           string    `bson:"summary,omitempty" json:"summary,omitempty"`
	AIAnalysis        string    `bson:"ai_analysis,omitempty" json:"ai_analysis,omitempty"`
	Embedding         []float32 `bson:"embedding,omitempty" json:"-"`
	ConstellationName string    `bson:"constellation_name,omitempty" json:"constellation_name,omitempty"`
}
