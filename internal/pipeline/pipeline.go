package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/markolybrx/Celi-AI/internal/ai"
	"github.com/markolybrx/Celi-AI/internal/models"
	"github.com/markolybrx/Celi-AI/internal/rank"
	"github.com/markolybrx/Celi-AI/internal/tasks"
)

// EntryStore is the history persistence the pipeline needs.
type EntryStore interface {
	Append(ctx context.Context, entry *models.JournalEntry) error
	LastValidMessages(ctx context.Context, userID string, n int) ([]models.JournalEntry, error)
}

// MediaStore persists attached blobs, returning opaque reference ids.
type MediaStore interface {
	Put(userID, filename, contentType string, data []byte) (string, error)
}

// Recaller retrieves relevant past entries; nil results are fine.
type Recaller interface {
	Find(ctx context.Context, userID, query string) []ai.Memory
}

// Replier produces the assistant reply; total, never errors.
type Replier interface {
	Generate(ctx context.Context, turn ai.Turn) string
}

// Rewarder is the progression engine surface the pipeline drives.
type Rewarder interface {
	ProcessDailyRewards(ctx context.Context, userID, today string) (rank.RewardResult, error)
	UpdateRankCheck(ctx context.Context, userID string) (string, error)
}

// Upload is one attached file from the request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TurnInput is one incoming journal turn.
type TurnInput struct {
	UserID  string
	Message string
	Mode    string // "journal" or "rant"
	Image   *Upload
	Audio   *Upload
}

// TurnResult is returned synchronously: the reply plus everything the
// UI needs to render progression right away. Enrichment lands later.
type TurnResult struct {
	Reply     string            `json:"reply"`
	Timestamp int64             `json:"timestamp"`
	Date      string            `json:"date"`
	Reward    rank.RewardResult `json:"reward"`
	RankEvent string            `json:"rank_event,omitempty"`
}

// Pipeline orchestrates one journal turn. Reply generation and memory
// recall can only degrade; the single fatal outcome is a history write
// failure.
type Pipeline struct {
	History   EntryStore
	Media     MediaStore
	Recall    Recaller
	Generator Replier
	Rewards   Rewarder
	Queue     tasks.Enqueuer
}

// ProcessTurn runs the full sequence: persist media, recall memories,
// apply rewards, generate the reply, persist the entry, then enqueue
// the deferred work.
func (p *Pipeline) ProcessTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	now := time.Now()
	timestamp := now.UnixMilli()
	today := now.Format("2006-01-02")

	mode := in.Mode
	if mode != models.ModeRant {
		mode = models.ModeJournal
	}

	entry := &models.JournalEntry{
		UserID:      in.UserID,
		Timestamp:   timestamp,
		Date:        today,
		FullMessage: in.Message,
		Mode:        mode,
	}

	// 1. Media first so the entry can reference the blob ids. A blob
	// store failure loses the attachment, not the turn.
	if in.Image != nil {
		if id, err := p.Media.Put(in.UserID, in.Image.Filename, in.Image.ContentType, in.Image.Data); err != nil {
			log.Printf("⚠️ Image upload failed for %s: %v", in.UserID, err)
		} else {
			entry.ImageID = id
		}
	}
	if in.Audio != nil {
		if id, err := p.Media.Put(in.UserID, in.Audio.Filename, in.Audio.ContentType, in.Audio.Data); err != nil {
			log.Printf("⚠️ Audio upload failed for %s: %v", in.UserID, err)
		} else {
			entry.AudioID = id
		}
	}

	// 2. Best-effort memory recall.
	var memories []ai.Memory
	if p.Recall != nil {
		memories = p.Recall.Find(ctx, in.UserID, in.Message)
	}

	// 3. Daily reward + rank check. A missing user is fatal here; the
	// turn has no profile to hang progression on.
	reward, err := p.Rewards.ProcessDailyRewards(ctx, in.UserID, today)
	if err != nil {
		return nil, err
	}
	rankEvent := ""
	if reward.Awarded {
		rankEvent, err = p.Rewards.UpdateRankCheck(ctx, in.UserID)
		if err != nil {
			log.Printf("⚠️ Rank check failed for %s: %v", in.UserID, err)
			rankEvent = ""
		}
	}

	// 4. Generate the reply. Total: degraded text on provider outage.
	turn := ai.Turn{
		Message:  in.Message,
		Mode:     mode,
		Memories: memories,
	}
	if in.Image != nil {
		turn.ImageMIME = in.Image.ContentType
		turn.ImageData = in.Image.Data
	}
	entry.Reply = p.Generator.Generate(ctx, turn)
	entry.IsValidStar = reward.ValidStar

	// 5. Persist. The only fatal step: a reply the user never sees
	// again is worse than a missing one. Append may bump the timestamp
	// to dodge a same-millisecond collision, so everything after this
	// point reads the key back off the entry.
	if err := p.History.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("could not save entry: %w", err)
	}

	// 6. Deferred enrichment; fire-and-forget.
	if p.Queue != nil {
		if err := p.Queue.Enqueue(ctx, tasks.TaskEnrichEntry, tasks.EnrichEntryArgs{
			UserID:    in.UserID,
			Timestamp: entry.Timestamp,
			Text:      in.Message,
		}); err != nil {
			log.Printf("⚠️ Failed to enqueue enrichment for %s/%d: %v", in.UserID, entry.Timestamp, err)
		}
	}

	// 7. Constellation naming, with the closing 7 messages as context.
	if reward.Event == rank.EventConstellationComplete && p.Queue != nil {
		p.enqueueConstellation(ctx, in.UserID, entry.Timestamp)
	}

	return &TurnResult{
		Reply:     entry.Reply,
		Timestamp: entry.Timestamp,
		Date:      today,
		Reward:    reward,
		RankEvent: rankEvent,
	}, nil
}

func (p *Pipeline) enqueueConstellation(ctx context.Context, userID string, timestamp int64) {
	// The current entry is already persisted, so the last 7 valid stars
	// are the 6 prior messages plus this one.
	entries, err := p.History.LastValidMessages(ctx, userID, rank.ConstellationSize)
	if err != nil {
		log.Printf("⚠️ Constellation context fetch failed for %s: %v", userID, err)
		return
	}
	var block strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&block, "[%s]: %s\n", e.Date, e.FullMessage)
	}
	if err := p.Queue.Enqueue(ctx, tasks.TaskConstellation, tasks.ConstellationArgs{
		UserID:    userID,
		Timestamp: timestamp,
		TextBlock: block.String(),
	}); err != nil {
		log.Printf("⚠️ Failed to enqueue constellation naming for %s: %v", userID, err)
	}
}
