package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// queueKey is the Redis list the server pushes to and the worker pops
// from. Delivery is at-least-once: a failed task is requeued once, so
// every handler must be idempotent.
const queueKey = "celi:tasks"

const (
	popTimeout  = 5 * time.Second
	maxAttempts = 2
)

// Task names understood by the worker.
const (
	TaskEnrichEntry   = "entry.enrich"
	TaskConstellation = "constellation.name"
	TaskWeeklyInsight = "insight.weekly"
	TaskDailyTrivia   = "trivia.daily"
)

// Task is the wire format on the queue.
type Task struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Args     json.RawMessage `json:"args"`
	Attempts int             `json:"attempts"`
}

// Enqueuer is the fire-and-forget side the pipeline depends on.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, args any) error
}

// Queue is the Redis-backed implementation of Enqueuer.
type Queue struct {
	rdb *redis.Client
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Enqueue pushes one task. Errors are the caller's to ignore: deferred
// work must never fail a user-facing turn.
func (q *Queue) Enqueue(ctx context.Context, name string, args any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(Task{
		ID:   uuid.NewString(),
		Name: name,
		Args: raw,
	})
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queueKey, payload).Err()
}

// Handler processes one task's args.
type Handler func(ctx context.Context, args json.RawMessage) error

// Worker consumes the queue in a blocking loop. It runs in its own
// process (cmd/worker) and shares nothing with the server except the
// persisted entities.
type Worker struct {
	rdb      *redis.Client
	handlers map[string]Handler
}

func NewWorker(rdb *redis.Client) *Worker {
	return &Worker{
		rdb:      rdb,
		handlers: make(map[string]Handler),
	}
}

func (w *Worker) Register(name string, h Handler) {
	w.handlers[name] = h
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Printf("⚙️ Worker consuming %s", queueKey)
	for {
		if ctx.Err() != nil {
			return
		}

		vals, err := w.rdb.BRPop(ctx, popTimeout, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("⚠️ Queue pop error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if len(vals) != 2 {
			continue
		}

		var task Task
		if err := json.Unmarshal([]byte(vals[1]), &task); err != nil {
			log.Printf("⚠️ Dropping malformed task payload: %v", err)
			continue
		}
		w.dispatch(ctx, task)
	}
}

func (w *Worker) dispatch(ctx context.Context, task Task) {
	h, ok := w.handlers[task.Name]
	if !ok {
		log.Printf("⚠️ No handler for task %q (id=%s), dropping", task.Name, task.ID)
		return
	}

	if err := h(ctx, task.Args); err != nil {
		task.Attempts++
		if task.Attempts < maxAttempts {
			log.Printf("⚠️ Task %s (%s) failed, requeueing: %v", task.Name, task.ID, err)
			if payload, mErr := json.Marshal(task); mErr == nil {
				w.rdb.LPush(ctx, queueKey, payload)
			}
			return
		}
		log.Printf("❌ Task %s (%s) failed after %d attempts: %v", task.Name, task.ID, task.Attempts, err)
		return
	}
	log.Printf("✅ Task %s (%s) done", task.Name, task.ID)
}
