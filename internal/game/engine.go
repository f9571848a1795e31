package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rules holds the tunable game constants.
type Rules struct {
	MinPlayers          int
	MaxPlayers          int
	MaxRounds           int
	HandSize            int
	ReloadHandSize      int
	FreeWordMaxLength   int
	NicknameMaxLength   int
	RoundDuration       time.Duration
	ThemeRevealDuration time.Duration
	CountdownDuration   time.Duration
	CodeAttempts        int
}

func DefaultRules() Rules {
	return Rules{
		MinPlayers:          3,
		MaxPlayers:          6,
		MaxRounds:           10,
		HandSize:            8,
		ReloadHandSize:      5,
		FreeWordMaxLength:   4,
		NicknameMaxLength:   20,
		RoundDuration:       3 * time.Minute,
		ThemeRevealDuration: 3 * time.Second,
		CountdownDuration:   3 * time.Second,
		CodeAttempts:        10,
	}
}

// Engine runs every game operation as one repository transaction and
// publishes change notifications after the transaction commits.
type Engine struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	rules    Rules
	now      func() time.Time
	newCode  func() (string, error)

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand makes dealing, theme picks and avatars reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newCode = gen
		}
	}
}

func NewEngine(repo Repository, rules Rules, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		notifier: nopNotifier{},
		logger:   zap.NewNop(),
		rules:    rules,
		now:      time.Now,
		newCode:  NewRoomCode,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Rules() Rules {
	return e.rules
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

func (e *Engine) intN(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.IntN(n)
}

// sample returns up to k distinct elements of items in random order.
func (e *Engine) sample(items []string, k int) []string {
	if k > len(items) {
		k = len(items)
	}
	pool := append([]string(nil), items...)
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + e.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func (e *Engine) publish(ctx context.Context, changes ...Change) {
	for _, change := range changes {
		if err := e.notifier.Publish(ctx, change); err != nil {
			e.logger.Warn("publish change failed",
				zap.String("room_id", change.RoomID),
				zap.String("record", string(change.Record)),
				zap.Error(err),
			)
		}
	}
}

func (e *Engine) appendEvent(tx Tx, room Room, playerID, eventType string, payload EventPayload) error {
	return tx.AppendEvent(&Event{
		ID:          newID(),
		RoomID:      room.ID,
		PlayerID:    playerID,
		RoundNumber: room.CurrentRound,
		Type:        eventType,
		Payload:     payload,
		CreatedAt:   e.clock(),
	})
}

func loadRoom(tx Tx, roomID string) (Room, error) {
	room, err := tx.RoomForUpdate(roomID)
	if errors.Is(err, ErrNotFound) {
		return Room{}, ErrRoomNotFound
	}
	return room, err
}

func loadSeatedPlayer(tx Tx, room Room, playerID string) (Player, error) {
	player, err := tx.Player(playerID)
	if errors.Is(err, ErrNotFound) || (err == nil && player.RoomID != room.ID) {
		return Player{}, ErrPlayerNotFound
	}
	return player, err
}

func requireHost(room Room, actorID string) error {
	if actorID == "" || room.HostID != actorID {
		return ErrNotHost
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// normalizeText trims and collapses internal whitespace runs to one space.
func normalizeText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func hasControl(value string) bool {
	return strings.IndexFunc(value, unicode.IsControl) >= 0
}

func (e *Engine) validateNickname(raw string) (string, error) {
	if hasControl(raw) {
		return "", ErrNicknameInvalid
	}
	nickname := normalizeText(raw)
	if nickname == "" || utf8.RuneCountInString(nickname) > e.rules.NicknameMaxLength {
		return "", ErrNicknameInvalid
	}
	return nickname, nil
}

func (e *Engine) validateFreeWord(raw string) (string, error) {
	word := strings.TrimSpace(raw)
	if word == "" {
		return "", ErrFreeWordEmpty
	}
	if hasControl(word) || !utf8.ValidString(word) {
		return "", ErrFreeWordInvalid
	}
	if utf8.RuneCountInString(word) > e.rules.FreeWordMaxLength {
		return "", ErrFreeWordTooLong
	}
	return word, nil
}
