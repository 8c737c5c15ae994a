package application

import (
	"sync"

	"smart-home-assistant/internal/domain"
)

const DefaultMaxHistory = 10

// turnLog keeps the most recent conversation turns, oldest first.
type turnLog struct {
	mu    sync.Mutex
	limit int
	turns []domain.ConversationTurn
}

func newTurnLog(limit int) *turnLog {
	if limit <= 0 {
		limit = DefaultMaxHistory
	}
	return &turnLog{limit: limit}
}

func (l *turnLog) add(t domain.ConversationTurn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, t)
	if over := len(l.turns) - l.limit; over > 0 {
		l.turns = append(l.turns[:0:0], l.turns[over:]...)
	}
}

func (l *turnLog) list() []domain.ConversationTurn {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.ConversationTurn, len(l.turns))
	copy(out, l.turns)
	return out
}
