package session

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/dependencies/clock"
	"github.com/liveclass/polling/internal/models"
)

// deadline is the one-shot expiry timer of the current poll.
type deadline struct {
	pollID uuid.UUID
	timer  clock.Timer
}

// armDeadlineLocked stops the previous poll's timer and schedules expiry for p.
func (c *Coordinator) armDeadlineLocked(p *models.Poll) {
	if c.deadline.timer != nil {
		c.deadline.timer.Stop()
	}
	id := p.ID
	c.deadline = deadline{
		pollID: id,
		timer:  c.clock.AfterFunc(p.Timer(), func() { c.expire(id) }),
	}
}

// expire runs when a poll's timer fires. A poll that has since been replaced is left alone.
func (c *Coordinator) expire(pollID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.IsCurrent(pollID) {
		c.logger.Debug("stale poll timer ignored", zap.String("poll_id", pollID.String()))
		return
	}
	c.lifecycle.Close()
	status := c.statusLocked()
	c.router.ToAll(EventPollTimeExpired, TimeExpired{Message: msgTimeExpired, AllAnswered: status.AllAnswered})
	c.logger.Info("poll time expired",
		zap.String("poll_id", pollID.String()),
		zap.Int("answered", status.Answered),
		zap.Int("total", status.Total))
}
