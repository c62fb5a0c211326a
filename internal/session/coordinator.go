// Package session implements the live classroom coordinator: presence, the single poll
// slot with its deadline, the answer ledger and chat moderation.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/dependencies/clock"
	"github.com/liveclass/polling/internal/models"
)

// Router delivers events to connections. Implementations must not block.
type Router interface {
	ToAll(event string, payload interface{})
	ToOne(connID string, event string, payload interface{})
}

// Recorder persists polls and votes off the event path. Calls must not block.
type Recorder interface {
	RecordPoll(p *models.Poll)
	RecordVote(pollID uuid.UUID, option string)
}

// ChatFilter rewrites chat text before broadcast.
type ChatFilter interface {
	Censor(text string) string
}

// Options tune poll creation.
type Options struct {
	DefaultTimerSeconds int
	MaxTimerSeconds     int
	ReplacePolicy       ReplacePolicy
	Filter              ChatFilter
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		DefaultTimerSeconds: 60,
		MaxTimerSeconds:     600,
		ReplacePolicy:       ReplaceGuarded,
	}
}

// Coordinator serializes every connection event and the deadline timer behind one lock.
type Coordinator struct {
	mu         sync.Mutex
	registry   *Registry
	moderation *ModerationLedger
	lifecycle  *Lifecycle
	answers    *AnswerLedger
	deadline   deadline
	router     Router
	recorder   Recorder
	clock      clock.Clock
	opts       Options
	logger     *zap.Logger
}

// NewCoordinator creates a coordinator. recorder may be nil when nothing is persisted.
func NewCoordinator(router Router, recorder Recorder, clk clock.Clock, opts Options, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if opts.DefaultTimerSeconds <= 0 {
		opts.DefaultTimerSeconds = DefaultOptions().DefaultTimerSeconds
	}
	if opts.ReplacePolicy == "" {
		opts.ReplacePolicy = ReplaceGuarded
	}
	return &Coordinator{
		registry:   NewRegistry(),
		moderation: NewModerationLedger(),
		lifecycle:  NewLifecycle(),
		answers:    NewAnswerLedger(),
		router:     router,
		recorder:   recorder,
		clock:      clk,
		opts:       opts,
		logger:     logger,
	}
}

// Join registers connID under name. Banned names join the poll roster only.
func (c *Coordinator) Join(connID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.registry.Lookup(connID); ok && prev != name {
		c.leaveLocked(connID)
	}

	banned := c.moderation.IsBanned(name)
	c.registry.Join(connID, name, !banned)
	if banned {
		c.router.ToOne(connID, EventKickedFromChat, Notice{Message: msgKickedNotice, KickedFromChat: true})
	} else {
		c.router.ToAll(EventParticipantsUpdate, c.registry.ChatRoster())
	}

	if c.lifecycle.Current() != nil {
		c.router.ToOne(connID, EventPollCreated, c.pollViewLocked())
		c.router.ToOne(connID, EventPollResults, c.answers.Tally())
		c.router.ToAll(EventAnswerStatus, c.statusLocked())
	}

	c.logger.Info("participant joined",
		zap.String("conn_id", connID),
		zap.String("name", name),
		zap.String("role", string(models.RoleOf(name))),
		zap.Bool("chat_restricted", banned))
	return nil
}

// Leave runs the disconnect cascade for connID. Unknown connections are ignored.
func (c *Coordinator) Leave(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked(connID)
}

func (c *Coordinator) leaveLocked(connID string) {
	conn, ok := c.registry.Leave(connID)
	if !ok {
		return
	}

	if !c.registry.HasName(conn.name) {
		purged := c.answers.Purge(conn.name)
		cleared := c.moderation.Clear(conn.name)
		c.logger.Info("participant left",
			zap.String("conn_id", connID),
			zap.String("name", conn.name),
			zap.Bool("answer_purged", purged),
			zap.Bool("ban_cleared", cleared))
	}

	if conn.chatEligible {
		c.router.ToAll(EventParticipantsUpdate, c.registry.ChatRoster())
	}
	if c.lifecycle.Current() != nil {
		c.router.ToAll(EventAnswerStatus, c.statusLocked())
	}
}

// CreatePoll makes a new poll current if the creation guard allows it.
func (c *Coordinator) CreatePoll(connID string, req CreatePollRequest) (*models.Poll, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	teacher := strings.TrimSpace(req.TeacherName)
	if !models.IsTeacherName(teacher) {
		return nil, c.rejectLocked(connID, EventPollCreationError, ErrNotTeacher)
	}
	poll, err := c.buildPoll(teacher, req)
	if err != nil {
		return nil, c.rejectLocked(connID, EventPollCreationError, err)
	}
	if !c.lifecycle.CanReplace(teacher, c.allAnsweredLocked(), now, c.opts.ReplacePolicy) {
		c.logger.Info("poll creation blocked",
			zap.String("teacher", teacher),
			zap.String("current_poll_id", c.lifecycle.Current().ID.String()))
		return nil, c.rejectLocked(connID, EventPollCreationError, ErrPollInProgress)
	}

	poll.CreatedAt = now
	c.answers.Reset(poll.ID)
	c.lifecycle.Start(poll, now)
	c.recorder.RecordPoll(poll.Clone())
	c.router.ToAll(EventPollCreated, c.pollViewLocked())
	c.armDeadlineLocked(poll)

	c.logger.Info("poll created",
		zap.String("poll_id", poll.ID.String()),
		zap.String("teacher", teacher),
		zap.Int("options", len(poll.Options)),
		zap.Int("timer_sec", poll.TimerSeconds),
		zap.Int("connections", c.registry.Len()))
	return poll.Clone(), nil
}

func (c *Coordinator) buildPoll(teacher string, req CreatePollRequest) (*models.Poll, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidPoll)
	}
	if len(req.Options) < 2 {
		return nil, fmt.Errorf("%w: at least two options are required", ErrInvalidPoll)
	}
	seen := make(map[string]bool, len(req.Options))
	options := make([]models.PollOption, 0, len(req.Options))
	for _, o := range req.Options {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: option text is required", ErrInvalidPoll)
		}
		if seen[text] {
			return nil, fmt.Errorf("%w: duplicate option %q", ErrInvalidPoll, text)
		}
		seen[text] = true
		options = append(options, models.PollOption{Text: text, IsCorrect: o.IsCorrect})
	}

	timer := req.TimerSeconds
	if timer <= 0 {
		timer = c.opts.DefaultTimerSeconds
	}
	if c.opts.MaxTimerSeconds > 0 && timer > c.opts.MaxTimerSeconds {
		timer = c.opts.MaxTimerSeconds
	}
	return &models.Poll{
		ID:           uuid.New(),
		Question:     question,
		Options:      options,
		TimerSeconds: timer,
		TeacherName:  teacher,
	}, nil
}

// SubmitAnswer records one answer per participant for the current poll.
func (c *Coordinator) SubmitAnswer(connID string, req SubmitAnswerRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	poll := c.lifecycle.Current()
	if poll == nil {
		return c.rejectLocked(connID, EventAnswerError, ErrNoActivePoll)
	}
	if req.PollID != poll.ID {
		return c.rejectLocked(connID, EventAnswerError, ErrStalePoll)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.rejectLocked(connID, EventAnswerError, ErrInvalidName)
	}
	if models.IsTeacherName(name) {
		return c.rejectLocked(connID, EventAnswerError, ErrTeacherAnswer)
	}
	if !c.registry.HasName(name) {
		return c.rejectLocked(connID, EventAnswerError, ErrNotJoined)
	}
	if !poll.HasOption(req.Option) {
		return c.rejectLocked(connID, EventAnswerError, fmt.Errorf("%w: %q", ErrUnknownOption, req.Option))
	}
	if err := c.answers.Submit(name, poll.ID, req.Option, c.clock.Now()); err != nil {
		if prev, ok := c.answers.Answer(name); ok {
			c.logger.Debug("repeat answer",
				zap.String("name", name),
				zap.String("kept", prev.Option),
				zap.String("attempted", req.Option))
		}
		return c.rejectLocked(connID, EventAnswerError, err)
	}

	c.recorder.RecordVote(poll.ID, req.Option)
	c.router.ToAll(EventPollResults, c.answers.Tally())
	c.router.ToAll(EventAnswerStatus, c.statusLocked())

	c.logger.Debug("answer recorded",
		zap.String("poll_id", poll.ID.String()),
		zap.String("name", name),
		zap.String("option", req.Option))
	return nil
}

// Kick bars name from chat. Only a connection joined as a teacher may kick.
func (c *Coordinator) Kick(connID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	requester, ok := c.registry.Lookup(connID)
	if !ok || !models.IsTeacherName(requester) {
		c.logger.Warn("kick refused", zap.String("conn_id", connID), zap.String("requester", requester), zap.String("target", name))
		return ErrNotTeacher
	}

	c.moderation.Ban(name)
	changed := c.registry.SetChatEligible(name, false)
	targets := c.registry.ConnectionsFor(name)
	for _, id := range targets {
		c.router.ToOne(id, EventKickedOut, Notice{Message: msgKickedNotice, KickedFromChat: true})
	}
	if changed {
		c.router.ToAll(EventParticipantsUpdate, c.registry.ChatRoster())
	}

	c.logger.Info("participant kicked from chat",
		zap.String("by", requester),
		zap.String("name", name),
		zap.Int("connections", len(targets)),
		zap.Strings("banned", c.moderation.Banned()))
	return nil
}

// Chat broadcasts msg unless its sender is barred from chat.
func (c *Coordinator) Chat(connID string, msg ChatMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sender, joined := c.registry.Lookup(connID)
	if c.moderation.IsBanned(msg.Name) || (joined && c.moderation.IsBanned(sender)) {
		c.router.ToOne(connID, EventChatError, ErrorPayload{Message: msgChatRestricted, Type: ChatErrorKicked})
		return ErrChatRestricted
	}
	if c.opts.Filter != nil {
		msg.Text = c.opts.Filter.Censor(msg.Text)
	}
	c.router.ToAll(EventChatMessage, msg)
	return nil
}

// ChatRoster returns the chat-eligible names in join order.
func (c *Coordinator) ChatRoster() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.ChatRoster()
}

// PollRoster returns every joined name.
func (c *Coordinator) PollRoster() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.PollRoster()
}

// IsBanned reports whether name is barred from chat.
func (c *Coordinator) IsBanned(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moderation.IsBanned(name)
}

// CurrentPoll returns a copy of the current poll with live vote counts, or nil.
func (c *Coordinator) CurrentPoll() *models.Poll {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lifecycle.Current() == nil {
		return nil
	}
	return c.pollViewLocked()
}

// State returns the poll slot state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lifecycle.State()
}

// Tally returns the live vote counters of the current poll.
func (c *Coordinator) Tally() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Tally()
}

// Status returns the answer progress of the current poll.
func (c *Coordinator) Status() AnswerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Coordinator) statusLocked() AnswerStatus {
	students := c.registry.Students()
	answered := c.answers.AnsweredAmong(students)
	return AnswerStatus{
		Total:       len(students),
		Answered:    answered,
		AllAnswered: answered == len(students),
	}
}

func (c *Coordinator) allAnsweredLocked() bool {
	return c.answers.AllAnswered(c.registry.Students())
}

func (c *Coordinator) pollViewLocked() *models.Poll {
	p := c.lifecycle.Current().Clone()
	tally := c.answers.Tally()
	for i := range p.Options {
		p.Options[i].Votes = tally[p.Options[i].Text]
	}
	return p
}

func (c *Coordinator) rejectLocked(connID, event string, err error) error {
	c.router.ToOne(connID, event, ErrorPayload{Message: clientMessage(err)})
	c.logger.Debug("request rejected", zap.String("conn_id", connID), zap.String("event", event), zap.Error(err))
	return err
}

type nopRecorder struct{}

func (nopRecorder) RecordPoll(*models.Poll)       {}
func (nopRecorder) RecordVote(uuid.UUID, string) {}
