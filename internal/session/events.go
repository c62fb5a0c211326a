package session

import "github.com/google/uuid"

// Client to server events.
const (
	EventJoin         = "join"
	EventCreatePoll   = "createPoll"
	EventSubmitAnswer = "submitAnswer"
	EventKickOut      = "kickOut"
	EventChatMessage  = "chatMessage"
	EventStudentLogin = "studentLogin"
)

// Server to client events.
const (
	EventPollCreated        = "pollCreated"
	EventPollResults        = "pollResults"
	EventAnswerStatus       = "answerStatus"
	EventPollTimeExpired    = "pollTimeExpired"
	EventParticipantsUpdate = "participantsUpdate"
	EventKickedOut          = "kickedOut"
	EventKickedFromChat     = "kickedFromChat"
	EventPollCreationError  = "pollCreationError"
	EventAnswerError        = "answerError"
	EventChatError          = "chatError"
	EventLoginSuccess       = "loginSuccess"
)

// ChatErrorKicked is the chatError type sent to banned senders.
const ChatErrorKicked = "kicked"

// JoinRequest is the payload of join and studentLogin.
type JoinRequest struct {
	Name string `json:"name"`
}

// OptionInput is one option of a createPoll request.
type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// CreatePollRequest is the payload of createPoll.
type CreatePollRequest struct {
	TeacherName  string        `json:"teacherName"`
	Question     string        `json:"question"`
	Options      []OptionInput `json:"options"`
	TimerSeconds int           `json:"timerSeconds"`
}

// SubmitAnswerRequest is the payload of submitAnswer.
type SubmitAnswerRequest struct {
	Name   string    `json:"name"`
	PollID uuid.UUID `json:"pollId"`
	Option string    `json:"option"`
}

// KickRequest is the payload of kickOut.
type KickRequest struct {
	Name string `json:"name"`
}

// ChatMessage is both the inbound chatMessage payload and its broadcast.
type ChatMessage struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// AnswerStatus reports answer progress of the current poll.
type AnswerStatus struct {
	Total       int  `json:"total"`
	Answered    int  `json:"answered"`
	AllAnswered bool `json:"allAnswered"`
}

// TimeExpired is broadcast when the current poll's deadline passes.
type TimeExpired struct {
	Message     string `json:"message"`
	AllAnswered bool   `json:"allAnswered"`
}

// Notice tells a connection it is restricted from chat.
type Notice struct {
	Message        string `json:"message"`
	KickedFromChat bool   `json:"kickedFromChat"`
}

// ErrorPayload is sent with pollCreationError, answerError and chatError.
type ErrorPayload struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// LoginSuccess acknowledges a studentLogin.
type LoginSuccess struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}
