package session

import "errors"

// Rejections returned by Coordinator operations. Each is reported to the causing
// connection only; none of them changes coordinator state.
var (
	ErrInvalidName     = errors.New("display name is required")
	ErrNotTeacher      = errors.New("only teachers can do this")
	ErrInvalidPoll     = errors.New("invalid poll")
	ErrPollInProgress  = errors.New("poll still in progress")
	ErrNoActivePoll    = errors.New("no active poll")
	ErrStalePoll       = errors.New("poll is no longer current")
	ErrUnknownOption   = errors.New("unknown option")
	ErrTeacherAnswer   = errors.New("teachers cannot answer polls")
	ErrNotJoined       = errors.New("name has not joined")
	ErrAlreadyAnswered = errors.New("already answered")
	ErrChatRestricted  = errors.New("chat restricted")
)

const (
	msgPollInProgress  = "Cannot create new poll. Wait for all students to answer or time to expire."
	msgAlreadyAnswered = "You have already answered this question."
	msgChatRestricted  = "You have been kicked from the chat and cannot send messages."
	msgKickedNotice    = "You have been kicked from the chat but can still participate in polls."
	msgTimeExpired     = "Time's up! Poll has ended."
	msgNoActivePoll    = "There is no active poll."
	msgStalePoll       = "This poll is no longer active."
	msgTeacherAnswer   = "Teachers cannot answer polls."
	msgNotTeacher      = "Only teachers can create polls."
	msgNotJoined       = "Join the class before answering."
)

// clientMessage maps an error to the text shown to the participant.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, ErrPollInProgress):
		return msgPollInProgress
	case errors.Is(err, ErrAlreadyAnswered):
		return msgAlreadyAnswered
	case errors.Is(err, ErrChatRestricted):
		return msgChatRestricted
	case errors.Is(err, ErrNoActivePoll):
		return msgNoActivePoll
	case errors.Is(err, ErrStalePoll):
		return msgStalePoll
	case errors.Is(err, ErrTeacherAnswer):
		return msgTeacherAnswer
	case errors.Is(err, ErrNotTeacher):
		return msgNotTeacher
	case errors.Is(err, ErrNotJoined):
		return msgNotJoined
	default:
		return err.Error()
	}
}
