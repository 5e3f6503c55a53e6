package services

import (
	"errors"

	"github.com/oculusai/console/internal/pkg/constants"
)

// Guarded no-op conditions. Operations returning one of these leave session state untouched.
var (
	ErrBlankInput           = errors.New("input is blank")
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrNoActiveModel        = errors.New("no model bound to the active conversation")
	ErrReplyPending         = errors.New("a reply is already pending for this conversation")
	ErrRateLimited          = errors.New("model rate limit exceeded")
	ErrConversationNotFound = errors.New(constants.ErrMsgConversationNotFound)
	ErrInvalidMode          = errors.New("invalid mode")
	ErrSessionClosed        = errors.New("session is closed")
	ErrSessionNotFound      = errors.New(constants.ErrMsgSessionNotFound)
	ErrTooManySessions      = errors.New("too many open sessions")
)
