package linking

import (
	"context"
	"errors"
	"strings"

	"github.com/nekogravitycat/car-booking-backend/internal/user"
)

const (
	cmdLink       = "!link"
	cmdSetupAdmin = "!setup admin"
	cmdMyID       = "!myid"

	welcomeText = "Welcome to Corporate Car Booking!\n\n" +
		"To receive notifications:\n" +
		"1. Sign in on the web app\n" +
		"2. Open LINE Connect from your profile\n" +
		"3. Send the !link code shown there"
)

// Payload is the body of a LINE Messaging API webhook call.
type Payload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type    string        `json:"type"`
	Source  Source        `json:"source"`
	Message *EventMessage `json:"message,omitempty"`
}

type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// Conversation is where a reply should go: the group or room if the event
// came from one, else the user.
func (s Source) Conversation() string {
	switch {
	case s.GroupID != "":
		return s.GroupID
	case s.RoomID != "":
		return s.RoomID
	default:
		return s.UserID
	}
}

type EventMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HandleEvents runs chat commands. Failures are logged per event; the
// webhook always acknowledges so LINE does not redeliver.
func (s *service) HandleEvents(ctx context.Context, events []Event) {
	for _, ev := range events {
		switch {
		case ev.Type == "follow" && ev.Source.UserID != "":
			s.reply(ctx, ev.Source.UserID, welcomeText)
		case ev.Type == "message" && ev.Message != nil && ev.Message.Type == "text":
			s.command(ctx, ev.Source, strings.TrimSpace(ev.Message.Text))
		}
	}
}

func (s *service) command(ctx context.Context, src Source, text string) {
	switch {
	case text == cmdSetupAdmin:
		s.setupAdmin(ctx, src)
	case text == cmdMyID:
		id := src.Conversation()
		s.reply(ctx, id, "ID: "+id)
	case strings.HasPrefix(text, cmdLink+" "):
		s.link(ctx, src, strings.TrimSpace(strings.TrimPrefix(text, cmdLink)))
	}
}

func (s *service) setupAdmin(ctx context.Context, src Source) {
	target := src.GroupID
	if target == "" {
		target = src.RoomID
	}
	if target == "" {
		s.reply(ctx, src.UserID, "Run !setup admin inside the admin group chat.")
		return
	}
	if err := s.admin.Set(ctx, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to set admin channel", "target", target, "err", err)
		s.reply(ctx, target, "Could not register this chat as the admin channel. Please try again.")
		return
	}
	s.logger.InfoContext(ctx, "admin channel registered", "target", target)
	s.reply(ctx, target, "This chat is now the admin channel. New requests will be announced here.")
}

func (s *service) link(ctx context.Context, src Source, code string) {
	if src.UserID == "" {
		return
	}
	u, err := s.Link(ctx, code, src.UserID)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "line account linked", "user_id", u.ID)
		s.reply(ctx, src.UserID, "Linked! Hello "+u.DisplayName()+".")
	case errors.Is(err, ErrInvalidCode):
		s.reply(ctx, src.UserID, "This link code is invalid or expired.")
	case errors.Is(err, user.ErrLineAlreadyLinked):
		s.reply(ctx, src.UserID, "This LINE account is already linked to another user.")
	default:
		s.logger.ErrorContext(ctx, "failed to link line account", "err", err)
		s.reply(ctx, src.UserID, "Linking failed. Please try again later.")
	}
}

func (s *service) reply(ctx context.Context, to, text string) {
	if s.pusher == nil || to == "" {
		s.logger.InfoContext(ctx, "line reply not sent", "to", to, "text", text)
		return
	}
	if err := s.pusher.Push(ctx, to, text); err != nil {
		s.logger.WarnContext(ctx, "line reply failed", "to", to, "err", err)
	}
}
