package service

import (
	"encoding/json"
	"fmt"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils/apierror"
	"testing"
)

func TestPostingRequiresActiveRoom(t *testing.T) {
	env := newEnv(t)
	sched := env.schedule(t)
	roomID := sched.Room.ID
	apptID := sched.Appointment.ID

	_, apierr := env.chat.PostMessage(env.ctx, clientID, roomID, &MessageRequest{Text: "early"})
	expectKind(t, apierr, apierror.KindForbidden)

	_, apierr = env.sessions.Start(env.ctx, consultantID, apptID)
	expectOK(t, apierr)

	_, apierr = env.chat.PostMessage(env.ctx, consultantID, roomID, &MessageRequest{Text: "welcome"})
	expectOK(t, apierr)

	_, apierr = env.sessions.End(env.ctx, consultantID, apptID)
	expectOK(t, apierr)

	_, apierr = env.chat.PostMessage(env.ctx, clientID, roomID, &MessageRequest{Text: "late"})
	expectKind(t, apierr, apierror.KindForbidden)

	if n := countRows(t, env.db, &entity.ChatMessage{}); n != 1 {
		t.Fatalf("messages = %d, want 1", n)
	}
}

func TestPostingValidationAndMembership(t *testing.T) {
	env := newEnv(t)
	sched := env.live(t)
	roomID := sched.Room.ID

	_, apierr := env.chat.PostMessage(env.ctx, clientID, roomID, &MessageRequest{Text: "   "})
	expectKind(t, apierr, apierror.KindValidation)

	_, apierr = env.chat.PostMessage(env.ctx, otherClientID, roomID, &MessageRequest{Text: "hi"})
	expectKind(t, apierr, apierror.KindForbidden)

	_, apierr = env.chat.PostMessage(env.ctx, clientID, 999, &MessageRequest{Text: "hi"})
	expectKind(t, apierr, apierror.KindNotFound)
}

func TestPostedMessageIsRelayed(t *testing.T) {
	env := newEnv(t)
	sched := env.live(t)
	roomID := sched.Room.ID

	msg, apierr := env.chat.PostMessage(env.ctx, clientID, roomID, &MessageRequest{Text: "hello"})
	expectOK(t, apierr)

	if env.relay.count(roomID) != 1 {
		t.Fatalf("relayed frames = %d, want 1", env.relay.count(roomID))
	}

	var frame RelayEnvelope
	if err := json.Unmarshal(env.relay.frames[roomID][0], &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Type != "message" || frame.Message.ID != msg.ID {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestChatReadAsymmetry(t *testing.T) {
	env := newEnv(t)
	sched := env.schedule(t)
	roomID := sched.Room.ID

	_, apierr := env.chat.ListMessages(env.ctx, consultantID, roomID, 0)
	expectOK(t, apierr)

	_, apierr = env.chat.ListMessages(env.ctx, clientID, roomID, 0)
	expectKind(t, apierr, apierror.KindForbidden)

	_, apierr = env.chat.ListMessages(env.ctx, otherConsultantID, roomID, 0)
	expectKind(t, apierr, apierror.KindForbidden)

	_, apierr = env.sessions.Start(env.ctx, consultantID, sched.Appointment.ID)
	expectOK(t, apierr)

	_, apierr = env.chat.ListMessages(env.ctx, clientID, roomID, 0)
	expectOK(t, apierr)
}

func TestListMessagesOrderAndLimit(t *testing.T) {
	env := newEnv(t)
	sched := env.live(t)
	roomID := sched.Room.ID

	for i := 0; i < 5; i++ {
		sender := clientID
		if i%2 == 1 {
			sender = consultantID
		}
		_, apierr := env.chat.PostMessage(env.ctx, sender, roomID, &MessageRequest{Text: fmt.Sprintf("m%d", i)})
		expectOK(t, apierr)
	}

	msgs, apierr := env.chat.ListMessages(env.ctx, clientID, roomID, 3)
	expectOK(t, apierr)
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Text != fmt.Sprintf("m%d", i) {
			t.Fatalf("message %d = %s, want m%d", i, msg.Text, i)
		}
	}

	_, apierr = env.chat.ListMessages(env.ctx, clientID, roomID, MaxMessageLimit+1)
	expectKind(t, apierr, apierror.KindValidation)
}

func TestAuthorizeRelay(t *testing.T) {
	env := newEnv(t)
	sched := env.live(t)
	roomID := sched.Room.ID

	expectOK(t, env.chat.AuthorizeRelay(env.ctx, clientID, roomID))
	expectOK(t, env.chat.AuthorizeRelay(env.ctx, consultantID, roomID))
	expectKind(t, env.chat.AuthorizeRelay(env.ctx, otherClientID, roomID), apierror.KindForbidden)

	_, apierr := env.sessions.End(env.ctx, consultantID, sched.Appointment.ID)
	expectOK(t, apierr)
	expectKind(t, env.chat.AuthorizeRelay(env.ctx, clientID, roomID), apierror.KindForbidden)
}
