package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ParkerJahn/sweatsheet-web/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type messagingFixture struct {
	users   *fakeUserRepo
	convs   *fakeConvRepo
	storage *fakeFileStorage
	svc     MessagingService
}

func newMessagingFixture() *messagingFixture {
	users := newFakeUserRepo()
	convs := newFakeConvRepo()
	st := &fakeFileStorage{}
	return &messagingFixture{
		users:   users,
		convs:   convs,
		storage: st,
		svc:     NewMessagingService(convs, users, st),
	}
}

func TestDirectConversationIsIdempotent(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)

	first, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("first GetOrCreateDirectConversation: %v", err)
	}
	if !first.IsActive || first.Type != domain.ConversationDirect {
		t.Fatal("created conversation must be an active DIRECT conversation")
	}

	// Same caller again, then the opposite direction.
	again, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("repeat GetOrCreateDirectConversation: %v", err)
	}
	reversed, err := f.svc.GetOrCreateDirectConversation(ctx, athlete, coach.ID)
	if err != nil {
		t.Fatalf("reversed GetOrCreateDirectConversation: %v", err)
	}
	if again.ID != first.ID || reversed.ID != first.ID {
		t.Errorf("all directions must resolve to one conversation: %s / %s / %s",
			first.ID.Hex(), again.ID.Hex(), reversed.ID.Hex())
	}
	if len(f.convs.convs) != 1 {
		t.Errorf("conversation count = %d, want 1", len(f.convs.convs))
	}
}

func TestDirectConversationWithSelfOrUnknown(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)

	if _, err := f.svc.GetOrCreateDirectConversation(ctx, coach, coach.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("self-conversation error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.GetOrCreateDirectConversation(ctx, coach, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}
}

func TestCreateGroupConversationNeedsTitle(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	a := addUser(t, f.users, "runner-a", domain.RoleAthlete)
	b := addUser(t, f.users, "runner-b", domain.RoleAthlete)

	if _, err := f.svc.CreateConversation(ctx, coach, domain.ConversationGroup, "", []primitive.ObjectID{a.ID, b.ID}); !errors.Is(err, ErrGroupTitleNeeded) {
		t.Errorf("untitled group error = %v, want ErrGroupTitleNeeded", err)
	}

	conv, err := f.svc.CreateConversation(ctx, coach, domain.ConversationGroup, "Team Chat", []primitive.ObjectID{a.ID, b.ID, coach.ID})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if len(conv.ParticipantIDs) != 3 {
		t.Errorf("participants = %d, want 3 (caller deduplicated)", len(conv.ParticipantIDs))
	}
	if !conv.HasParticipant(coach.ID) {
		t.Error("caller must be a participant")
	}
}

func TestListMessagesNewestFirstExcludesDeleted(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}

	var ids []primitive.ObjectID
	for _, content := range []string{"one", "two", "three"} {
		msg, err := f.svc.PostMessage(ctx, coach, conv.ID, domain.MessageText, content, "")
		if err != nil {
			t.Fatalf("PostMessage(%q): %v", content, err)
		}
		ids = append(ids, msg.ID)
	}

	if err := f.svc.DeleteMessage(ctx, coach, ids[1]); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}

	msgs, err := f.svc.ListMessages(ctx, athlete, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2 (deleted excluded)", len(msgs))
	}
	if msgs[0].Content != "three" || msgs[1].Content != "one" {
		t.Errorf("order = [%q %q], want newest first [three one]", msgs[0].Content, msgs[1].Content)
	}
}

func TestListMessagesFailsClosed(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)
	outsider := addUser(t, f.users, "outsider", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}
	if _, err := f.svc.PostMessage(ctx, coach, conv.ID, domain.MessageText, "private", ""); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	msgs, err := f.svc.ListMessages(ctx, outsider, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages(outsider) error = %v, want nil", err)
	}
	if len(msgs) != 0 {
		t.Errorf("outsider sees %d messages, want 0", len(msgs))
	}

	msgs, err = f.svc.ListMessages(ctx, coach, primitive.NewObjectID())
	if err != nil || len(msgs) != 0 {
		t.Errorf("unknown conversation: msgs=%d err=%v, want empty and nil", len(msgs), err)
	}
}

func TestEditMessageSenderOnly(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}
	msg, err := f.svc.PostMessage(ctx, coach, conv.ID, domain.MessageText, "draft", "")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	if _, err := f.svc.EditMessage(ctx, athlete, msg.ID, "hijacked"); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-sender edit error = %v, want ErrForbidden", err)
	}

	edited, err := f.svc.EditMessage(ctx, coach, msg.ID, "final")
	if err != nil {
		t.Fatalf("sender edit: %v", err)
	}
	if edited.Content != "final" || !edited.IsEdited || edited.EditedAt == nil {
		t.Error("edit must rewrite content and mark the message edited")
	}

	// A deleted message is gone from the mutation path too.
	if err := f.svc.DeleteMessage(ctx, coach, msg.ID); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if _, err := f.svc.EditMessage(ctx, coach, msg.ID, "zombie"); !errors.Is(err, ErrNotFound) {
		t.Errorf("edit after delete error = %v, want ErrNotFound", err)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}

	var ids []primitive.ObjectID
	for _, content := range []string{"a", "b", "c"} {
		msg, err := f.svc.PostMessage(ctx, coach, conv.ID, domain.MessageText, content, "")
		if err != nil {
			t.Fatalf("PostMessage: %v", err)
		}
		ids = append(ids, msg.ID)
	}

	unread := func(p Principal) int64 {
		t.Helper()
		summaries, err := f.svc.ListConversations(ctx, p)
		if err != nil {
			t.Fatalf("ListConversations: %v", err)
		}
		if len(summaries) != 1 {
			t.Fatalf("summaries = %d, want 1", len(summaries))
		}
		return summaries[0].UnreadCount
	}

	if got := unread(athlete); got != 3 {
		t.Fatalf("athlete unread = %d, want 3", got)
	}
	// The sender never counts their own messages as unread.
	if got := unread(coach); got != 0 {
		t.Fatalf("coach unread = %d, want 0", got)
	}

	// Empty id list is a no-op, not an error.
	if err := f.svc.MarkRead(ctx, athlete, conv.ID, nil); err != nil {
		t.Fatalf("MarkRead(empty): %v", err)
	}
	if got := unread(athlete); got != 3 {
		t.Errorf("unread after empty MarkRead = %d, want 3", got)
	}

	// Unknown ids are skipped silently.
	if err := f.svc.MarkRead(ctx, athlete, conv.ID, []primitive.ObjectID{primitive.NewObjectID(), ids[0], ids[1]}); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if got := unread(athlete); got != 1 {
		t.Errorf("unread after marking two = %d, want 1", got)
	}

	// Idempotent: re-acking changes nothing.
	if err := f.svc.MarkRead(ctx, athlete, conv.ID, ids); err != nil {
		t.Fatalf("MarkRead(all): %v", err)
	}
	if err := f.svc.MarkRead(ctx, athlete, conv.ID, ids); err != nil {
		t.Fatalf("repeated MarkRead: %v", err)
	}
	if got := unread(athlete); got != 0 {
		t.Errorf("unread after marking all = %d, want 0", got)
	}
}

func TestConversationSummaryShowsOtherParticipant(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}
	if _, err := f.svc.PostMessage(ctx, athlete, conv.ID, domain.MessageText, "hello coach", ""); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	summaries, err := f.svc.ListConversations(ctx, coach)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	s := summaries[0]
	if s.OtherParticipant == nil || s.OtherParticipant.Username != "runner" {
		t.Error("direct summary must identify the other participant")
	}
	if s.LastMessage == nil || s.LastMessage.Content != "hello coach" {
		t.Error("summary must carry the newest message")
	}
	if s.UnreadCount != 1 {
		t.Errorf("unread = %d, want 1", s.UnreadCount)
	}
}

func TestDeactivateConversationHidesIt(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}
	if err := f.svc.DeactivateConversation(ctx, coach, conv.ID); err != nil {
		t.Fatalf("DeactivateConversation: %v", err)
	}

	if _, err := f.svc.GetConversation(ctx, athlete, conv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConversation after deactivate error = %v, want ErrNotFound", err)
	}
	summaries, err := f.svc.ListConversations(ctx, athlete)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("summaries = %d, want 0 after deactivation", len(summaries))
	}

	// A fresh direct request starts a new conversation.
	fresh, err := f.svc.GetOrCreateDirectConversation(ctx, athlete, coach.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation after deactivate: %v", err)
	}
	if fresh.ID == conv.ID {
		t.Error("deactivated conversation must not be resurrected")
	}
}

func TestPostMessageValidatesPayload(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)
	outsider := addUser(t, f.users, "outsider", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}

	if _, err := f.svc.PostMessage(ctx, coach, conv.ID, domain.MessageText, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty TEXT error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.PostMessage(ctx, coach, conv.ID, domain.MessageImage, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("IMAGE without file_url error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.PostMessage(ctx, outsider, conv.ID, domain.MessageText, "hi", ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider post error = %v, want ErrForbidden", err)
	}

	// Untyped messages default to TEXT.
	msg, err := f.svc.PostMessage(ctx, coach, conv.ID, "", "hello", "")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if msg.Type != domain.MessageText {
		t.Errorf("default type = %q, want TEXT", msg.Type)
	}
}

func TestRequestAttachmentURL(t *testing.T) {
	f := newMessagingFixture()
	ctx := context.Background()

	coach := addUser(t, f.users, "coach", domain.RolePro)
	athlete := addUser(t, f.users, "runner", domain.RoleAthlete)
	outsider := addUser(t, f.users, "outsider", domain.RoleAthlete)

	conv, err := f.svc.GetOrCreateDirectConversation(ctx, coach, athlete.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDirectConversation: %v", err)
	}

	resp, err := f.svc.RequestAttachmentURL(ctx, coach, conv.ID, "image/png")
	if err != nil {
		t.Fatalf("RequestAttachmentURL: %v", err)
	}
	if resp.UploadURL == "" {
		t.Error("response must carry an upload URL")
	}
	wantPrefix := "attachments/" + conv.ID.Hex() + "/"
	if !strings.HasPrefix(resp.ObjectKey, wantPrefix) {
		t.Errorf("object key %q must be scoped under %q", resp.ObjectKey, wantPrefix)
	}
	if len(f.storage.uploads) != 1 {
		t.Errorf("storage upload calls = %d, want 1", len(f.storage.uploads))
	}

	if _, err := f.svc.RequestAttachmentURL(ctx, outsider, conv.ID, "image/png"); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider attachment error = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.RequestAttachmentURL(ctx, coach, conv.ID, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("missing content type error = %v, want ErrValidation", err)
	}
}
