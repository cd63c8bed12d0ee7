package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tunelink/internal/domain"
)

func TestSendMessage_PersistsThenBroadcastsToChatRoom(t *testing.T) {
	req := require.New(t)
	ctl, mem := newTestController(t)
	ctx := context.Background()
	chat := seedChat(t, mem, "u1", "u2")

	u1 := connect(t, ctl, "u1")
	u2 := connect(t, ctl, "u2")
	ctl.Hub.Registry.Join(u1.id, domain.RoomID(chat.ID))
	ctl.Hub.Registry.Join(u2.id, domain.RoomID(chat.ID))

	at := time.Now().UTC().Truncate(time.Second)
	ctl.handleEvent(ctx, u1, inbound(t, "sendMessage", map[string]any{
		"chatId":    string(chat.ID),
		"from":      "u1",
		"message":   "hi",
		"createdAt": at,
	}))

	stored, err := mem.GetMessagesByChat(ctx, chat.ID)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("hi", stored[0].Body)
	req.Equal(domain.UserID("u1"), stored[0].From)

	// Sender and peer both get the broadcast, exactly once each.
	for _, c := range []*wsConn{u1, u2} {
		events := drain(c)
		req.Equal([]string{"newMessage"}, eventNames(events))
		var msg domain.Message
		req.NoError(json.Unmarshal(events[0].Data, &msg))
		req.Equal("hi", msg.Body)
		req.Equal(chat.ID, msg.ChatID)
	}

	// Summary reflects the persisted message.
	got, err := mem.GetChatByID(ctx, chat.ID)
	req.NoError(err)
	req.NotNil(got.LastMessage)
	req.Equal("hi", got.LastMessage.Body)
}

func TestSendMessage_PersistenceFailureYieldsOneErrorNoBroadcast(t *testing.T) {
	req := require.New(t)
	ctl, _ := newTestController(t)
	ctx := context.Background()

	u1 := connect(t, ctl, "u1")
	u2 := connect(t, ctl, "u2")
	ctl.Hub.Registry.Join(u2.id, "missing-chat")

	ctl.handleEvent(ctx, u1, inbound(t, "sendMessage", map[string]any{
		"chatId":  "missing-chat",
		"from":    "u1",
		"message": "hi",
	}))

	req.Equal([]string{"error"}, eventNames(drain(u1)))
	req.Empty(drain(u2))
}

func TestJoinChat_UnicastsChatAndHistory(t *testing.T) {
	req := require.New(t)
	ctl, mem := newTestController(t)
	ctx := context.Background()
	chat := seedChat(t, mem, "u1", "u2")
	_, err := mem.CreateMessage(ctx, domain.Message{ChatID: chat.ID, From: "u2", Body: "earlier"})
	req.NoError(err)

	u1 := connect(t, ctl, "u1")
	ctl.handleEvent(ctx, u1, inbound(t, "joinChat", map[string]any{"chatId": string(chat.ID)}))

	events := drain(u1)
	req.Equal([]string{"chatJoined"}, eventNames(events))
	var joined struct {
		Chat     domain.Chat      `json:"chat"`
		Messages []domain.Message `json:"messages"`
	}
	req.NoError(json.Unmarshal(events[0].Data, &joined))
	req.Equal(chat.ID, joined.Chat.ID)
	req.Len(joined.Messages, 1)
	req.Equal("earlier", joined.Messages[0].Body)

	// Membership is live: a room broadcast now reaches the joiner.
	ctl.Hub.Emit(domain.RoomID(chat.ID), "probe", nil)
	req.Equal([]string{"probe"}, eventNames(drain(u1)))
}

func TestJoinChat_UnknownChatIsErrorOnly(t *testing.T) {
	req := require.New(t)
	ctl, _ := newTestController(t)

	u1 := connect(t, ctl, "u1")
	ctl.handleEvent(context.Background(), u1, inbound(t, "joinChat", map[string]any{"chatId": "nope"}))

	req.Equal([]string{"error"}, eventNames(drain(u1)))
	req.Empty(ctl.Hub.Registry.RoomsOf(u1.id))
}

func TestAddReaction_BroadcastsToChatRoomMembers(t *testing.T) {
	req := require.New(t)
	ctl, mem := newTestController(t)
	ctx := context.Background()
	chat := seedChat(t, mem, "u1", "u2")
	msg, err := mem.CreateMessage(ctx, domain.Message{ChatID: chat.ID, From: "u1", Body: "hi"})
	req.NoError(err)

	u1 := connect(t, ctl, "u1")
	u2 := connect(t, ctl, "u2")
	ctl.Hub.Registry.Join(u1.id, domain.RoomID(chat.ID))
	ctl.Hub.Registry.Join(u2.id, domain.RoomID(chat.ID))

	ctl.handleEvent(ctx, u2, inbound(t, "addReaction", map[string]any{
		"messageId": string(msg.ID),
		"reaction":  map[string]string{"from": "u2", "emoji": "🔥"},
	}))

	// Addressed by the message's chat room, so members who joined the
	// chat actually receive it.
	for _, c := range []*wsConn{u1, u2} {
		events := drain(c)
		req.Equal([]string{"reactionAdded"}, eventNames(events))
	}

	got, err := mem.GetMessageByID(ctx, msg.ID)
	req.NoError(err)
	req.Equal([]domain.Reaction{{From: "u2", Emoji: "🔥"}}, got.Reactions)
}

func TestDeleteMessage_BroadcastsToChatRoom(t *testing.T) {
	req := require.New(t)
	ctl, mem := newTestController(t)
	ctx := context.Background()
	chat := seedChat(t, mem, "u1", "u2")
	msg, err := mem.CreateMessage(ctx, domain.Message{ChatID: chat.ID, From: "u1", Body: "hi"})
	req.NoError(err)

	u1 := connect(t, ctl, "u1")
	u2 := connect(t, ctl, "u2")
	ctl.Hub.Registry.Join(u1.id, domain.RoomID(chat.ID))
	ctl.Hub.Registry.Join(u2.id, domain.RoomID(chat.ID))

	ctl.handleEvent(ctx, u1, inbound(t, "deleteMessage", map[string]any{"messageId": string(msg.ID)}))

	req.Equal([]string{"messageDeleted"}, eventNames(drain(u2)))
	_, err = mem.GetMessageByID(ctx, msg.ID)
	req.Error(err)
}

func TestReadMessage_BroadcastsReceiptToChatRoom(t *testing.T) {
	req := require.New(t)
	ctl, mem := newTestController(t)
	ctx := context.Background()
	chat := seedChat(t, mem, "u1", "u2")
	msg, err := mem.CreateMessage(ctx, domain.Message{ChatID: chat.ID, From: "u1", Body: "hi"})
	req.NoError(err)

	u1 := connect(t, ctl, "u1")
	u2 := connect(t, ctl, "u2")
	ctl.Hub.Registry.Join(u1.id, domain.RoomID(chat.ID))
	ctl.Hub.Registry.Join(u2.id, domain.RoomID(chat.ID))

	ctl.handleEvent(ctx, u2, inbound(t, "readMessage", map[string]any{
		"messageId": string(msg.ID),
		"userId":    "u2",
		"chatId":    string(chat.ID),
	}))

	req.Equal([]string{"messageRead"}, eventNames(drain(u1)))
	got, err := mem.GetMessageByID(ctx, msg.ID)
	req.NoError(err)
	req.Equal([]domain.UserID{"u2"}, got.ReadBy)
}

func TestUserTyping_ExcludesSenderPersistsNothing(t *testing.T) {
	req := require.New(t)
	ctl, _ := newTestController(t)
	ctx := context.Background()

	u1 := connect(t, ctl, "u1")
	u2 := connect(t, ctl, "u2")
	ctl.Hub.Registry.Join(u1.id, "c1")
	ctl.Hub.Registry.Join(u2.id, "c1")

	ctl.handleEvent(ctx, u1, inbound(t, "userTyping", map[string]any{"chatId": "c1", "userId": "u1"}))

	req.Empty(drain(u1))
	req.Equal([]string{"userTyping"}, eventNames(drain(u2)))
}

func TestLeaveChat_StopsDelivery(t *testing.T) {
	req := require.New(t)
	ctl, _ := newTestController(t)
	ctx := context.Background()

	u1 := connect(t, ctl, "u1")
	ctl.Hub.Registry.Join(u1.id, "c1")

	ctl.handleEvent(ctx, u1, inbound(t, "leaveChat", map[string]any{"chatId": "c1"}))
	req.Equal([]string{"leftChat"}, eventNames(drain(u1)))

	ctl.Hub.Emit("c1", "probe", nil)
	req.Empty(drain(u1))
}

func TestCreateChat_NotifiesLiveParticipants(t *testing.T) {
	req := require.New(t)
	ctl, _ := newTestController(t)
	ctx := context.Background()

	u1 := connect(t, ctl, "u1")
	u2 := connect(t, ctl, "u2")

	ctl.handleEvent(ctx, u1, inbound(t, "createChat", map[string]any{
		"chatType":     "private",
		"participants": []string{"u1", "u2"},
	}))

	u1Events := drain(u1)
	req.Equal([]string{"chatCreated"}, eventNames(u1Events))
	req.Equal([]string{"chatCreated"}, eventNames(drain(u2)))

	var created domain.Chat
	req.NoError(json.Unmarshal(u1Events[0].Data, &created))
	req.NotEmpty(created.ID)
	// Creator is already in the new chat's room.
	ctl.Hub.Emit(domain.RoomID(created.ID), "probe", nil)
	req.Equal([]string{"probe"}, eventNames(drain(u1)))
}

func TestGetUnreadMessages_Unicast(t *testing.T) {
	req := require.New(t)
	ctl, mem := newTestController(t)
	ctx := context.Background()
	chat := seedChat(t, mem, "u1", "u2")
	_, err := mem.CreateMessage(ctx, domain.Message{ChatID: chat.ID, From: "u1", Body: "unseen"})
	req.NoError(err)

	u2 := connect(t, ctl, "u2")
	ctl.handleEvent(ctx, u2, inbound(t, "getUnreadMessages", map[string]any{"userId": "u2"}))

	events := drain(u2)
	req.Equal([]string{"unreadMessages"}, eventNames(events))
	var msgs []domain.Message
	req.NoError(json.Unmarshal(events[0].Data, &msgs))
	req.Len(msgs, 1)
	req.Equal("unseen", msgs[0].Body)
}

func TestGetChats_MarksOnlineParticipants(t *testing.T) {
	req := require.New(t)
	ctl, mem := newTestController(t)
	ctx := context.Background()
	seedChat(t, mem, "u1", "u2", "u3")

	u1 := connect(t, ctl, "u1")
	connect(t, ctl, "u2")
	// u3 never connects.

	ctl.handleEvent(ctx, u1, inbound(t, "getChats", map[string]any{"userId": "u1"}))

	events := drain(u1)
	req.Equal([]string{"chats"}, eventNames(events))
	var chats []domain.ChatSummary
	req.NoError(json.Unmarshal(events[0].Data, &chats))
	req.Len(chats, 1)
	// The requester is not listed, only the other live participant.
	req.Equal([]domain.UserID{"u2"}, chats[0].Online)
}

func TestMalformedAndUnknownEventsReplyError(t *testing.T) {
	req := require.New(t)
	ctl, _ := newTestController(t)
	ctx := context.Background()
	u1 := connect(t, ctl, "u1")

	// Missing required field.
	ctl.handleEvent(ctx, u1, inbound(t, "sendMessage", map[string]any{"from": "u1"}))
	req.Equal([]string{"error"}, eventNames(drain(u1)))

	// Unknown event name.
	ctl.handleEvent(ctx, u1, inbound(t, "selfDestruct", map[string]any{}))
	req.Equal([]string{"error"}, eventNames(drain(u1)))

	// Broken JSON.
	ctl.handleEvent(ctx, u1, []byte("{nope"))
	req.Equal([]string{"error"}, eventNames(drain(u1)))
}
