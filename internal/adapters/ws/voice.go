package ws

import (
	"tunelink/internal/core"
	"tunelink/internal/domain"
)

func coreID(u domain.UserID) core.ConnID { return core.ConnID(u) }

func (ctl *Controller) handleJoinRoom(c *wsConn, data []byte) {
	var p joinRoomPayload
	if !ctl.decode(c, "joinRoom", data, &p) {
		return
	}
	room := domain.RoomID(p.RoomID)

	user, err := domain.NormalizeUser(p.User, domain.UserID(c.id))
	if err != nil {
		ctl.Hub.Error(c.id, "invalid joinRoom payload: "+err.Error())
		return
	}

	ctl.Hub.Registry.Join(c.id, room)
	// Rejoin after reconnect replaces the old entry rather than
	// duplicating the identity in the participant list.
	ctl.Hub.Presence.Join(room, domain.Participant{User: user, PeerID: p.PeerID})

	ctl.Hub.Emit(room, "userJoined", map[string]any{
		"peerId": p.PeerID,
		"user":   user,
	})
}

func (ctl *Controller) handleGetRoomParticipants(c *wsConn, data []byte) {
	var p roomPayload
	if !ctl.decode(c, "getRoomParticipants", data, &p) {
		return
	}
	room := domain.RoomID(p.RoomID)
	ctl.Hub.Emit(room, "roomParticipants", ctl.Hub.Presence.Participants(room))
}

func (ctl *Controller) handleLeaveRoom(c *wsConn, data []byte) {
	var p leaveRoomPayload
	if !ctl.decode(c, "leaveRoom", data, &p) {
		return
	}
	room := domain.RoomID(p.RoomID)
	user := domain.UserID(p.UserID)

	ctl.Hub.Registry.Leave(coreID(user), room)
	ctl.Hub.Presence.Leave(room, user)

	// The leaver is already out of the room, so only the remaining
	// members hear about it.
	ctl.Hub.Emit(room, "user-disconnected", map[string]any{"userId": user})
}

func (ctl *Controller) handleUserSpeaking(c *wsConn, data []byte) {
	var p speakingPayload
	if !ctl.decode(c, "userSpeaking", data, &p) {
		return
	}
	ctl.Hub.Emit(domain.RoomID(p.RoomID), "userSpeaking", map[string]any{
		"userId":   p.UserID,
		"speaking": p.Speaking,
	}, c.id)
}

func (ctl *Controller) handleEmojiReaction(c *wsConn, data []byte) {
	var p emojiPayload
	if !ctl.decode(c, "emojiReaction", data, &p) {
		return
	}
	// Sender included: everyone in the room sees the emoji, the
	// sender's client renders it from the broadcast too.
	ctl.Hub.Emit(domain.RoomID(p.RoomID), "emojiReaction", map[string]any{
		"userId": p.UserID,
		"emoji":  p.Emoji,
	})
}

func (ctl *Controller) handlePassSpeaking(c *wsConn, data []byte) {
	var p passSpeakingPayload
	if !ctl.decode(c, "passSpeaking", data, &p) {
		return
	}
	ctl.Hub.Emit(domain.RoomID(p.RoomID), "passSpeaking", map[string]any{
		"userId": p.UserID,
	}, c.id)
}
