package domain

// RoomID names a broadcast group. Chat rooms reuse the chat id,
// voice rooms carry their own ephemeral id.
type RoomID string
