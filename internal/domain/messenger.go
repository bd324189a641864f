package domain

import "context"

// Messenger delivers messages to the chat platform. Delivery failures are
// loggable-and-drop for the caller: there is no retry loop in this service.
type Messenger interface {
	SendDirectMessage(ctx context.Context, recipientID, content string) error
	PostChannelMessage(ctx context.Context, channelID, content string) error
}
