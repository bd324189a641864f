package domain

// Event is one observed chat-platform message, delivered to the webhook
// endpoint. It is owned by the single pipeline run that processes it and is
// never persisted beyond its dedup key.
type Event struct {
	EventType   string `json:"event_type"`
	MessageID   string `json:"message_id"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name,omitempty"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"` // opaque, never parsed
}

// Channel returns the display name of the originating channel,
// falling back to the raw channel id.
func (e Event) Channel() string {
	if e.ChannelName != "" {
		return e.ChannelName
	}
	return e.ChannelID
}
