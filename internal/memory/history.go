package memory

// TrimHistory bounds a conversation to at most maxMessages non-system
// messages, keeping the most recent ones in original relative order. System
// messages are always retained regardless of the limit.
func TrimHistory(messages []Message, maxMessages int) []Message {
	if len(messages) <= maxMessages {
		return messages
	}

	var system, rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
		}
	}

	if len(rest) > maxMessages {
		rest = rest[len(rest)-maxMessages:]
	}
	return append(system, rest...)
}

// RecentMessages returns the last count messages.
func RecentMessages(messages []Message, count int) []Message {
	if count >= len(messages) {
		return messages
	}
	return messages[len(messages)-count:]
}
