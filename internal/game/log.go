package game

// MessageLog is a bounded log of player-facing messages. When full, the
// oldest message is dropped.
type MessageLog struct {
	messages []string
	size     int
}

// NewMessageLog creates a log holding at most size messages.
func NewMessageLog(size int) *MessageLog {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &MessageLog{messages: make([]string, 0, size), size: size}
}

// Add appends a message.
func (l *MessageLog) Add(msg string) {
	if len(l.messages) == l.size {
		copy(l.messages, l.messages[1:])
		l.messages = l.messages[:l.size-1]
	}
	l.messages = append(l.messages, msg)
}

// Messages returns the messages oldest first.
func (l *MessageLog) Messages() []string {
	return append([]string(nil), l.messages...)
}

// Last returns the newest message, or "".
func (l *MessageLog) Last() string {
	if len(l.messages) == 0 {
		return ""
	}
	return l.messages[len(l.messages)-1]
}
