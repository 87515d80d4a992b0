package errors

import (
	"sync"
	"time"
)

// TUIHandler holds the footer notice of the interactive browser. Each
// message gets an increasing ID so a delayed clear can tell whether the
// notice it was scheduled for is still the one on screen.
type TUIHandler struct {
	mu        sync.RWMutex
	latest    Message
	nextID    uint64
	active    bool
	onMessage func(msg Message)
	now       func() time.Time
}

type Message struct {
	ID        uint64
	Text      string
	Type      MessageType
	Timestamp time.Time
}

type MessageType int

const (
	MessageTypeError MessageType = iota
	MessageTypeWarning
	MessageTypeInfo
	MessageTypeSuccess
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeError:
		return "error"
	case MessageTypeWarning:
		return "warning"
	case MessageTypeSuccess:
		return "success"
	default:
		return "info"
	}
}

// NewTUIHandler creates a handler; onMessage may be nil.
func NewTUIHandler(onMessage func(msg Message)) *TUIHandler {
	return &TUIHandler{onMessage: onMessage, now: time.Now}
}

func (h *TUIHandler) Error(msg string)   { h.addMessage(msg, MessageTypeError) }
func (h *TUIHandler) Warning(msg string) { h.addMessage(msg, MessageTypeWarning) }
func (h *TUIHandler) Info(msg string)    { h.addMessage(msg, MessageTypeInfo) }
func (h *TUIHandler) Success(msg string) { h.addMessage(msg, MessageTypeSuccess) }

func (h *TUIHandler) addMessage(text string, msgType MessageType) {
	h.mu.Lock()
	h.nextID++
	message := Message{ID: h.nextID, Text: text, Type: msgType, Timestamp: h.now()}
	h.latest = message
	h.active = true
	callback := h.onMessage
	h.mu.Unlock()

	if callback != nil {
		callback(message)
	}
}

// Active returns the message currently shown, if any.
func (h *TUIHandler) Active() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.active {
		return Message{}, false
	}
	return h.latest, true
}

// Dismiss hides the active message. With a non-zero id it only hides the
// message with that id and reports whether anything changed.
func (h *TUIHandler) Dismiss(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return false
	}
	if id != 0 && h.latest.ID != id {
		return false
	}
	h.active = false
	return true
}
