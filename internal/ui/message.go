package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/musicagent/internal/agent"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgReply MsgKind = iota
	MsgCancelled
)

// replyMsg is the constructor for [MsgReply]
func replyMsg(resp agent.Response) Msg {
	return Msg{kind: MsgReply, data: resp}
}

// cancelledMsg is the constructor for [MsgCancelled], sent when the context ends during a turn.
func cancelledMsg() Msg {
	return Msg{kind: MsgCancelled}
}
