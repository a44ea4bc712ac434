// Package ui implements the interactive chat front end using bubbletea's Elm architecture.
//
// The screen is split in three:
//  1. a scrolling transcript ([viewport]) of the conversation so far
//  2. a candidate list, shown while the agent is waiting for a choice
//  3. the message input, with a spinner while a turn is in flight
//
// The [Model] implements bubbletea's Init/Update/View pattern. Every turn runs as a [tea.Cmd] against a
// [Conversation] and comes back as a [Msg]; the model never blocks inside Update.
//
// Tab moves focus between the input and the candidate list; enter sends the message or picks the highlighted
// candidate. Typing something else while candidates are open abandons the choice, the same as in any other
// transport.
//
// [RunPlain] is a line-oriented fallback for terminals and pipes where a full-screen program is not wanted.
package ui
