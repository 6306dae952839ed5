package main

import "fmt"

// Command represents an external side effect to be executed by the daemon loop.
type Command interface {
	commandMarker()
	String() string
}

// CmdRunSequence starts a choreography on the sequencer.
type CmdRunSequence struct {
	Sequence Sequence
}

func (CmdRunSequence) commandMarker()   {}
func (c CmdRunSequence) String() string { return "CmdRunSequence(" + c.Sequence.String() + ")" }

// CmdPublishStateSnapshot delivers a snapshot to a requester.
type CmdPublishStateSnapshot struct {
	Reply    chan<- StateSnapshot
	Snapshot StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (c CmdPublishStateSnapshot) String() string {
	return fmt.Sprintf("CmdPublishStateSnapshot(view=%s)", c.Snapshot.View)
}

// CmdPersistSettings writes user settings back to the settings file.
type CmdPersistSettings struct {
	Settings Settings
}

func (CmdPersistSettings) commandMarker() {}
func (c CmdPersistSettings) String() string {
	return fmt.Sprintf("CmdPersistSettings(prevent_intro_return=%v)", c.Settings.PreventIntroReturn)
}
