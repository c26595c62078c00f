package tui

import (
	"github.com/newsreel/newsreel/internal/nav"
	"github.com/newsreel/newsreel/internal/store"
)

// stateMsg delivers a new store snapshot from the subscription.
type stateMsg struct {
	state store.State
}

// dispatchDoneMsg reports that an action's side effects finished. err is nil
// on success.
type dispatchDoneMsg struct {
	action store.Action
	err    error
}

type navigateMsg struct {
	route  string
	params nav.Params
}

type backMsg struct{}

type openErrMsg struct {
	err error
}
