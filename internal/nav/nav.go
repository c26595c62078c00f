// Package nav is the navigation service screens use to move between routes.
package nav

import (
	"errors"
	"fmt"
)

const (
	RouteHome       = "Home"
	RouteNewsDetail = "NewsDetail"
)

var ErrUnknownRoute = errors.New("unknown route")

type Params map[string]any

type Route struct {
	Name   string
	Params Params
}

// Navigator keeps a stack of routes. The root route is never popped.
type Navigator struct {
	known map[string]bool
	stack []Route
}

// New returns a navigator positioned on root. root is registered implicitly.
func New(root string, routes ...string) *Navigator {
	n := &Navigator{known: map[string]bool{root: true}}
	for _, r := range routes {
		n.known[r] = true
	}
	n.stack = []Route{{Name: root}}
	return n
}

// Navigate pushes name with params. Params are passed through unvalidated.
func (n *Navigator) Navigate(name string, params Params) error {
	if !n.known[name] {
		return fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	n.stack = append(n.stack, Route{Name: name, Params: params})
	return nil
}

// Back pops the current route. It reports false when already at the root.
func (n *Navigator) Back() bool {
	if len(n.stack) <= 1 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

func (n *Navigator) Current() Route {
	return n.stack[len(n.stack)-1]
}

func (n *Navigator) Depth() int {
	return len(n.stack)
}
