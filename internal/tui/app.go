package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/newsreel/newsreel/internal/browser"
	"github.com/newsreel/newsreel/internal/nav"
	"github.com/newsreel/newsreel/internal/store"
)

// screen is one route on the navigation stack.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screen, tea.Cmd)
	View(width, height int) string
}

// Dispatcher is the part of the store the screens use.
type Dispatcher interface {
	Dispatch(ctx context.Context, a store.Action) error
	State() store.State
}

type App struct {
	ctx       context.Context
	store     Dispatcher
	nav       *nav.Navigator
	log       *slog.Logger
	threshold float64
	openURL   func(url string) error

	// screens mirrors the navigator's route stack.
	screens []screen

	width  int
	height int
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Ctx          context.Context
	Store        *store.Store
	Log          *slog.Logger
	EndThreshold float64
}

func NewApp(ctx context.Context, d Dispatcher, log *slog.Logger, threshold float64) *App {
	a := &App{
		ctx:       ctx,
		store:     d,
		nav:       nav.New(nav.RouteHome, nav.RouteNewsDetail),
		log:       log,
		threshold: threshold,
		openURL:   browser.Open,
	}
	a.screens = []screen{newHomeScreen(a.dispatchCmd, a.navigateCmd, threshold)}
	return a
}

// dispatchCmd runs a through the store off the UI loop. The new state
// arrives separately through the store subscription.
func (a *App) dispatchCmd(action store.Action) tea.Cmd {
	d, ctx := a.store, a.ctx
	return func() tea.Msg {
		return dispatchDoneMsg{action: action, err: d.Dispatch(ctx, action)}
	}
}

func (a *App) navigateCmd(route string, params nav.Params) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{route: route, params: params}
	}
}

func (a *App) openCmd(url string) tea.Cmd {
	open := a.openURL
	return func() tea.Msg {
		if err := open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (a *App) top() screen {
	return a.screens[len(a.screens)-1]
}

func (a *App) Init() tea.Cmd {
	return a.top().Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, a.broadcast(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.updateTop(msg)

	case navigateMsg:
		return a, a.push(msg.route, msg.params)

	case backMsg:
		if a.nav.Back() {
			a.screens = a.screens[:len(a.screens)-1]
		}
		return a, nil

	case dispatchDoneMsg:
		if msg.err != nil {
			a.log.ErrorContext(a.ctx, "Dispatch failed", "action", msg.action.Type(), "error", msg.err)
		}
		return a, a.broadcast(msg)

	case openErrMsg:
		a.log.WarnContext(a.ctx, "Failed to open browser", "error", msg.err)
		return a, a.updateTop(msg)

	case stateMsg, spinner.TickMsg:
		// Screens below the top keep tracking state so they are current
		// when the user navigates back.
		return a, a.broadcast(msg)
	}

	return a, a.updateTop(msg)
}

func (a *App) push(route string, params nav.Params) tea.Cmd {
	if err := a.nav.Navigate(route, params); err != nil {
		a.log.ErrorContext(a.ctx, "Navigation failed", "route", route, "error", err)
		return nil
	}
	a.log.DebugContext(a.ctx, "Navigated", "route", route, "depth", a.nav.Depth())

	s := a.screenFor(route, params)
	a.screens = append(a.screens, s)
	return s.Init()
}

func (a *App) screenFor(route string, params nav.Params) screen {
	switch route {
	case nav.RouteNewsDetail:
		return newDetailScreen(params, a.store.State().News.Pinned, a.dispatchCmd, a.openCmd)
	default:
		return newHomeScreen(a.dispatchCmd, a.navigateCmd, a.threshold)
	}
}

func (a *App) updateTop(msg tea.Msg) tea.Cmd {
	i := len(a.screens) - 1
	var cmd tea.Cmd
	a.screens[i], cmd = a.screens[i].Update(msg)
	return cmd
}

func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.screens))
	for i := range a.screens {
		var cmd tea.Cmd
		a.screens[i], cmd = a.screens[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  newsreel")
	}
	return a.top().View(a.width, a.height)
}

// Run starts the TUI application and blocks until it exits.
func Run(opts RunOpts) error {
	app := NewApp(opts.Ctx, opts.Store, opts.Log, opts.EndThreshold)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(opts.Ctx))

	unsubscribe := opts.Store.Subscribe(func(s store.State) {
		p.Send(stateMsg{state: s})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
