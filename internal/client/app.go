package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/sessions"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }

// App is the interactive terminal client. Every input line counts as user
// activity for the inactivity monitor.
type App struct {
	api   *Client
	in    *bufio.Scanner
	clock sessions.Clock
	opts  sessions.Options

	outMu sync.Mutex
	out   io.Writer

	monMu   sync.Mutex
	monitor *sessions.Monitor
}

func NewApp(api *Client, in io.Reader, out io.Writer, clock sessions.Clock) *App {
	return &App{api: api, in: bufio.NewScanner(in), out: out, clock: clock}
}

// SetTimeouts overrides the idle and grace periods of future sessions.
func (a *App) SetTimeouts(idle, grace time.Duration) {
	a.opts.Idle = idle
	a.opts.Grace = grace
}

func (a *App) printf(format string, v ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, v...)
}

func (a *App) prompt(label string) (string, bool) {
	a.printf("%s: ", label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *App) current() *sessions.Monitor {
	a.monMu.Lock()
	defer a.monMu.Unlock()
	return a.monitor
}

func (a *App) startMonitor() {
	opts := a.opts
	opts.OnWarning = func(deadline time.Time) {
		a.printf("\nNo activity for a while. Your session ends at %s. Type 'yes' to stay signed in.\n", deadline.Format("15:04:05"))
	}
	opts.OnExpire = func() {
		a.api.Clear()
		a.printf("\nSession expired. Please log in again.\n")
	}
	m := sessions.NewMonitor(a.clock, opts)
	a.monMu.Lock()
	old := a.monitor
	a.monitor = m
	a.monMu.Unlock()
	if old != nil {
		old.Stop()
	}
}

func (a *App) stopMonitor() {
	a.monMu.Lock()
	m := a.monitor
	a.monitor = nil
	a.monMu.Unlock()
	if m != nil {
		m.Stop()
	}
}

// Run reads commands until EOF or exit.
func (a *App) Run(ctx context.Context) error {
	defer a.stopMonitor()
	a.printf("carelink client. Type 'help' for commands.\n")
	for {
		a.printf("> ")
		if !a.in.Scan() {
			return a.in.Err()
		}
		if m := a.current(); m != nil {
			m.Activity()
		}
		fields := strings.Fields(a.in.Text())
		if len(fields) == 0 {
			continue
		}
		switch cmd := fields[0]; cmd {
		case "help":
			a.printf("commands: login, me, patients, beds, notifications, logout, exit\n")
		case "yes":
		case "login":
			a.login(ctx)
		case "me":
			a.show(ctx, "/auth/me")
		case "patients":
			a.show(ctx, "/api/patients")
		case "beds":
			a.show(ctx, "/api/beds")
		case "notifications":
			s := a.api.Session()
			if s == nil {
				a.printf("not logged in\n")
				continue
			}
			a.show(ctx, "/api/notifications/role/"+s.User.Role)
		case "logout":
			a.stopMonitor()
			a.api.Clear()
			a.printf("logged out\n")
		case "exit", "quit":
			a.printf("Bye!\n")
			return nil
		default:
			a.printf("unknown command: %s\n", cmd)
		}
	}
}

func (a *App) login(ctx context.Context) {
	username, ok := a.prompt("username")
	if !ok {
		return
	}
	emp, ok := a.prompt("employee id (optional)")
	if !ok {
		return
	}
	a.printf("password: ")
	pw, err := readPassword()
	a.printf("\n")
	if err != nil {
		a.printf("cannot read password: %v\n", err)
		return
	}
	res, err := a.api.Login(ctx, username, string(pw), emp)
	for i := range pw {
		pw[i] = 0
	}
	if err != nil {
		if errors.Is(err, apperr.ErrAuthentication) {
			a.printf("login failed: invalid credentials\n")
		} else {
			a.printf("login failed: %v\n", err)
		}
		return
	}
	a.startMonitor()
	a.printf("welcome %s (%s)\n", res.User.Name, res.User.Role)
}

func (a *App) show(ctx context.Context, path string) {
	if a.api.Session() == nil {
		a.printf("not logged in\n")
		return
	}
	var v any
	if err := a.api.Get(ctx, path, &v); err != nil {
		a.printf("error: %v\n", err)
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	a.printf("%s\n", b)
}
