package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rubrical-studios/gh-gfi/internal/api"
	"github.com/rubrical-studios/gh-gfi/internal/feed"
	"github.com/rubrical-studios/gh-gfi/internal/filter"
	"github.com/rubrical-studios/gh-gfi/internal/ui"
)

// feedController is the part of feed.Controller the session drives
type feedController interface {
	Submit(spec filter.Spec) bool
	LoadMore() bool
	Retry() bool
	Snapshot() feed.Snapshot
}

// changeSignal coalesces controller notifications. The session reads the
// current snapshot when signalled, so a missed intermediate state is fine.
type changeSignal struct {
	c chan struct{}
}

func newChangeSignal() *changeSignal {
	return &changeSignal{c: make(chan struct{}, 1)}
}

func (s *changeSignal) notify(feed.Snapshot) {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

const sessionHelp = `Commands:
  d <tier>       toggle difficulty (beginner, easy, medium, hard, expert)
  l <language>   toggle language
  t <range>      toggle time range (0-1, 1-3, 3-8, 8+)
  f [text]       set the text filter (empty clears it)
  s <order>      sort by natural, newest, oldest, difficulty or popularity
  c              clear all filters
  m              load the next page
  r              retry the current filter
  p              print the current results again
  o <n>          open result n in the browser
  h              show this help
  quit           exit`

// session renders controller state for a line-oriented terminal
type session struct {
	ctrl   feedController
	spec   filter.Spec
	out    ui.Output
	errOut io.Writer
	open   func(string) error

	renderedKey string
	rendered    int // accumulated issues already evaluated
	shown       []api.Issue
	lastState   feed.State
}

func newSession(ctrl feedController, spec filter.Spec, out ui.Output, errOut io.Writer, open func(string) error) *session {
	return &session{
		ctrl:   ctrl,
		spec:   spec,
		out:    out,
		errOut: errOut,
		open:   open,
	}
}

// run processes input lines and controller events until quit, end of input
// with the controller idle, or ctx cancellation
func (s *session) run(ctx context.Context, in io.Reader, changes <-chan struct{}, errs <-chan error) error {
	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	eof := false
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				eof = true
				lines = nil
				break
			}
			if s.handle(line) {
				return nil
			}
		case <-changes:
			s.onSnapshot(s.ctrl.Snapshot())
		case err := <-errs:
			s.onError(err)
		case <-ctx.Done():
			return ctx.Err()
		}

		if eof && s.ctrl.Snapshot().State == feed.StateIdle {
			s.drainErrors(errs)
			s.onSnapshot(s.ctrl.Snapshot())
			return nil
		}
	}
}

// handle executes one command line and reports whether the session should end
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(verb) {
	case "quit", "exit", ":q":
		return true
	case "h", "help", "?":
		s.printHelp()
	case "d", "difficulty":
		d, ok := api.ParseDifficulty(arg)
		if !ok {
			s.warnf("unknown difficulty %q", arg)
			return false
		}
		s.update(s.spec.ToggleDifficulty(d))
	case "l", "language":
		if arg == "" {
			s.warnf("usage: l <language>")
			return false
		}
		s.update(s.spec.ToggleLanguage(arg))
	case "t", "time":
		b, ok := filter.ParseBucket(arg)
		if !ok {
			s.warnf("unknown time range %q", arg)
			return false
		}
		s.update(s.spec.ToggleBucket(b))
	case "f", "find":
		s.update(s.spec.WithQuery(arg))
	case "s", "sort":
		key, ok := filter.ParseSortKey(arg)
		if !ok {
			s.warnf("unknown sort order %q", arg)
			return false
		}
		s.update(s.spec.WithSort(key))
	case "c", "clear":
		s.update(s.spec.Cleared())
	case "m", "more":
		if !s.ctrl.LoadMore() {
			s.explainLoadMore()
		}
	case "r", "retry":
		if !s.ctrl.Retry() {
			s.warnf("a request is already in progress")
			return false
		}
		s.renderedKey = ""
	case "p", "print":
		s.renderedKey = ""
		s.onSnapshot(s.ctrl.Snapshot())
	case "o", "open":
		s.openResult(arg)
	default:
		s.warnf("unknown command %q, type h for help", verb)
	}
	return false
}

func (s *session) update(next filter.Spec) {
	if next.Equal(s.spec) {
		s.warnf("filter unchanged")
		return
	}
	s.spec = next
	s.ctrl.Submit(next)
	fmt.Fprintln(s.errOut, ui.Muted("Filter "+next.Key(), s.out.Color))
}

func (s *session) explainLoadMore() {
	snap := s.ctrl.Snapshot()
	switch {
	case snap.State != feed.StateIdle:
		s.warnf("wait for the current request to finish")
	case !snap.HasPage:
		s.warnf("nothing loaded yet, type r to retry")
	default:
		s.warnf("no more pages")
	}
}

func (s *session) openResult(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.shown) {
		s.warnf("no result %q", arg)
		return
	}
	if err := s.open(s.shown[n-1].URL); err != nil {
		s.warnf("%v", err)
	}
}

// onSnapshot prints results that arrived since the last render. Pages are
// evaluated one at a time so earlier rows keep their numbers.
func (s *session) onSnapshot(snap feed.Snapshot) {
	if snap.State == feed.StateInFlight && s.lastState != feed.StateInFlight {
		fmt.Fprintln(s.errOut, ui.Muted("Loading...", s.out.Color))
	}
	s.lastState = snap.State

	if snap.State != feed.StateIdle || !snap.HasPage {
		return
	}

	key := snap.Spec.Key()
	newFilter := key != s.renderedKey || len(snap.Issues) < s.rendered
	if !newFilter && len(snap.Issues) == s.rendered {
		return
	}
	if newFilter {
		s.renderedKey = key
		s.rendered = 0
		s.shown = nil
		fmt.Fprintln(s.out.W, ui.Heading("Filter "+key, s.out.Color))
	}

	fresh := filter.EvaluateSlice(snap.Spec, snap.Issues[s.rendered:])
	s.rendered = len(snap.Issues)

	switch {
	case len(fresh) > 0:
		start := len(s.shown) + 1
		s.shown = append(s.shown, fresh...)
		if err := ui.RenderIssues(s.out, fresh, start); err != nil {
			s.warnf("failed to render issues: %v", err)
		}
	case len(s.shown) == 0:
		fmt.Fprintln(s.out.W, "No issues match the current filters.")
	default:
		fmt.Fprintln(s.out.W, "No further matches on this page.")
	}

	if snap.CanLoadMore {
		fmt.Fprintln(s.errOut, ui.Muted(fmt.Sprintf("%d of %d loaded, type m for more",
			len(snap.Issues), snap.PageInfo.TotalElements), s.out.Color))
	}
}

func (s *session) onError(err error) {
	fmt.Fprintf(s.errOut, "Error: %s\nType r to retry.\n", api.UserMessage(err))
}

func (s *session) drainErrors(errs <-chan error) {
	for {
		select {
		case err := <-errs:
			s.onError(err)
		default:
			return
		}
	}
}

func (s *session) printHelp() {
	fmt.Fprintln(s.errOut, sessionHelp)
}

func (s *session) warnf(format string, args ...interface{}) {
	fmt.Fprintf(s.errOut, format+"\n", args...)
}
