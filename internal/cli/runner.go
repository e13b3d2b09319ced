package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Runner dispatches subcommands against the todo orchestrator.
type Runner struct {
	App   *todos.Todos
	Print *ui.Printer
	// Group lists items grouped by pending/done.
	Group bool
	// Raw returns the stored blob for `check`.
	Raw func(ctx context.Context) ([]byte, error)
	// TUI runs the interactive list for `tui`.
	TUI func(ctx context.Context) error
}

// Run returns an exit code (0 ok, 1 error, 2 usage).
func (r *Runner) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		r.PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		r.PrintHelp()
		return 0

	case "ls":
		return r.doList(ctx)

	case "add":
		if len(a) == 0 {
			r.Print.Fail("usage: todo add <title...>")
			return 2
		}
		return r.doAdd(ctx, strings.Join(a, " "))

	case "done":
		if len(a) != 1 {
			r.Print.Fail("usage: todo done <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			r.Print.Fail("done: not a number: " + a[0])
			return 2
		}
		return r.doToggle(ctx, n)

	case "edit":
		if len(a) < 2 {
			r.Print.Fail("usage: todo edit <index> <title...>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			r.Print.Fail("edit: not a number: " + a[0])
			return 2
		}
		return r.doEdit(ctx, n, strings.Join(a[1:], " "))

	case "rm":
		if len(a) != 1 {
			r.Print.Fail("usage: todo rm <index>")
			return 2
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			r.Print.Fail("rm: not a number: " + a[0])
			return 2
		}
		return r.doRemove(ctx, n)

	case "check":
		return r.doCheck(ctx)

	case "tui":
		if r.TUI == nil {
			r.Print.Fail("tui: not available")
			return 1
		}
		if err := r.TUI(ctx); err != nil {
			r.Print.Fail("tui: " + err.Error())
			return 1
		}
		return 0
	}

	r.Print.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.Print.Err)
	r.PrintHelp()
	return 2
}

func (r *Runner) PrintHelp() {
	fmt.Fprint(r.Print.Out, `todo - a tiny todo list

Usage:
  todo [flags] <subcommand> [args]

Subcommands:
  add <title...>          Add a new item (title can be multiple words)
  ls                      List items
  done <index>            Toggle done for item at 1-based index
  edit <index> <title...> Rename item at 1-based index
  rm <index>              Remove item at 1-based index
  check                   Validate the stored data
  tui                     Interactive list

Flags:
  -group                  Group ls output by pending/done
  -store file|sqlite|postgres|memory
  -dsn <postgres url>
  -data-dir <dir>
  -latency <ms>
  -theme classic|neon|mono
  -log-level, -log-format, -log-file

Examples:
  todo add "Buy milk"
  todo ls
  todo done 2
  todo rm 3
`)
}

// -------------- subcommand impls ----------------

// load fetches the list into the cache and returns it.
func (r *Runner) load(ctx context.Context) ([]model.Todo, bool) {
	if err := r.App.Fetch(ctx); err != nil {
		r.Print.Fail("load: " + err.Error())
		var perr *jsonstore.ParseError
		if errors.As(err, &perr) {
			r.Print.Hint("Hint: run `todo check` to inspect the stored data")
		}
		return nil, false
	}
	return r.App.State().Data, true
}

// pick resolves a 1-based index against the current list.
func (r *Runner) pick(ctx context.Context, userIndex int) (model.Todo, int) {
	items, ok := r.load(ctx)
	if !ok {
		return model.Todo{}, 1
	}
	if userIndex < 1 || userIndex > len(items) {
		r.Print.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
		r.Print.Hint("Hint: run `todo ls` to see valid indexes")
		return model.Todo{}, 2
	}
	return items[userIndex-1], 0
}

func (r *Runner) dispatch(ctx context.Context, verb string, cmd todos.Command) (todos.Result, int) {
	res, err := r.App.Dispatch(ctx, cmd).Wait(ctx)
	if err != nil {
		if errors.Is(err, todos.ErrEmptyTitle) {
			r.Print.Fail(verb + ": empty title")
			return res, 2
		}
		r.Print.Fail(verb + ": " + err.Error())
		return res, 1
	}
	return res, 0
}

func (r *Runner) doList(ctx context.Context) int {
	items, ok := r.load(ctx)
	if !ok {
		return 1
	}
	t := r.Print.Theme

	// Header + progress
	s := model.Count(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), s.Completed,
		t.Pending.Render(t.SymPending), s.Active,
		t.Accent.Render("Total"), s.Total,
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(s.Completed, s.Total, 28)))
	lines = append(lines, "")

	if r.Group {
		lines = append(lines, groupLines(t, items)...)
	} else {
		lines = append(lines, flatLines(t, items)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `todo add \"Buy milk\"`"))
	r.Print.Panel(lines)
	return 0
}

func (r *Runner) doAdd(ctx context.Context, title string) int {
	res, code := r.dispatch(ctx, "add", todos.CreateCmd{Title: title})
	if code != 0 {
		return code
	}
	r.Print.OK(fmt.Sprintf("added %q", res.Todo.Title))
	return 0
}

func (r *Runner) doToggle(ctx context.Context, userIndex int) int {
	item, code := r.pick(ctx, userIndex)
	if code != 0 {
		return code
	}
	patch := model.SetCompleted(!item.Completed)
	if _, code := r.dispatch(ctx, "done", todos.UpdateCmd{ID: item.ID, Patch: patch}); code != 0 {
		return code
	}
	r.Print.OK("toggled")
	return 0
}

func (r *Runner) doEdit(ctx context.Context, userIndex int, title string) int {
	item, code := r.pick(ctx, userIndex)
	if code != 0 {
		return code
	}
	if _, code := r.dispatch(ctx, "edit", todos.UpdateCmd{ID: item.ID, Patch: model.SetTitle(title)}); code != 0 {
		return code
	}
	r.Print.OK("renamed")
	return 0
}

func (r *Runner) doRemove(ctx context.Context, userIndex int) int {
	item, code := r.pick(ctx, userIndex)
	if code != 0 {
		return code
	}
	if _, code := r.dispatch(ctx, "rm", todos.DeleteCmd{ID: item.ID}); code != 0 {
		return code
	}
	r.Print.OK("removed")
	return 0
}

func (r *Runner) doCheck(ctx context.Context) int {
	if r.Raw == nil {
		r.Print.Fail("check: not available")
		return 1
	}
	raw, err := r.Raw(ctx)
	if err != nil {
		r.Print.Fail("check: " + err.Error())
		return 1
	}
	issues, err := jsonstore.Check(raw)
	if err != nil {
		r.Print.Fail("check: " + err.Error())
		return 1
	}
	if len(issues) == 0 {
		r.Print.OK("stored data is valid")
		return 0
	}
	for _, is := range issues {
		r.Print.Fail(is.String())
	}
	return 1
}

// -------------- rendering helpers --------------

func flatLines(t ui.Theme, items []model.Todo) []string {
	if len(items) == 0 {
		return []string{t.Muted.Render("no items")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", i+1)
		box := t.Muted.Render(t.BoxUnchecked)
		title := truncate(it.Title, 80)
		if it.Completed {
			box = t.Success.Render(t.BoxChecked)
			title = t.Done.Render(title)
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(idx), box, title))
	}
	return out
}

func groupLines(t ui.Theme, items []model.Todo) []string {
	var pend, done []model.Todo
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(t, pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(t, done)...)
	}
	return lines
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
