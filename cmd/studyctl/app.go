package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/model"
	"github.com/and161185/studydeck/internal/store"
)

// app renders store state and turns parsed commands into dispatched actions.
// It reads only through Select and writes only through Dispatch.
type app struct {
	st      *store.Store
	timeout time.Duration

	mu  sync.Mutex // serialises output from the REPL and session callbacks
	out io.Writer
}

func newApp(st *store.Store, out io.Writer, timeout time.Duration) *app {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &app{st: st, out: out, timeout: timeout}
}

func (a *app) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.out.Write(p)
}

func (a *app) printf(format string, args ...any) { fmt.Fprintf(a, format, args...) }

func (a *app) session() *model.Session {
	v, _ := a.st.Select("auth.session")
	s, _ := v.(*model.Session)
	return s
}

// watch reports session starts and ends, including ones the user did not type,
// such as an expired token.
func (a *app) watch() (unsubscribe func()) {
	var mu sync.Mutex
	last := ""
	if s := a.session(); s != nil {
		last = s.UserID
	}
	return a.st.Subscribe(func() {
		s := a.session()
		cur := ""
		if s != nil {
			cur = s.UserID
		}
		mu.Lock()
		changed := cur != last
		last = cur
		mu.Unlock()
		if !changed {
			return
		}
		if s == nil {
			a.printf("signed out\n")
			return
		}
		a.printf("signed in as %s <%s>\n", s.DisplayName, s.Email)
	})
}

func (a *app) prompt() string {
	if s := a.session(); s != nil {
		return fmt.Sprintf("studydeck(%s)> ", s.Email)
	}
	return "studydeck> "
}

// errAt returns the error message kept in the state at path.
func (a *app) errAt(path string) string {
	v, _ := a.st.Select(path)
	switch s := v.(type) {
	case string:
		return s
	case store.SliceState[model.Note]:
		return s.Err
	case store.SliceState[model.Flashcard]:
		return s.Err
	case store.ProfileState:
		return s.Err
	}
	return ""
}

// do dispatches an action and prints the error kept under path on failure.
func (a *app) do(ctx context.Context, path, action string, payload any) bool {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	err := a.st.Dispatch(ctx, action, payload)
	if err == nil {
		return true
	}
	msg := a.errAt(path)
	if msg == "" {
		msg = errs.Message(err)
	}
	a.printf("error: %s\n", msg)
	return false
}

func (a *app) notes() []model.Note {
	v, _ := a.st.Select("notes.items")
	items, _ := v.([]model.Note)
	return items
}

func (a *app) cards() []model.Flashcard {
	v, _ := a.st.Select("flashcards.items")
	items, _ := v.([]model.Flashcard)
	return items
}

func setLabel(title string) string {
	if title == "" {
		return store.UntitledSet
	}
	return title
}

func (a *app) printNoteLine(n model.Note) { a.printf("%s  %s\n", n.ID, n.Title) }

func (a *app) printCardLine(c model.Flashcard) {
	a.printf("%s  [%s] %s\n", c.ID, setLabel(c.SetTitle), c.Question)
}

// exec runs one parsed command and reports whether the REPL should stop.
func (a *app) exec(ctx context.Context, opts docopt.Opts) (quit bool) {
	is := func(cmd string) bool {
		ok, _ := opts.Bool(cmd)
		return ok
	}
	arg := func(name string) string {
		s, _ := opts.String(name)
		return s
	}

	switch {
	case is("exit"), is("quit"):
		return true
	case is("help"):
		a.printf("%s", usage)

	case is("register"):
		pw, err := promptPassword(a, "Password")
		if err != nil {
			a.printf("error: %v\n", err)
			return false
		}
		a.do(ctx, "auth.error", store.ActionRegister, store.RegisterPayload{
			Name: arg("<name>"), Email: arg("<email>"), Password: pw,
		})
	case is("login"):
		pw, err := promptPassword(a, "Password")
		if err != nil {
			a.printf("error: %v\n", err)
			return false
		}
		a.do(ctx, "auth.error", store.ActionLogin, store.LoginPayload{Email: arg("<email>"), Password: pw})
	case is("logout"):
		a.do(ctx, "auth.error", store.ActionLogout, nil)
	case is("whoami"):
		if s := a.session(); s != nil {
			a.printf("%s <%s>\n", s.DisplayName, s.Email)
		} else {
			a.printf("not signed in\n")
		}

	case is("notes"):
		if a.do(ctx, "notes", store.ActionFetchNotes, nil) {
			for _, n := range a.notes() {
				a.printNoteLine(n)
			}
		}
	case is("note"):
		id := arg("<id>")
		if !a.do(ctx, "notes", store.ActionFetchNote, id) {
			return false
		}
		if n, ok := store.NoteByID(a.notes(), id); ok {
			a.printf("%s\n\n%s\n", n.Title, n.Content)
		}
	case is("addnote"):
		if a.do(ctx, "notes", store.ActionAddNote, model.NoteFields{Title: arg("<title>"), Content: arg("<content>")}) {
			if items := a.notes(); len(items) > 0 {
				a.printf("added %s\n", items[0].ID)
			}
		}
	case is("editnote"):
		a.do(ctx, "notes", store.ActionUpdateNote, store.UpdatePayload[model.NoteFields]{
			ID:     arg("<id>"),
			Fields: model.NoteFields{Title: arg("<title>"), Content: arg("<content>")},
		})
	case is("rmnote"):
		a.do(ctx, "notes", store.ActionDeleteNote, arg("<id>"))

	case is("cards"):
		if !a.do(ctx, "flashcards", store.ActionFetchCards, nil) {
			return false
		}
		items := a.cards()
		if set, err := opts.String("--set"); err == nil && set != "" {
			items = store.StudySet(items, set)
		}
		for _, c := range items {
			a.printCardLine(c)
		}
	case is("sets"):
		if !a.do(ctx, "flashcards", store.ActionFetchCards, nil) {
			return false
		}
		v, _ := a.st.Select("flashcards.sets")
		groups, _ := v.([]store.Group)
		for _, g := range groups {
			a.printf("%s (%d)\n", g.Label, g.Count)
		}
	case is("study"):
		if !a.do(ctx, "flashcards", store.ActionFetchCards, nil) {
			return false
		}
		set := store.StudySet(a.cards(), arg("<set>"))
		if len(set) == 0 {
			a.printf("no cards in %q\n", arg("<set>"))
			return false
		}
		for i, c := range set {
			a.printf("%d/%d Q: %s\n    A: %s\n", i+1, len(set), c.Question, c.Answer)
		}
	case is("addcard"):
		fields := model.FlashcardFields{SetTitle: arg("--set"), Question: arg("<question>"), Answer: arg("<answer>")}
		if a.do(ctx, "flashcards", store.ActionAddCard, fields) {
			if items := a.cards(); len(items) > 0 {
				a.printf("added %s\n", items[0].ID)
			}
		}
	case is("editcard"):
		a.do(ctx, "flashcards", store.ActionUpdateCard, store.UpdatePayload[model.FlashcardFields]{
			ID:     arg("<id>"),
			Fields: model.FlashcardFields{SetTitle: arg("--set"), Question: arg("<question>"), Answer: arg("<answer>")},
		})
	case is("rmcard"):
		a.do(ctx, "flashcards", store.ActionDeleteCard, arg("<id>"))

	case is("profile"):
		if !a.do(ctx, "profile", store.ActionFetchProfile, nil) {
			return false
		}
		v, _ := a.st.Select("profile")
		if ps, _ := v.(store.ProfileState); ps.Profile != nil {
			p := ps.Profile
			a.printf("name:  %s\nemail: %s\nrole:  %s\nsince: %s\n",
				p.Name, p.Email, p.Role, p.CreatedAt.Format(time.DateOnly))
		}
	case is("rename"):
		if a.do(ctx, "profile", store.ActionUpdateName, arg("<name>")) {
			a.printf("renamed\n")
		}
	case is("passwd"):
		cur, err := promptPassword(a, "Current password")
		if err != nil {
			a.printf("error: %v\n", err)
			return false
		}
		next, err := promptPassword(a, "New password")
		if err != nil {
			a.printf("error: %v\n", err)
			return false
		}
		if a.do(ctx, "profile", store.ActionChangePassword, store.PasswordPayload{Current: cur, Next: next}) {
			a.printf("password changed\n")
		}

	default:
		a.printf("%s", usage)
	}
	return false
}
