package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/studydeck/internal/crypto"
	"github.com/and161185/studydeck/internal/gateway/embedded"
	"github.com/and161185/studydeck/internal/limiter"
	"github.com/and161185/studydeck/internal/repository/memory"
	"github.com/and161185/studydeck/internal/service"
	"github.com/and161185/studydeck/internal/store"
)

// stubPasswords answers password prompts in order and restores the terminal reader afterwards.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(pws) == 0 {
			return nil, errors.New("no more passwords")
		}
		pw := pws[0]
		pws = pws[1:]
		return []byte(pw), nil
	}
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	auth := service.NewAuthService(
		memory.NewUserRepo(), memory.NewProfileRepo(),
		pkgcrypto.NewHasher(pkgcrypto.Params{Time: 1, MemoryKiB: 1024, Threads: 1}),
		[]byte("test-signing-key"), time.Hour, limiter.NewMemory(limiter.DefaultPolicy),
	)
	gw := embedded.New(auth, service.NewRecordService(memory.NewRecordRepo(), nil), zaptest.NewLogger(t))
	st := store.New(gw, zaptest.NewLogger(t))
	st.Bootstrap()
	t.Cleanup(st.Close)

	var out bytes.Buffer
	a := newApp(st, &out, time.Second)
	t.Cleanup(a.watch())
	return a, &out
}

func run(t *testing.T, a *app, script ...string) {
	t.Helper()
	runREPL(context.Background(), a, strings.NewReader(strings.Join(script, "\n")+"\n"))
}

func mustContain(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Fatalf("output lacks %q:\n%s", w, out)
		}
	}
}

func TestREPL_NotesAndStudySets(t *testing.T) {
	stubPasswords(t, "secret1")
	a, out := newTestApp(t)

	run(t, a,
		`register ann@x.io "Ann Lee"`,
		`addnote "Cell biology" "Mitochondria make ATP"`,
		`notes`,
		`addcard "2+2?" 4 --set=Math`,
		`addcard "Capital of France?" Paris`,
		`sets`,
		`study Math`,
		`cards --set=Untitled`,
		`whoami`,
		`exit`,
	)

	mustContain(t, out.String(),
		"signed in as Ann Lee <ann@x.io>",
		"studydeck(ann@x.io)> ",
		"Cell biology",
		"Math (1)",
		"Untitled (1)",
		"1/1 Q: 2+2?",
		"A: 4",
		"[Untitled] Capital of France?",
		"Ann Lee <ann@x.io>",
		"bye",
	)
	if strings.Contains(out.String(), "error:") {
		t.Fatalf("unexpected error in output:\n%s", out.String())
	}
}

func TestREPL_EditAndRemoveNote(t *testing.T) {
	stubPasswords(t, "secret1")
	a, out := newTestApp(t)

	run(t, a, `register ann@x.io Ann`, `addnote Draft "first take"`)
	notes := a.notes()
	if len(notes) != 1 {
		t.Fatalf("notes=%d, want 1", len(notes))
	}
	id := notes[0].ID

	out.Reset()
	run(t, a, `editnote `+id+` Final "second take"`, `note `+id)
	mustContain(t, out.String(), "Final\n\nsecond take")

	out.Reset()
	run(t, a, `rmnote `+id, `notes`, `note `+id)
	if strings.Contains(out.String(), "Final") {
		t.Fatalf("deleted note still listed:\n%s", out.String())
	}
	mustContain(t, out.String(), "error: Record not found")
}

func TestREPL_ErrorsComeFromState(t *testing.T) {
	stubPasswords(t, "secret1", "wrong-1")
	a, out := newTestApp(t)

	run(t, a,
		`notes`,
		`register ann@x.io Ann`,
		`logout`,
		`login ann@x.io`,
		`whoami`,
		`bogus`,
		`addnote onlytitle`,
	)
	mustContain(t, out.String(),
		"error: User not authenticated",
		"signed out",
		"error: Invalid email or password",
		"not signed in",
		`unknown command or arguments: "bogus"`,
		`unknown command or arguments: "addnote"`,
	)
}

func TestREPL_ProfileRenameAndPassword(t *testing.T) {
	stubPasswords(t, "secret1", "secret1", "abc", "secret1", "secret2")
	a, out := newTestApp(t)

	run(t, a,
		`register ann@x.io Ann`,
		`rename "Ann Lee"`,
		`profile`,
		`whoami`,
		`passwd`,
		`passwd`,
	)
	mustContain(t, out.String(),
		"renamed",
		"name:  Ann Lee",
		"role:  user",
		"Ann Lee <ann@x.io>",
		"error: Password must be at least 6 characters",
		"password changed",
	)
}

func TestREPL_PasswordReadFailure(t *testing.T) {
	stubPasswords(t)
	a, out := newTestApp(t)

	run(t, a, `login ann@x.io`)
	mustContain(t, out.String(), "error: read password: no more passwords")
	if a.session() != nil {
		t.Fatalf("session started without a password")
	}
}

func TestREPL_HelpAndEOF(t *testing.T) {
	a, out := newTestApp(t)

	run(t, a, `help`, ``)
	if n := strings.Count(out.String(), "Usage:"); n != 1 {
		t.Fatalf("usage printed %d times, want 1:\n%s", n, out.String())
	}
	if strings.Contains(out.String(), "bye") {
		t.Fatalf("EOF must not print bye")
	}
}

func TestREPL_StopsOnCancelledContext(t *testing.T) {
	a, out := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runREPL(ctx, a, strings.NewReader("whoami\n"))
	if out.Len() != 0 {
		t.Fatalf("REPL ran after cancel: %q", out.String())
	}
}

func TestNewGateway_Embedded(t *testing.T) {
	gw, err := newEmbedded(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("newEmbedded: %v", err)
	}
	if _, err := gw.GetProfile(context.Background()); err == nil {
		t.Fatalf("profile without a session must fail")
	}
}
