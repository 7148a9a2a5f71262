package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/model"
)

var _ gateway.Gateway = (*fakeGateway)(nil)

// fakeGateway keeps records in memory and lets tests inject failures,
// observe calls and run code while a call is "in flight".
type fakeGateway struct {
	feed gateway.Feed

	mu     sync.Mutex
	calls  map[string]int
	fail   map[string]error
	during map[string]func()
	users  map[string]model.Identity // by email; password is always "secret1"
	docs   map[string][]model.Document
	owner  map[string]string // record ID -> owner
	nextID int
	clock  time.Time
	who    *model.Identity
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		calls:  make(map[string]int),
		fail:   make(map[string]error),
		during: make(map[string]func()),
		users:  make(map[string]model.Identity),
		docs:   make(map[string][]model.Document),
		owner:  make(map[string]string),
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (g *fakeGateway) addUser(id, email, name string) model.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	u := model.Identity{UserID: id, Email: email, DisplayName: name}
	g.users[email] = u
	return u
}

func (g *fakeGateway) failOn(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.fail, method)
		return
	}
	g.fail[method] = err
}

func (g *fakeGateway) onCall(method string, fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.during[method] = fn
}

func (g *fakeGateway) count(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *fakeGateway) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

// enter counts the call, runs the in-flight hook and returns the injected error.
func (g *fakeGateway) enter(method string) error {
	g.mu.Lock()
	g.calls[method]++
	hook := g.during[method]
	err := g.fail[method]
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (g *fakeGateway) current() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.who == nil {
		return "", errs.ErrNotSignedIn
	}
	return g.who.UserID, nil
}

func (g *fakeGateway) SignIn(_ context.Context, email, password string) (model.Identity, error) {
	if err := g.enter("SignIn"); err != nil {
		return model.Identity{}, err
	}
	g.mu.Lock()
	u, ok := g.users[email]
	if !ok || password != "secret1" {
		g.mu.Unlock()
		return model.Identity{}, errs.ErrInvalidCredentials
	}
	g.who = &u
	g.mu.Unlock()
	return u, nil
}

func (g *fakeGateway) SignUp(_ context.Context, name, email, password string) (model.Identity, error) {
	if err := g.enter("SignUp"); err != nil {
		return model.Identity{}, err
	}
	if len(password) < model.MinPasswordLen {
		return model.Identity{}, errs.ErrWeakPassword
	}
	g.mu.Lock()
	if _, ok := g.users[email]; ok {
		g.mu.Unlock()
		return model.Identity{}, errs.ErrEmailInUse
	}
	u := model.Identity{UserID: "u-" + email, Email: email, DisplayName: name}
	g.users[email] = u
	g.who = &u
	g.mu.Unlock()
	return u, nil
}

func (g *fakeGateway) SignOut(context.Context) error {
	if err := g.enter("SignOut"); err != nil {
		return err
	}
	g.mu.Lock()
	g.who = nil
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) SubscribeToSessionChanges(fn func(*model.Identity)) func() {
	g.mu.Lock()
	g.calls["Subscribe"]++
	g.mu.Unlock()
	return g.feed.Subscribe(fn)
}

func (g *fakeGateway) CreateRecord(_ context.Context, collection, ownerID string, fields model.Fields) (model.Document, error) {
	if err := g.enter("CreateRecord"); err != nil {
		return model.Document{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	g.clock = g.clock.Add(time.Second)
	d := model.Document{
		ID:         fmt.Sprintf("%s-%d", collection, g.nextID),
		Collection: collection,
		OwnerID:    ownerID,
		Fields:     fields,
		CreatedAt:  g.clock,
	}
	g.docs[collection] = append([]model.Document{d}, g.docs[collection]...)
	g.owner[d.ID] = ownerID
	return d, nil
}

func (g *fakeGateway) ListRecords(_ context.Context, collection, ownerID string) ([]model.Document, error) {
	if err := g.enter("ListRecords"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Document
	for _, d := range g.docs[collection] {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (g *fakeGateway) find(collection, id string) (int, error) {
	for i, d := range g.docs[collection] {
		if d.ID == id {
			if g.who == nil || d.OwnerID != g.who.UserID {
				return -1, errs.ErrForbidden
			}
			return i, nil
		}
	}
	return -1, errs.ErrNotFound
}

func (g *fakeGateway) GetRecord(_ context.Context, collection, id string) (model.Document, error) {
	if err := g.enter("GetRecord"); err != nil {
		return model.Document{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i, err := g.find(collection, id)
	if err != nil {
		return model.Document{}, err
	}
	return g.docs[collection][i], nil
}

func (g *fakeGateway) UpdateRecord(_ context.Context, collection, id string, fields model.Fields) (model.Document, error) {
	if err := g.enter("UpdateRecord"); err != nil {
		return model.Document{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i, err := g.find(collection, id)
	if err != nil {
		return model.Document{}, err
	}
	g.clock = g.clock.Add(time.Second)
	at := g.clock
	d := g.docs[collection][i]
	d.Fields = fields
	d.UpdatedAt = &at
	g.docs[collection][i] = d
	return d, nil
}

func (g *fakeGateway) DeleteRecord(_ context.Context, collection, id string) error {
	if err := g.enter("DeleteRecord"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i, err := g.find(collection, id)
	if err != nil {
		return err
	}
	ds := g.docs[collection]
	g.docs[collection] = append(ds[:i:i], ds[i+1:]...)
	return nil
}

func (g *fakeGateway) GetProfile(context.Context) (model.Profile, error) {
	if err := g.enter("GetProfile"); err != nil {
		return model.Profile{}, err
	}
	uid, err := g.current()
	if err != nil {
		return model.Profile{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return model.Profile{UserID: uid, Name: g.who.DisplayName, Email: g.who.Email, Role: model.RoleUser}, nil
}

func (g *fakeGateway) UpdateProfile(_ context.Context, name string) (model.Profile, error) {
	if err := g.enter("UpdateProfile"); err != nil {
		return model.Profile{}, err
	}
	uid, err := g.current()
	if err != nil {
		return model.Profile{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.who.DisplayName = name
	return model.Profile{UserID: uid, Name: name, Email: g.who.Email, Role: model.RoleUser}, nil
}

func (g *fakeGateway) ChangePassword(context.Context, string, string) error {
	if err := g.enter("ChangePassword"); err != nil {
		return err
	}
	_, err := g.current()
	return err
}
