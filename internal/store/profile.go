package store

import (
	"context"
	"sync"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/model"
	"go.uber.org/zap"
)

// ProfileState is a snapshot of the profile slice.
type ProfileState struct {
	Profile *model.Profile
	Loading bool
	Err     string
}

type nameForm struct {
	Name string `validate:"required,notblank"`
}

type passwordForm struct {
	Current string `validate:"required"`
	Next    string `validate:"required"`
}

// ProfileSlice holds the signed-in user's profile document.
type ProfileSlice struct {
	gw      gateway.Gateway
	session func() *model.Session
	renamed func(userID, name string)
	log     *zap.Logger
	notify  func()

	mu       sync.Mutex
	profile  *model.Profile
	inflight int
	err      string
	errOp    op
	epoch    uint64
}

// NewProfileSlice builds an empty profile slice.
func NewProfileSlice(gw gateway.Gateway, session func() *model.Session, log *zap.Logger) *ProfileSlice {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileSlice{
		gw:      gw,
		session: session,
		renamed: func(string, string) {},
		log:     log,
		notify:  func() {},
	}
}

// State returns a snapshot; the profile is a copy.
func (p *ProfileSlice) State() ProfileState {
	p.mu.Lock()
	defer p.mu.Unlock()
	var cp *model.Profile
	if p.profile != nil {
		v := *p.profile
		cp = &v
	}
	return ProfileState{Profile: cp, Loading: p.inflight > 0, Err: p.err}
}

func (p *ProfileSlice) fail(o op, err error) error {
	p.mu.Lock()
	p.err = errs.Message(err)
	p.errOp = o
	p.mu.Unlock()
	p.notify()
	return err
}

func (p *ProfileSlice) begin(o op) (uint64, error) {
	if p.session() == nil {
		return 0, p.fail(o, errs.ErrNotSignedIn)
	}
	p.mu.Lock()
	p.inflight++
	epoch := p.epoch
	p.mu.Unlock()
	p.notify()
	return epoch, nil
}

// end settles a call; only a success of the same kind clears the error.
func (p *ProfileSlice) end(o op, epoch uint64, prof *model.Profile, err error) error {
	p.mu.Lock()
	p.inflight--
	switch {
	case epoch != p.epoch:
	case err != nil:
		p.err = errs.Message(err)
		p.errOp = o
	default:
		if prof != nil {
			p.profile = prof
		}
		if p.errOp == o {
			p.err = ""
			p.errOp = opNone
		}
	}
	p.mu.Unlock()

	if err != nil {
		p.log.Debug("profile call failed", zap.Error(err))
	}
	p.notify()
	return err
}

// Fetch loads the profile.
func (p *ProfileSlice) Fetch(ctx context.Context) error {
	epoch, err := p.begin(opFetch)
	if err != nil {
		return err
	}
	prof, err := p.gw.GetProfile(ctx)
	return p.end(opFetch, epoch, &prof, err)
}

// UpdateName changes the display name and mirrors it into the session.
func (p *ProfileSlice) UpdateName(ctx context.Context, name string) error {
	if err := checkFields(nameForm{Name: name}); err != nil {
		return p.fail(opUpdate, err)
	}
	epoch, err := p.begin(opUpdate)
	if err != nil {
		return err
	}
	prof, err := p.gw.UpdateProfile(ctx, name)
	if err = p.end(opUpdate, epoch, &prof, err); err != nil {
		return err
	}
	p.renamed(prof.UserID, prof.Name)
	return nil
}

// ChangePassword re-authenticates with current and sets next. Short
// passwords are refused without a gateway call.
func (p *ProfileSlice) ChangePassword(ctx context.Context, current, next string) error {
	if err := checkFields(passwordForm{Current: current, Next: next}); err != nil {
		return p.fail(opPassword, err)
	}
	if len(next) < model.MinPasswordLen {
		return p.fail(opPassword, errs.ErrWeakPassword)
	}
	epoch, err := p.begin(opPassword)
	if err != nil {
		return err
	}
	return p.end(opPassword, epoch, nil, p.gw.ChangePassword(ctx, current, next))
}

// Clear forgets the profile.
func (p *ProfileSlice) Clear() {
	p.mu.Lock()
	p.profile = nil
	p.err = ""
	p.errOp = opNone
	p.epoch++
	p.mu.Unlock()
	p.notify()
}
