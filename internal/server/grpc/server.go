// Package grpcserver exposes the StudyDeck gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"strings"

	api "github.com/and161185/studydeck/internal/api/studydeckv1"
	"github.com/and161185/studydeck/internal/convert"
	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/service"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server wires services into gRPC handlers.
type Server struct {
	api.UnimplementedStudyDeckServer
	auth    service.AuthService
	records service.RecordService
	log     *zap.Logger
}

var _ api.StudyDeckServer = (*Server)(nil)

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, records service.RecordService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, records: records, log: log}
}

// fail logs unexpected errors and converts err into a status.
func (s *Server) fail(op string, err error) error {
	st := errs.ToStatus(err)
	if status.Code(st) == codes.Internal {
		s.log.Error(op, zap.Error(err))
	}
	return st
}

func empty() *structpb.Struct { return &structpb.Struct{Fields: map[string]*structpb.Value{}} }

func remoteIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}

func (s *Server) caller(ctx context.Context) (uuid.UUID, error) {
	c, ok := CallerFrom(ctx)
	if !ok {
		return uuid.Nil, errs.ToStatus(errs.ErrNotSignedIn)
	}
	return c.UserID, nil
}

// --- Auth ---

// SignUp creates an account and its profile and returns an access token.
func (s *Server) SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tok, id, err := s.auth.Register(ctx,
		convert.Str(req, convert.KeyName),
		convert.Str(req, convert.KeyEmail),
		convert.Str(req, convert.KeyPassword),
	)
	if err != nil {
		return nil, s.fail("sign up", err)
	}
	return convert.AuthReply(tok, id), nil
}

// SignIn authenticates and returns an access token.
func (s *Server) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tok, id, err := s.auth.Login(ctx,
		convert.Str(req, convert.KeyEmail),
		convert.Str(req, convert.KeyPassword),
		remoteIP(ctx),
	)
	if err != nil {
		return nil, s.fail("sign in", err)
	}
	return convert.AuthReply(tok, id), nil
}

// GetIdentity resolves the caller's identity; used to restore a saved session.
func (s *Server) GetIdentity(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.auth.Identity(ctx, uid)
	if errors.Is(err, errs.ErrNotFound) {
		// account removed after the token was issued
		return nil, errs.ToStatus(errs.ErrNotSignedIn)
	}
	if err != nil {
		return nil, s.fail("get identity", err)
	}
	return convert.IdentityToStruct(id), nil
}

// --- Profile ---

// GetProfile returns the caller's profile.
func (s *Server) GetProfile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.auth.Profile(ctx, uid)
	if err != nil {
		return nil, s.fail("get profile", err)
	}
	return convert.ProfileToStruct(*p), nil
}

// UpdateProfile changes the caller's display name.
func (s *Server) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.auth.UpdateProfileName(ctx, uid, convert.Str(req, convert.KeyName))
	if err != nil {
		return nil, s.fail("update profile", err)
	}
	return convert.ProfileToStruct(*p), nil
}

// ChangePassword re-authenticates and stores a new password.
func (s *Server) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	err = s.auth.ChangePassword(ctx, uid,
		convert.Str(req, convert.KeyCurrentPassword),
		convert.Str(req, convert.KeyNewPassword),
	)
	if err != nil {
		return nil, s.fail("change password", err)
	}
	return empty(), nil
}

// --- Records ---

func recordArgs(req *structpb.Struct) (collection, id string) {
	return convert.Str(req, convert.KeyCollection), convert.Str(req, convert.KeyID)
}

func fieldsArg(req *structpb.Struct) (map[string]string, error) {
	f, err := convert.FieldsFromStruct(req.GetFields()[convert.KeyFields].GetStructValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad fields: %v", err)
	}
	return f, nil
}

// CreateRecord stores a new document owned by the caller.
func (s *Server) CreateRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := fieldsArg(req)
	if err != nil {
		return nil, err
	}
	collection, _ := recordArgs(req)
	d, err := s.records.Create(ctx, uid, collection, fields)
	if err != nil {
		return nil, s.fail("create record", err)
	}
	return convert.DocumentToStruct(*d), nil
}

// ListRecords returns the caller's documents, newest first.
func (s *Server) ListRecords(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	collection, _ := recordArgs(req)
	ds, err := s.records.List(ctx, uid, collection)
	if err != nil {
		return nil, s.fail("list records", err)
	}
	return convert.DocumentsToStruct(ds), nil
}

// GetRecord returns one document.
func (s *Server) GetRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	collection, id := recordArgs(req)
	d, err := s.records.Get(ctx, uid, collection, id)
	if err != nil {
		return nil, s.fail("get record", err)
	}
	return convert.DocumentToStruct(*d), nil
}

// UpdateRecord replaces the fields of a document.
func (s *Server) UpdateRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := fieldsArg(req)
	if err != nil {
		return nil, err
	}
	collection, id := recordArgs(req)
	d, err := s.records.Update(ctx, uid, collection, id, fields)
	if err != nil {
		return nil, s.fail("update record", err)
	}
	return convert.DocumentToStruct(*d), nil
}

// DeleteRecord removes a document.
func (s *Server) DeleteRecord(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	uid, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	collection, id := recordArgs(req)
	if err := s.records.Delete(ctx, uid, collection, id); err != nil {
		return nil, s.fail("delete record", err)
	}
	return empty(), nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
