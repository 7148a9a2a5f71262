// Package studydeckv1 declares the studydeck.v1.StudyDeck gRPC service.
// Requests and replies are google.protobuf.Struct documents; their keys are
// defined in internal/convert.
package studydeckv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "studydeck.v1.StudyDeck"

// Full method names.
const (
	MethodSignUp         = "/" + ServiceName + "/SignUp"
	MethodSignIn         = "/" + ServiceName + "/SignIn"
	MethodGetIdentity    = "/" + ServiceName + "/GetIdentity"
	MethodGetProfile     = "/" + ServiceName + "/GetProfile"
	MethodUpdateProfile  = "/" + ServiceName + "/UpdateProfile"
	MethodChangePassword = "/" + ServiceName + "/ChangePassword"
	MethodCreateRecord   = "/" + ServiceName + "/CreateRecord"
	MethodListRecords    = "/" + ServiceName + "/ListRecords"
	MethodGetRecord      = "/" + ServiceName + "/GetRecord"
	MethodUpdateRecord   = "/" + ServiceName + "/UpdateRecord"
	MethodDeleteRecord   = "/" + ServiceName + "/DeleteRecord"
)

// PublicMethods are callable without a bearer token.
var PublicMethods = map[string]bool{
	MethodSignUp: true,
	MethodSignIn: true,
}

// StudyDeckServer is the server API.
type StudyDeckServer interface {
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetIdentity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedStudyDeckServer answers every method with codes.Unimplemented.
type UnimplementedStudyDeckServer struct{}

func unimplemented(m string) error { return status.Errorf(codes.Unimplemented, "method %s not implemented", m) }

func (UnimplementedStudyDeckServer) SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("SignUp")
}
func (UnimplementedStudyDeckServer) SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("SignIn")
}
func (UnimplementedStudyDeckServer) GetIdentity(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetIdentity")
}
func (UnimplementedStudyDeckServer) GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetProfile")
}
func (UnimplementedStudyDeckServer) UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("UpdateProfile")
}
func (UnimplementedStudyDeckServer) ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ChangePassword")
}
func (UnimplementedStudyDeckServer) CreateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("CreateRecord")
}
func (UnimplementedStudyDeckServer) ListRecords(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ListRecords")
}
func (UnimplementedStudyDeckServer) GetRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetRecord")
}
func (UnimplementedStudyDeckServer) UpdateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("UpdateRecord")
}
func (UnimplementedStudyDeckServer) DeleteRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("DeleteRecord")
}

type call func(StudyDeckServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, fn call) grpc.MethodDesc {
	name := fullMethod[len(ServiceName)+2:]
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(StudyDeckServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(StudyDeckServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes studydeck.v1.StudyDeck for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StudyDeckServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodSignUp, StudyDeckServer.SignUp),
		unary(MethodSignIn, StudyDeckServer.SignIn),
		unary(MethodGetIdentity, StudyDeckServer.GetIdentity),
		unary(MethodGetProfile, StudyDeckServer.GetProfile),
		unary(MethodUpdateProfile, StudyDeckServer.UpdateProfile),
		unary(MethodChangePassword, StudyDeckServer.ChangePassword),
		unary(MethodCreateRecord, StudyDeckServer.CreateRecord),
		unary(MethodListRecords, StudyDeckServer.ListRecords),
		unary(MethodGetRecord, StudyDeckServer.GetRecord),
		unary(MethodUpdateRecord, StudyDeckServer.UpdateRecord),
		unary(MethodDeleteRecord, StudyDeckServer.DeleteRecord),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "studydeck/v1/studydeck.proto",
}

// RegisterStudyDeckServer registers srv on s.
func RegisterStudyDeckServer(s grpc.ServiceRegistrar, srv StudyDeckServer) {
	s.RegisterService(&ServiceDesc, srv)
}
