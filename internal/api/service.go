package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "delphi.v1.Registry"

// RegistryServer is the server API for the delphi.v1.Registry service.
type RegistryServer interface {
	Enroll(context.Context, *EnrollRequest) (*EnrollResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RegisterAccount(context.Context, *RegisterAccountRequest) (*Empty, error)
	AccountExists(context.Context, *AccountExistsRequest) (*AccountExistsResponse, error)
	RegisterPropertyType(context.Context, *RegisterPropertyTypeRequest) (*Empty, error)
	RegisterClaim(context.Context, *RegisterClaimRequest) (*Empty, error)
	PropertyClaims(context.Context, *PropertyClaimsRequest) (*PropertyClaimsResponse, error)
	PropertyDetail(context.Context, *PropertyDetailRequest) (*PropertyDetailResponse, error)
	TransferProperty(context.Context, *TransferPropertyRequest) (*Empty, error)
	SignDocument(context.Context, *SignDocumentRequest) (*Empty, error)
	AttestationStatus(context.Context, *AttestationStatusRequest) (*AttestationStatusResponse, error)
}

// FullMethod returns the "/service/method" path of a registry method.
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// RegistryServiceDesc describes the service for grpc.Server.RegisterService.
var RegistryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Enroll", RegistryServer.Enroll),
		unary("Login", RegistryServer.Login),
		unary("RegisterAccount", RegistryServer.RegisterAccount),
		unary("AccountExists", RegistryServer.AccountExists),
		unary("RegisterPropertyType", RegistryServer.RegisterPropertyType),
		unary("RegisterClaim", RegistryServer.RegisterClaim),
		unary("PropertyClaims", RegistryServer.PropertyClaims),
		unary("PropertyDetail", RegistryServer.PropertyDetail),
		unary("TransferProperty", RegistryServer.TransferProperty),
		unary("SignDocument", RegistryServer.SignDocument),
		unary("AttestationStatus", RegistryServer.AttestationStatus),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "delphi/v1/registry",
}

// RegisterRegistryServer registers srv with s.
func RegisterRegistryServer(s grpc.ServiceRegistrar, srv RegistryServer) {
	s.RegisterService(&RegistryServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(RegistryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RegistryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(RegistryServer), ctx, req.(*Req))
			})
		},
	}
}
