// Package grpcserver exposes the registry gRPC API handlers.
package grpcserver

import (
	"context"
	"net"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/thewoodfish/property-delphi-contract/internal/api"
	"github.com/thewoodfish/property-delphi-contract/internal/convert"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/service"
)

// Server wires services into gRPC handlers.
type Server struct {
	auth     service.AuthService
	registry service.RegistryService
}

var _ api.RegistryServer = (*Server)(nil)

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, registry service.RegistryService) *Server {
	return &Server{auth: auth, registry: registry}
}

// --- Auth ---

// Enroll creates a credential and returns its principal.
func (s *Server) Enroll(ctx context.Context, req *api.EnrollRequest) (*api.EnrollResponse, error) {
	if req.Login == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty login/password")
	}
	p, err := s.auth.Enroll(ctx, req.Login, req.Password)
	if err != nil {
		return nil, toStatus("enroll", err)
	}
	return &api.EnrollResponse{Principal: string(p)}, nil
}

// remoteIP returns the peer's host without its port, so every connection from
// one address shares a login limiter entry.
func remoteIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	if tcp, ok := p.Addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Login authenticates and returns an access token.
func (s *Server) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	tok, p, err := s.auth.LoginWithIP(ctx, req.Login, req.Password, remoteIP(ctx))
	if err != nil {
		return nil, toStatus("login", err)
	}
	return &api.LoginResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt, Principal: string(p)}, nil
}

// --- Accounts ---

// RegisterAccount records the caller's account name.
func (s *Server) RegisterAccount(ctx context.Context, req *api.RegisterAccountRequest) (*api.Empty, error) {
	caller, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.registry.RegisterAccount(ctx, caller, []byte(req.Name), model.Timestamp(req.At)); err != nil {
		return nil, toStatus("register account", err)
	}
	return &api.Empty{}, nil
}

// AccountExists looks up a principal, defaulting to the caller.
func (s *Server) AccountExists(ctx context.Context, req *api.AccountExistsRequest) (*api.AccountExistsResponse, error) {
	p := model.Principal(req.Principal)
	if p == "" {
		caller, err := callerFromCtx(ctx)
		if err != nil {
			return nil, err
		}
		p = caller
	}
	ok, name, err := s.registry.AccountExists(ctx, p)
	if err != nil {
		return nil, toStatus("account exists", err)
	}
	return &api.AccountExistsResponse{Exists: ok, Name: string(name)}, nil
}

// --- Types and claims ---

// RegisterPropertyType makes the caller the authority of a new type.
func (s *Server) RegisterPropertyType(ctx context.Context, req *api.RegisterPropertyTypeRequest) (*api.Empty, error) {
	caller, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	err = s.registry.RegisterPropertyType(ctx, caller, model.TypeID(req.TypeID), model.ContentAddr(req.SchemaAddr))
	if err != nil {
		return nil, toStatus("register property type", err)
	}
	return &api.Empty{}, nil
}

// RegisterClaim creates a property claimed by the caller.
func (s *Server) RegisterClaim(ctx context.Context, req *api.RegisterClaimRequest) (*api.Empty, error) {
	caller, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.registry.RegisterClaim(ctx, caller, convert.FromAPIClaim(req)); err != nil {
		return nil, toStatus("register claim", err)
	}
	return &api.Empty{}, nil
}

// PropertyClaims lists the properties registered under a type.
func (s *Server) PropertyClaims(ctx context.Context, req *api.PropertyClaimsRequest) (*api.PropertyClaimsResponse, error) {
	ids, err := s.registry.PropertyClaims(ctx, model.TypeID(req.TypeID))
	if err != nil {
		return nil, toStatus("property claims", err)
	}
	return &api.PropertyClaimsResponse{PropertyIDs: convert.ToAPIIDs(ids)}, nil
}

// PropertyDetail returns a property record; unknown ids yield an empty record.
func (s *Server) PropertyDetail(ctx context.Context, req *api.PropertyDetailRequest) (*api.PropertyDetailResponse, error) {
	p, err := s.registry.PropertyDetail(ctx, model.PropertyID(req.PropertyID))
	if err != nil {
		return nil, toStatus("property detail", err)
	}
	return &api.PropertyDetailResponse{Property: convert.ToAPIProperty(p)}, nil
}

// --- Transfer and attestation ---

// TransferProperty reissues a caller-owned property to a recipient.
func (s *Server) TransferProperty(ctx context.Context, req *api.TransferPropertyRequest) (*api.Empty, error) {
	caller, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.registry.TransferProperty(ctx, caller, convert.FromAPITransfer(req)); err != nil {
		return nil, toStatus("transfer property", err)
	}
	return &api.Empty{}, nil
}

// SignDocument attests a property as the authority of its type.
func (s *Server) SignDocument(ctx context.Context, req *api.SignDocumentRequest) (*api.Empty, error) {
	caller, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	err = s.registry.SignDocument(ctx, caller, model.PropertyID(req.PropertyID), model.TypeID(req.TypeID), model.Timestamp(req.At))
	if err != nil {
		return nil, toStatus("sign document", err)
	}
	return &api.Empty{}, nil
}

// AttestationStatus returns the latest assertion and transfer history.
func (s *Server) AttestationStatus(ctx context.Context, req *api.AttestationStatusRequest) (*api.AttestationStatusResponse, error) {
	a, h, err := s.registry.AttestationStatus(ctx, model.PropertyID(req.PropertyID))
	if err != nil {
		return nil, toStatus("attestation status", err)
	}
	return &api.AttestationStatusResponse{Assertion: convert.ToAPIAssertion(a), History: convert.ToAPIHistory(h)}, nil
}
