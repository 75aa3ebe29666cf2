package api

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls the registry over a client connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Enroll(ctx context.Context, in *EnrollRequest, opts ...grpc.CallOption) (*EnrollResponse, error) {
	return invoke[EnrollResponse](ctx, c, "Enroll", in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c, "Login", in, opts)
}

func (c *Client) RegisterAccount(ctx context.Context, in *RegisterAccountRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "RegisterAccount", in, opts)
}

func (c *Client) AccountExists(ctx context.Context, in *AccountExistsRequest, opts ...grpc.CallOption) (*AccountExistsResponse, error) {
	return invoke[AccountExistsResponse](ctx, c, "AccountExists", in, opts)
}

func (c *Client) RegisterPropertyType(ctx context.Context, in *RegisterPropertyTypeRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "RegisterPropertyType", in, opts)
}

func (c *Client) RegisterClaim(ctx context.Context, in *RegisterClaimRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "RegisterClaim", in, opts)
}

func (c *Client) PropertyClaims(ctx context.Context, in *PropertyClaimsRequest, opts ...grpc.CallOption) (*PropertyClaimsResponse, error) {
	return invoke[PropertyClaimsResponse](ctx, c, "PropertyClaims", in, opts)
}

func (c *Client) PropertyDetail(ctx context.Context, in *PropertyDetailRequest, opts ...grpc.CallOption) (*PropertyDetailResponse, error) {
	return invoke[PropertyDetailResponse](ctx, c, "PropertyDetail", in, opts)
}

func (c *Client) TransferProperty(ctx context.Context, in *TransferPropertyRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "TransferProperty", in, opts)
}

func (c *Client) SignDocument(ctx context.Context, in *SignDocumentRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "SignDocument", in, opts)
}

func (c *Client) AttestationStatus(ctx context.Context, in *AttestationStatusRequest, opts ...grpc.CallOption) (*AttestationStatusResponse, error) {
	return invoke[AttestationStatusResponse](ctx, c, "AttestationStatus", in, opts)
}
