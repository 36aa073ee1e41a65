package envserver

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls EnvService over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any, PResp wirePtr[Resp]](ctx context.Context, cc grpc.ClientConnInterface, method string, in wireMessage, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	msg := newProto(PResp(out))
	if err := cc.Invoke(ctx, method, toProto(in), msg, opts...); err != nil {
		return nil, err
	}
	PResp(out).decode(fields{msg})
	return out, nil
}

func (c *Client) Make(ctx context.Context, in *MakeRequest, opts ...grpc.CallOption) (*MakeResponse, error) {
	return invoke[MakeResponse](ctx, c.cc, MethodMake, in, opts)
}

func (c *Client) Reset(ctx context.Context, in *ResetRequest, opts ...grpc.CallOption) (*ResetResponse, error) {
	return invoke[ResetResponse](ctx, c.cc, MethodReset, in, opts)
}

func (c *Client) Step(ctx context.Context, in *StepRequest, opts ...grpc.CallOption) (*StepResponse, error) {
	return invoke[StepResponse](ctx, c.cc, MethodStep, in, opts)
}

func (c *Client) Render(ctx context.Context, in *RenderRequest, opts ...grpc.CallOption) (*RenderResponse, error) {
	return invoke[RenderResponse](ctx, c.cc, MethodRender, in, opts)
}

func (c *Client) Close(ctx context.Context, in *CloseRequest, opts ...grpc.CallOption) (*CloseResponse, error) {
	return invoke[CloseResponse](ctx, c.cc, MethodClose, in, opts)
}

func (c *Client) DrainExperiences(ctx context.Context, in *DrainExperiencesRequest, opts ...grpc.CallOption) (*DrainExperiencesResponse, error) {
	return invoke[DrainExperiencesResponse](ctx, c.cc, MethodDrainExperiences, in, opts)
}
