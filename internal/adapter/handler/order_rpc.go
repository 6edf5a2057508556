package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Messages for the orderfulfillment.v1.OrderService RPC service. They travel
// as JSON through jsonCodec, so no generated protobuf code is involved.

type CreateOrderRPCRequest struct {
	RequestID  string             `json:"request_id"`
	CustomerID int64              `json:"customer_id" validate:"gt=0"`
	Items      []OrderItemMessage `json:"items" validate:"min=1,dive"`
}

type OrderItemMessage struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

type CreateOrderRPCResponse struct {
	OrderID int64 `json:"order_id"`
}

type GetOrderRPCRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type OrderMessage struct {
	ID          int64                `json:"id"`
	CustomerID  int64                `json:"customer_id"`
	CreatedAt   string               `json:"created_at"`
	TotalAmount string               `json:"total_amount"`
	Details     []OrderDetailMessage `json:"details"`
}

type OrderDetailMessage struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type OrderServiceServer interface {
	CreateOrder(ctx context.Context, req *CreateOrderRPCRequest) (*CreateOrderRPCResponse, error)
	GetOrder(ctx context.Context, req *GetOrderRPCRequest) (*OrderMessage, error)
}

const (
	orderServiceName    = "orderfulfillment.v1.OrderService"
	createOrderFullName = "/" + orderServiceName + "/CreateOrder"
	getOrderFullName    = "/" + orderServiceName + "/GetOrder"
)

var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrder", Handler: createOrderHandler},
		{MethodName: "GetOrder", Handler: getOrderHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderfulfillment/v1/order_service",
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

func createOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateOrderRPCRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).CreateOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: createOrderFullName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).CreateOrder(ctx, req.(*CreateOrderRPCRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetOrderRPCRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getOrderFullName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).GetOrder(ctx, req.(*GetOrderRPCRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// OrderServiceClient calls OrderService with the JSON codec selected.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) CreateOrder(ctx context.Context, in *CreateOrderRPCRequest, opts ...grpc.CallOption) (*CreateOrderRPCResponse, error) {
	out := new(CreateOrderRPCResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, createOrderFullName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, in *GetOrderRPCRequest, opts ...grpc.CallOption) (*OrderMessage, error) {
	out := new(OrderMessage)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, getOrderFullName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
