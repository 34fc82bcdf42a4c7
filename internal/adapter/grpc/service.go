package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "walletflow.v1.WalletFlowService"

// WalletFlowServiceServer is the server API for the WalletFlow service.
// Requests and responses are google.protobuf.Struct documents keyed by the
// wallet and operation field names (id, wallet_id, amount, ...).
type WalletFlowServiceServer interface {
	CreateWallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetWallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWallets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateWallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteWallet(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordOperation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOperation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOperations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SummarizeOperations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteOperation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNetWorth(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(WalletFlowServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// FullMethod returns the gRPC path of a service method
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func methodHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WalletFlowServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(WalletFlowServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for the WalletFlow service
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WalletFlowServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodHandler("CreateWallet", WalletFlowServiceServer.CreateWallet),
		methodHandler("GetWallet", WalletFlowServiceServer.GetWallet),
		methodHandler("ListWallets", WalletFlowServiceServer.ListWallets),
		methodHandler("UpdateWallet", WalletFlowServiceServer.UpdateWallet),
		methodHandler("DeleteWallet", WalletFlowServiceServer.DeleteWallet),
		methodHandler("RecordOperation", WalletFlowServiceServer.RecordOperation),
		methodHandler("GetOperation", WalletFlowServiceServer.GetOperation),
		methodHandler("ListOperations", WalletFlowServiceServer.ListOperations),
		methodHandler("SummarizeOperations", WalletFlowServiceServer.SummarizeOperations),
		methodHandler("DeleteOperation", WalletFlowServiceServer.DeleteOperation),
		methodHandler("GetNetWorth", WalletFlowServiceServer.GetNetWorth),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

// RegisterWalletFlowServiceServer registers srv on s
func RegisterWalletFlowServiceServer(s grpc.ServiceRegistrar, srv WalletFlowServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
