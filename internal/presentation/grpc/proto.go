package grpc

// Service definition for repayment.v1.RepaymentService. Messages are the
// application DTOs, carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "repayment.v1.RepaymentService"

// RepaymentServiceServer is the server API for RepaymentService.
type RepaymentServiceServer interface {
	CalculateEMI(context.Context, *dto.CalculateEMIRequest) (*dto.EMIResponse, error)
	GenerateSchedule(context.Context, *dto.GenerateScheduleRequest) (*dto.ScheduleResponse, error)
	GetSchedule(context.Context, *dto.GetScheduleRequest) (*dto.ScheduleResponse, error)
	ApplyPayment(context.Context, *dto.PaymentRecord) (*dto.PaymentResponse, error)
	ProcessBatchPayments(context.Context, *dto.BatchPaymentRequest) (*dto.BatchPaymentResponse, error)
	CalculatePenalty(context.Context, *dto.CalculatePenaltyRequest) (*dto.PenaltyResponse, error)
	CountCollectionDays(context.Context, *dto.CountCollectionDaysRequest) (*dto.CollectionDaysResponse, error)
	mustEmbedUnimplementedRepaymentServiceServer()
}

// UnimplementedRepaymentServiceServer provides forward-compatible default implementations.
type UnimplementedRepaymentServiceServer struct{}

func (UnimplementedRepaymentServiceServer) CalculateEMI(context.Context, *dto.CalculateEMIRequest) (*dto.EMIResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CalculateEMI not implemented")
}
func (UnimplementedRepaymentServiceServer) GenerateSchedule(context.Context, *dto.GenerateScheduleRequest) (*dto.ScheduleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GenerateSchedule not implemented")
}
func (UnimplementedRepaymentServiceServer) GetSchedule(context.Context, *dto.GetScheduleRequest) (*dto.ScheduleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSchedule not implemented")
}
func (UnimplementedRepaymentServiceServer) ApplyPayment(context.Context, *dto.PaymentRecord) (*dto.PaymentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ApplyPayment not implemented")
}
func (UnimplementedRepaymentServiceServer) ProcessBatchPayments(context.Context, *dto.BatchPaymentRequest) (*dto.BatchPaymentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ProcessBatchPayments not implemented")
}
func (UnimplementedRepaymentServiceServer) CalculatePenalty(context.Context, *dto.CalculatePenaltyRequest) (*dto.PenaltyResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CalculatePenalty not implemented")
}
func (UnimplementedRepaymentServiceServer) CountCollectionDays(context.Context, *dto.CountCollectionDaysRequest) (*dto.CollectionDaysResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CountCollectionDays not implemented")
}
func (UnimplementedRepaymentServiceServer) mustEmbedUnimplementedRepaymentServiceServer() {}

// RegisterRepaymentServiceServer registers srv with s.
func RegisterRepaymentServiceServer(s grpclib.ServiceRegistrar, srv RepaymentServiceServer) {
	s.RegisterService(&_RepaymentService_serviceDesc, srv) //nolint:revive // gRPC handler registration
}

//nolint:revive // gRPC handler registration
var _RepaymentService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RepaymentServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "CalculateEMI",         Handler: _RepaymentService_CalculateEMI_Handler},         //nolint:revive // gRPC handler registration
		{MethodName: "GenerateSchedule",     Handler: _RepaymentService_GenerateSchedule_Handler},     //nolint:revive // gRPC handler registration
		{MethodName: "GetSchedule",          Handler: _RepaymentService_GetSchedule_Handler},          //nolint:revive // gRPC handler registration
		{MethodName: "ApplyPayment",         Handler: _RepaymentService_ApplyPayment_Handler},         //nolint:revive // gRPC handler registration
		{MethodName: "ProcessBatchPayments", Handler: _RepaymentService_ProcessBatchPayments_Handler}, //nolint:revive // gRPC handler registration
		{MethodName: "CalculatePenalty",     Handler: _RepaymentService_CalculatePenalty_Handler},     //nolint:revive // gRPC handler registration
		{MethodName: "CountCollectionDays",  Handler: _RepaymentService_CountCollectionDays_Handler},  //nolint:revive // gRPC handler registration
	},
	Streams: []grpclib.StreamDesc{},
}

//nolint:revive,errcheck // gRPC handler registration
func _RepaymentService_CalculateEMI_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(dto.CalculateEMIRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepaymentServiceServer).CalculateEMI(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/CalculateEMI",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RepaymentServiceServer).CalculateEMI(ctx, req.(*dto.CalculateEMIRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _RepaymentService_GenerateSchedule_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(dto.GenerateScheduleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepaymentServiceServer).GenerateSchedule(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GenerateSchedule",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RepaymentServiceServer).GenerateSchedule(ctx, req.(*dto.GenerateScheduleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _RepaymentService_GetSchedule_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(dto.GetScheduleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepaymentServiceServer).GetSchedule(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetSchedule",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RepaymentServiceServer).GetSchedule(ctx, req.(*dto.GetScheduleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _RepaymentService_ApplyPayment_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(dto.PaymentRecord)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepaymentServiceServer).ApplyPayment(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ApplyPayment",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RepaymentServiceServer).ApplyPayment(ctx, req.(*dto.PaymentRecord))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _RepaymentService_ProcessBatchPayments_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(dto.BatchPaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepaymentServiceServer).ProcessBatchPayments(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/ProcessBatchPayments",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RepaymentServiceServer).ProcessBatchPayments(ctx, req.(*dto.BatchPaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _RepaymentService_CalculatePenalty_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(dto.CalculatePenaltyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepaymentServiceServer).CalculatePenalty(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/CalculatePenalty",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RepaymentServiceServer).CalculatePenalty(ctx, req.(*dto.CalculatePenaltyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _RepaymentService_CountCollectionDays_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(dto.CountCollectionDaysRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepaymentServiceServer).CountCollectionDays(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/CountCollectionDays",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RepaymentServiceServer).CountCollectionDays(ctx, req.(*dto.CountCollectionDaysRequest))
	}
	return interceptor(ctx, in, info, handler)
}
