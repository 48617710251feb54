package interviewv1

import (
	"context"

	"github.com/louisbranch/mockinterview/internal/platform/grpc/jsoncodec"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "interview.v1.InterviewService"

const (
	InterviewService_StartSession_FullMethodName     = "/" + ServiceName + "/StartSession"
	InterviewService_GenerateQuestion_FullMethodName = "/" + ServiceName + "/GenerateQuestion"
	InterviewService_SubmitAnswer_FullMethodName     = "/" + ServiceName + "/SubmitAnswer"
	InterviewService_RecordEmotion_FullMethodName    = "/" + ServiceName + "/RecordEmotion"
	InterviewService_DetectEmotion_FullMethodName    = "/" + ServiceName + "/DetectEmotion"
	InterviewService_RecordPosture_FullMethodName    = "/" + ServiceName + "/RecordPosture"
	InterviewService_EndSession_FullMethodName       = "/" + ServiceName + "/EndSession"
	InterviewService_ListHistory_FullMethodName      = "/" + ServiceName + "/ListHistory"
	InterviewService_GetDetails_FullMethodName       = "/" + ServiceName + "/GetDetails"
)

// InterviewServiceServer is the server API for the interview service.
type InterviewServiceServer interface {
	StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error)
	GenerateQuestion(context.Context, *GenerateQuestionRequest) (*GenerateQuestionResponse, error)
	SubmitAnswer(context.Context, *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	RecordEmotion(context.Context, *RecordEmotionRequest) (*RecordEmotionResponse, error)
	DetectEmotion(context.Context, *DetectEmotionRequest) (*DetectEmotionResponse, error)
	RecordPosture(context.Context, *RecordPostureRequest) (*RecordPostureResponse, error)
	EndSession(context.Context, *EndSessionRequest) (*EndSessionResponse, error)
	ListHistory(context.Context, *ListHistoryRequest) (*ListHistoryResponse, error)
	GetDetails(context.Context, *GetDetailsRequest) (*GetDetailsResponse, error)
}

// UnimplementedInterviewServiceServer returns Unimplemented for every RPC.
// Embed it by value for forward compatibility.
type UnimplementedInterviewServiceServer struct{}

func (UnimplementedInterviewServiceServer) StartSession(context.Context, *StartSessionRequest) (*StartSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartSession not implemented")
}

func (UnimplementedInterviewServiceServer) GenerateQuestion(context.Context, *GenerateQuestionRequest) (*GenerateQuestionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GenerateQuestion not implemented")
}

func (UnimplementedInterviewServiceServer) SubmitAnswer(context.Context, *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitAnswer not implemented")
}

func (UnimplementedInterviewServiceServer) RecordEmotion(context.Context, *RecordEmotionRequest) (*RecordEmotionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordEmotion not implemented")
}

func (UnimplementedInterviewServiceServer) DetectEmotion(context.Context, *DetectEmotionRequest) (*DetectEmotionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DetectEmotion not implemented")
}

func (UnimplementedInterviewServiceServer) RecordPosture(context.Context, *RecordPostureRequest) (*RecordPostureResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordPosture not implemented")
}

func (UnimplementedInterviewServiceServer) EndSession(context.Context, *EndSessionRequest) (*EndSessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method EndSession not implemented")
}

func (UnimplementedInterviewServiceServer) ListHistory(context.Context, *ListHistoryRequest) (*ListHistoryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListHistory not implemented")
}

func (UnimplementedInterviewServiceServer) GetDetails(context.Context, *GetDetailsRequest) (*GetDetailsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDetails not implemented")
}

// RegisterInterviewServiceServer registers srv on s.
func RegisterInterviewServiceServer(s grpc.ServiceRegistrar, srv InterviewServiceServer) {
	s.RegisterService(&InterviewService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(InterviewServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InterviewServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InterviewServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// InterviewService_ServiceDesc is the grpc.ServiceDesc for the interview
// service.
var InterviewService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InterviewServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartSession",
			Handler:    unaryHandler(InterviewService_StartSession_FullMethodName, InterviewServiceServer.StartSession),
		},
		{
			MethodName: "GenerateQuestion",
			Handler:    unaryHandler(InterviewService_GenerateQuestion_FullMethodName, InterviewServiceServer.GenerateQuestion),
		},
		{
			MethodName: "SubmitAnswer",
			Handler:    unaryHandler(InterviewService_SubmitAnswer_FullMethodName, InterviewServiceServer.SubmitAnswer),
		},
		{
			MethodName: "RecordEmotion",
			Handler:    unaryHandler(InterviewService_RecordEmotion_FullMethodName, InterviewServiceServer.RecordEmotion),
		},
		{
			MethodName: "DetectEmotion",
			Handler:    unaryHandler(InterviewService_DetectEmotion_FullMethodName, InterviewServiceServer.DetectEmotion),
		},
		{
			MethodName: "RecordPosture",
			Handler:    unaryHandler(InterviewService_RecordPosture_FullMethodName, InterviewServiceServer.RecordPosture),
		},
		{
			MethodName: "EndSession",
			Handler:    unaryHandler(InterviewService_EndSession_FullMethodName, InterviewServiceServer.EndSession),
		},
		{
			MethodName: "ListHistory",
			Handler:    unaryHandler(InterviewService_ListHistory_FullMethodName, InterviewServiceServer.ListHistory),
		},
		{
			MethodName: "GetDetails",
			Handler:    unaryHandler(InterviewService_GetDetails_FullMethodName, InterviewServiceServer.GetDetails),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "interview/v1/interview.json",
}

// InterviewServiceClient is the client API for the interview service.
type InterviewServiceClient interface {
	StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error)
	GenerateQuestion(ctx context.Context, in *GenerateQuestionRequest, opts ...grpc.CallOption) (*GenerateQuestionResponse, error)
	SubmitAnswer(ctx context.Context, in *SubmitAnswerRequest, opts ...grpc.CallOption) (*SubmitAnswerResponse, error)
	RecordEmotion(ctx context.Context, in *RecordEmotionRequest, opts ...grpc.CallOption) (*RecordEmotionResponse, error)
	DetectEmotion(ctx context.Context, in *DetectEmotionRequest, opts ...grpc.CallOption) (*DetectEmotionResponse, error)
	RecordPosture(ctx context.Context, in *RecordPostureRequest, opts ...grpc.CallOption) (*RecordPostureResponse, error)
	EndSession(ctx context.Context, in *EndSessionRequest, opts ...grpc.CallOption) (*EndSessionResponse, error)
	ListHistory(ctx context.Context, in *ListHistoryRequest, opts ...grpc.CallOption) (*ListHistoryResponse, error)
	GetDetails(ctx context.Context, in *GetDetailsRequest, opts ...grpc.CallOption) (*GetDetailsResponse, error)
}

type interviewServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewInterviewServiceClient returns a client that speaks the json codec
// over cc.
func NewInterviewServiceClient(cc grpc.ClientConnInterface) InterviewServiceClient {
	return &interviewServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(jsoncodec.Name)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *interviewServiceClient) StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*StartSessionResponse, error) {
	return invoke[StartSessionResponse](ctx, c.cc, InterviewService_StartSession_FullMethodName, in, opts)
}

func (c *interviewServiceClient) GenerateQuestion(ctx context.Context, in *GenerateQuestionRequest, opts ...grpc.CallOption) (*GenerateQuestionResponse, error) {
	return invoke[GenerateQuestionResponse](ctx, c.cc, InterviewService_GenerateQuestion_FullMethodName, in, opts)
}

func (c *interviewServiceClient) SubmitAnswer(ctx context.Context, in *SubmitAnswerRequest, opts ...grpc.CallOption) (*SubmitAnswerResponse, error) {
	return invoke[SubmitAnswerResponse](ctx, c.cc, InterviewService_SubmitAnswer_FullMethodName, in, opts)
}

func (c *interviewServiceClient) RecordEmotion(ctx context.Context, in *RecordEmotionRequest, opts ...grpc.CallOption) (*RecordEmotionResponse, error) {
	return invoke[RecordEmotionResponse](ctx, c.cc, InterviewService_RecordEmotion_FullMethodName, in, opts)
}

func (c *interviewServiceClient) DetectEmotion(ctx context.Context, in *DetectEmotionRequest, opts ...grpc.CallOption) (*DetectEmotionResponse, error) {
	return invoke[DetectEmotionResponse](ctx, c.cc, InterviewService_DetectEmotion_FullMethodName, in, opts)
}

func (c *interviewServiceClient) RecordPosture(ctx context.Context, in *RecordPostureRequest, opts ...grpc.CallOption) (*RecordPostureResponse, error) {
	return invoke[RecordPostureResponse](ctx, c.cc, InterviewService_RecordPosture_FullMethodName, in, opts)
}

func (c *interviewServiceClient) EndSession(ctx context.Context, in *EndSessionRequest, opts ...grpc.CallOption) (*EndSessionResponse, error) {
	return invoke[EndSessionResponse](ctx, c.cc, InterviewService_EndSession_FullMethodName, in, opts)
}

func (c *interviewServiceClient) ListHistory(ctx context.Context, in *ListHistoryRequest, opts ...grpc.CallOption) (*ListHistoryResponse, error) {
	return invoke[ListHistoryResponse](ctx, c.cc, InterviewService_ListHistory_FullMethodName, in, opts)
}

func (c *interviewServiceClient) GetDetails(ctx context.Context, in *GetDetailsRequest, opts ...grpc.CallOption) (*GetDetailsResponse, error) {
	return invoke[GetDetailsResponse](ctx, c.cc, InterviewService_GetDetails_FullMethodName, in, opts)
}
