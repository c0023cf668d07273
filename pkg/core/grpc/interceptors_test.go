package grpc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	"github.com/msto63/laplace/pkg/core/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/laplace.v1.Laplace/Compute"}

func bufferLogger(buf *bytes.Buffer) *logging.Logger {
	return logging.Wrap(logging.NewLogger(logging.LoggerConfig{
		ServiceName: "grpc", Level: "debug", Format: "logfmt", Output: buf,
	}))
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"invalid input", mdwerror.New("k must be positive").WithCode(mdwerror.CodeInvalidInput), codes.InvalidArgument},
		{"convergence", mdwerror.New("no alternation").WithCode(mdwerror.CodeConvergenceFailed), codes.FailedPrecondition},
		{"timeout code", mdwerror.New("deadline").WithCode(mdwerror.CodeTimeout), codes.DeadlineExceeded},
		{"plain error", errors.New("boom"), codes.Internal},
		{"bare context cancel", context.Canceled, codes.Canceled},
		{"status passes", status.Error(codes.NotFound, "no seed"), codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(ToStatus(tt.err)))
		})
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	var buf bytes.Buffer
	interceptor := RecoveryInterceptor(bufferLogger(&buf))

	_, err := interceptor(context.Background(), nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("index out of range")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, buf.String(), "gRPC panic recovered")
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()
	capture := func(ctx context.Context, req interface{}) (interface{}, error) {
		return GetRequestID(ctx), nil
	}

	// incoming header wins
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-42"))
	id, err := interceptor(ctx, nil, testInfo, capture)
	require.NoError(t, err)
	assert.Equal(t, "req-42", id)

	// otherwise a UUID is generated
	id, err = interceptor(context.Background(), nil, testInfo, capture)
	require.NoError(t, err)
	assert.Len(t, id.(string), 36)
}

func TestLoggingAndErrorInterceptors(t *testing.T) {
	var buf bytes.Buffer
	logIt := LoggingInterceptor(bufferLogger(&buf))
	mapIt := ErrorInterceptor()

	failing := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, mdwerror.New("ymin must be positive").WithCode(mdwerror.CodeInvalidInput)
	}
	_, err := logIt(WithRequestID(context.Background(), "abc"), nil, testInfo,
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return mapIt(ctx, req, testInfo, failing)
		})

	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	out := buf.String()
	assert.True(t, strings.Contains(out, `status="InvalidArgument"`), out)
	assert.True(t, strings.Contains(out, `request_id="abc"`), out)
	assert.True(t, strings.Contains(out, `method="/laplace.v1.Laplace/Compute"`), out)
}

func TestClientRequestIDInterceptor(t *testing.T) {
	interceptor := ClientRequestIDInterceptor()
	var sent []string
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		sent = md.Get(RequestIDHeader)
		return nil
	}

	require.NoError(t, interceptor(WithRequestID(context.Background(), "cli-1"), "/m", nil, nil, nil, invoker))
	assert.Equal(t, []string{"cli-1"}, sent)

	require.NoError(t, interceptor(context.Background(), "/m", nil, nil, nil, invoker))
	require.Len(t, sent, 1)
	assert.Len(t, sent[0], 36)
}
