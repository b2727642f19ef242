package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/export"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
	"github.com/joseph-ayodele/submission-intake/internal/pipeline"
	"github.com/joseph-ayodele/submission-intake/internal/submission"
)

type stubExtractor struct {
	raw  []byte
	err  error
	reqs []llm.ExtractionRequest
}

func (s *stubExtractor) Extract(_ context.Context, req llm.ExtractionRequest) ([]byte, error) {
	s.reqs = append(s.reqs, req)
	return s.raw, s.err
}

type stubSubmitter struct {
	res *submission.Result
	err error
	got *entity.QuoteRecord
}

func (s *stubSubmitter) Submit(_ context.Context, rec *entity.QuoteRecord) (*submission.Result, error) {
	s.got = rec
	return s.res, s.err
}

func startServer(t *testing.T, ext *stubExtractor, sub Submitter) (*IntakeClient, *grpc.ClientConn) {
	t.Helper()
	svc := NewIntakeService(pipeline.NewProcessor(nil, ext, nil), sub, export.NewService(nil), nil)
	gs, _ := NewGRPCServer(svc, nil)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewIntakeClient(conn), conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

const sampleEML = "From: Pat Agent <agent@brokerage.com>\r\nTo: quotes@carrier.example\r\nSubject: New submission\r\n\r\nPlease quote Acme Robotics.\r\n"

func TestAnalyze_FromEML(t *testing.T) {
	ext := &stubExtractor{raw: []byte(`{"insured_name":"Acme Robotics","broker_email":null}`)}
	client, _ := startServer(t, ext, nil)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", "req-123")
	resp, err := client.Analyze(ctx, mustStruct(t, map[string]any{
		"email_eml": base64.StdEncoding.EncodeToString([]byte(sampleEML)),
		"pdfs": []any{map[string]any{
			"filename": "acord.pdf",
			"data":     base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 body")),
		}},
	}))
	require.NoError(t, err)

	m := resp.AsMap()
	assert.Equal(t, "req-123", m["request_id"])
	assert.Equal(t, false, m["summarized"])
	rec := m["record"].(map[string]any)
	assert.Equal(t, "Acme Robotics", rec["insured_name"])
	assert.Equal(t, "agent@brokerage.com", rec["broker_email"])
	email := m["email"].(map[string]any)
	assert.Equal(t, "New submission", email["subject"])
	assert.Equal(t, string(constants.ParsePathStructured), email["parse_path"])

	require.Len(t, ext.reqs, 1)
	parts := ext.reqs[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, llm.PartPDF, parts[0].Kind)
	assert.Equal(t, "acord.pdf", parts[0].Filename)
	assert.Contains(t, parts[1].Text, "Please quote Acme Robotics.")
}

func TestAnalyze_PastedBodyReplacesParsedBody(t *testing.T) {
	ext := &stubExtractor{raw: []byte(`{"insured_name":"Widget Co"}`)}
	client, _ := startServer(t, ext, nil)

	_, err := client.Analyze(context.Background(), mustStruct(t, map[string]any{
		"email_eml":  base64.StdEncoding.EncodeToString([]byte(sampleEML)),
		"email_body": "Insured is Widget Co.",
	}))
	require.NoError(t, err)
	require.Len(t, ext.reqs, 1)
	text := ext.reqs[0].Parts[len(ext.reqs[0].Parts)-1].Text
	assert.Contains(t, text, "Insured is Widget Co.")
	assert.NotContains(t, text, "Acme Robotics")
}

func TestAnalyze_ErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		in   map[string]any
		err  error
		code codes.Code
	}{
		{"no sources", map[string]any{}, nil, codes.InvalidArgument},
		{"bad base64", map[string]any{"email_eml": "@@@"}, nil, codes.InvalidArgument},
		{"not a pdf", map[string]any{"pdfs": []any{map[string]any{"filename": "x.pdf", "data": base64.StdEncoding.EncodeToString([]byte("hello"))}}}, nil, codes.InvalidArgument},
		{"quota", map[string]any{"email_body": "hi"}, &llm.StatusError{StatusCode: 429}, codes.ResourceExhausted},
		{"auth", map[string]any{"email_body": "hi"}, &llm.StatusError{StatusCode: 401}, codes.Unauthenticated},
		{"network", map[string]any{"email_body": "hi"}, context.DeadlineExceeded, codes.Unavailable},
		{"generic", map[string]any{"email_body": "hi"}, errors.New("model refused"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := startServer(t, &stubExtractor{raw: []byte(`{}`), err: tc.err}, nil)
			_, err := client.Analyze(context.Background(), mustStruct(t, tc.in))
			require.Error(t, err)
			assert.Equal(t, tc.code, status.Code(err), err.Error())
		})
	}
}

func recordValue() map[string]any {
	return map[string]any{
		"insured_name":  "Acme",
		"broker_email":  "agent@brokerage.com",
		"agg_limit":     2000000,
		"year_founded":  2011,
		"parsing_notes": []any{"note"},
	}
}

func TestSubmit(t *testing.T) {
	sub := &stubSubmitter{res: &submission.Result{Approved: &submission.Quote{
		ID: "Q-1", Status: constants.QuoteStatusApproved, CheckoutURL: "https://pay.example/Q-1",
	}}}
	client, _ := startServer(t, &stubExtractor{}, sub)

	resp, err := client.Submit(context.Background(), mustStruct(t, map[string]any{"record": recordValue()}))
	require.NoError(t, err)
	m := resp.AsMap()
	assert.Equal(t, "APPROVED", m["status"])
	assert.Equal(t, "Q-1", m["quote"].(map[string]any)["quote_id"])

	require.NotNil(t, sub.got)
	assert.Equal(t, "Acme", *sub.got.InsuredName)
	assert.Equal(t, 2011, *sub.got.YearFounded)
	assert.Equal(t, 2000000.0, *sub.got.AggLimit)
}

func TestSubmit_DeclinedIsAResponse(t *testing.T) {
	sub := &stubSubmitter{res: &submission.Result{Declined: &submission.Decline{Message: "revenue too high"}}}
	client, _ := startServer(t, &stubExtractor{}, sub)

	resp, err := client.Submit(context.Background(), mustStruct(t, map[string]any{"record": recordValue()}))
	require.NoError(t, err)
	assert.Equal(t, "DECLINED", resp.AsMap()["status"])
	assert.Equal(t, "revenue too high", resp.AsMap()["message"])
}

func TestSubmit_Errors(t *testing.T) {
	client, _ := startServer(t, &stubExtractor{}, nil)
	_, err := client.Submit(context.Background(), mustStruct(t, map[string]any{"record": recordValue()}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	sub := &stubSubmitter{err: &submission.TransportError{StatusCode: 502, Message: "bad gateway", Retryable: true}}
	client, _ = startServer(t, &stubExtractor{}, sub)
	_, err = client.Submit(context.Background(), mustStruct(t, map[string]any{"record": recordValue()}))
	assert.Equal(t, codes.Unavailable, status.Code(err))

	sub = &stubSubmitter{err: &submission.TransportError{StatusCode: 401, Message: "token rejected", Retryable: true, Cause: common.ErrUnauthorized}}
	client, _ = startServer(t, &stubExtractor{}, sub)
	_, err = client.Submit(context.Background(), mustStruct(t, map[string]any{"record": recordValue()}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "token rejected")

	_, err = client.Submit(context.Background(), mustStruct(t, map[string]any{"record": "nope"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestExport(t *testing.T) {
	client, _ := startServer(t, &stubExtractor{}, nil)
	resp, err := client.Export(context.Background(), mustStruct(t, map[string]any{"record": recordValue()}))
	require.NoError(t, err)

	b, err := base64.StdEncoding.DecodeString(resp.AsMap()["xlsx"].(string))
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	v, err := f.GetCellValue(export.NotesSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "note", v)
}

func TestHealth(t *testing.T) {
	_, conn := startServer(t, &stubExtractor{}, nil)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestToStatus_PassesThroughStatusErrors(t *testing.T) {
	in := status.Error(codes.Aborted, "x")
	assert.Equal(t, in, toStatus(in))
	assert.Nil(t, toStatus(nil))
	assert.True(t, strings.Contains(toStatus(&submission.DeclinedError{Message: "no"}).Error(), "quote declined"))
}
