package server

import (
	"context"
	"encoding/base64"
	"log/slog"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/pipeline"
	"github.com/joseph-ayodele/submission-intake/internal/submission"
)

// Analyzer runs one extraction.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*pipeline.AnalyzeResult, error)
}

// Submitter sends a reviewed record to the quote API.
type Submitter interface {
	Submit(ctx context.Context, rec *entity.QuoteRecord) (*submission.Result, error)
}

// Exporter renders the review workbook.
type Exporter interface {
	RecordXLSX(rec *entity.QuoteRecord) ([]byte, error)
}

// IntakeService implements IntakeServer. Submitter may be nil when no quote API is configured.
type IntakeService struct {
	analyzer  Analyzer
	submitter Submitter
	exporter  Exporter
	logger    *slog.Logger
}

func NewIntakeService(a Analyzer, s Submitter, e Exporter, logger *slog.Logger) *IntakeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeService{analyzer: a, submitter: s, exporter: e, logger: logger}
}

// Analyze accepts email_eml (base64 .eml), pdfs [{filename, data}], email_body and already_summarized.
// A pasted email_body replaces the body parsed from email_eml.
func (s *IntakeService) Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	log := common.LoggerFromContext(ctx, s.logger)
	fields := in.GetFields()

	pdfs, err := pdfsFromValue(fields["pdfs"])
	if err != nil {
		return nil, toStatus(err)
	}

	var intake *pipeline.EmailIntake
	if eml := fields["email_eml"].GetStringValue(); eml != "" {
		raw, err := decodeBase64("email_eml", eml)
		if err != nil {
			return nil, toStatus(err)
		}
		intake = pipeline.LoadEmail(raw, log)
	}
	req := intake.Request(pdfs)
	if body := fields["email_body"].GetStringValue(); body != "" {
		req.EmailBody = body
	}
	req.AlreadySummarized = fields["already_summarized"].GetBoolValue()

	res, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		log.Warn("grpc.analyze.failed", "error", err)
		return nil, toStatus(err)
	}

	out := map[string]any{
		"request_id": res.RequestID,
		"summarized": res.Summarized,
		"record":     res.Record,
	}
	if intake != nil {
		out["warning"] = intake.Warning
		out["email"] = emailInfo(intake)
	}
	resp, err := toStruct(out)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return resp, nil
}

func emailInfo(in *pipeline.EmailIntake) map[string]any {
	info := map[string]any{"parse_path": string(in.Path), "cleared": in.Cleared}
	if md := in.Metadata; md != nil {
		info["subject"] = md.Subject
		info["sender_email"] = md.SenderEmail
		info["sender_name"] = md.SenderDisplayName
		info["to"] = md.ToAddress
		info["date"] = md.DateISO
	}
	return info
}

// Submit accepts {record} and returns {status: APPROVED, quote} or {status: DECLINED, message}.
// A decline is a normal response so the reviewer can edit and resubmit.
func (s *IntakeService) Submit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.submitter == nil {
		return nil, common.FailedPreconditionError("quote submission is not configured")
	}
	rec, err := recordFromValue(in.GetFields()["record"])
	if err != nil {
		return nil, toStatus(err)
	}
	res, err := s.submitter.Submit(ctx, rec)
	if err != nil {
		common.LoggerFromContext(ctx, s.logger).Warn("grpc.submit.failed", "error", err)
		return nil, toStatus(err)
	}

	var out map[string]any
	switch {
	case res.Approved != nil:
		out = map[string]any{"status": string(res.Approved.Status), "quote": res.Approved}
	case res.Declined != nil:
		out = map[string]any{"status": "DECLINED", "message": res.Declined.Message}
	default:
		return nil, common.InternalError("empty submission result")
	}
	resp, err := toStruct(out)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return resp, nil
}

// Export accepts {record} and returns {xlsx} as base64.
func (s *IntakeService) Export(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	rec, err := recordFromValue(in.GetFields()["record"])
	if err != nil {
		return nil, toStatus(err)
	}
	b, err := s.exporter.RecordXLSX(rec)
	if err != nil {
		common.LoggerFromContext(ctx, s.logger).Error("export.xlsx.failed", "error", err)
		return nil, common.InternalError(err.Error())
	}
	return structpb.NewStruct(map[string]any{"xlsx": base64.StdEncoding.EncodeToString(b)})
}
