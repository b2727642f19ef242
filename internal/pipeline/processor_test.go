package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/llm"
	"github.com/joseph-ayodele/submission-intake/internal/summarize"
)

// fakeExtractor answers by schema name and records every request.
type fakeExtractor struct {
	responses map[string][]byte
	errs      map[string]error
	calls     []llm.ExtractionRequest
}

func (f *fakeExtractor) Extract(_ context.Context, req llm.ExtractionRequest) ([]byte, error) {
	f.calls = append(f.calls, req)
	if err := f.errs[req.Name]; err != nil {
		return nil, err
	}
	return f.responses[req.Name], nil
}

func quoteJSON(t *testing.T, doc string) []byte {
	t.Helper()
	out, _, err := llm.SanitizeQuoteJSON([]byte(doc), nil)
	require.NoError(t, err)
	return out
}

func newTestProcessor(fe *fakeExtractor) *Processor {
	return NewProcessor(nil, fe, summarize.New(nil, fe))
}

func TestAnalyze_NoSources(t *testing.T) {
	p := newTestProcessor(&fakeExtractor{})
	_, err := p.Analyze(context.Background(), AnalyzeRequest{EmailBody: "   "})
	assert.ErrorIs(t, err, ErrNoSources)
	assert.True(t, IsValidation(err))
}

func TestAnalyze_SenderOverridesExtractedBroker(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{
		llm.QuoteSchemaName: quoteJSON(t, `{"broker_email":"someone@else.com","insured_name":"Acme"}`),
	}}
	p := newTestProcessor(fe)

	res, err := p.Analyze(context.Background(), AnalyzeRequest{
		EmailBody: "Please quote Acme.",
		Email:     &llm.EmailContext{SenderEmail: "agent@brokerage.com", Subject: "Quote"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Record.BrokerEmail)
	assert.Equal(t, "agent@brokerage.com", *res.Record.BrokerEmail)
	assert.True(t, res.Record.ParsingNotes.Contains("overriding extracted value someone@else.com"))
	assert.NotEmpty(t, res.RequestID)
	assert.False(t, res.Summarized)

	require.Len(t, fe.calls, 1)
	req := fe.calls[0]
	require.Len(t, req.Parts, 1)
	assert.Contains(t, req.Parts[0].Text, "very likely the broker's email")
	assert.NotNil(t, req.Sanitize)
}

func TestAnalyze_EmailMetadataWithoutBody(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{llm.QuoteSchemaName: quoteJSON(t, `{}`)}}
	p := newTestProcessor(fe)

	res, err := p.Analyze(context.Background(), AnalyzeRequest{
		PDFs:  []PDF{{Filename: "loss_runs.pdf", Data: []byte("%PDF-1.4 a")}},
		Email: &llm.EmailContext{SenderEmail: "agent@brokerage.com", Subject: "Loss runs"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Record.BrokerEmail)
	assert.Equal(t, "agent@brokerage.com", *res.Record.BrokerEmail)

	parts := fe.calls[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, llm.PartPDF, parts[0].Kind)
	assert.Equal(t, llm.PartText, parts[1].Kind)
	assert.Contains(t, parts[1].Text, "From: agent@brokerage.com")
	assert.Contains(t, parts[1].Text, "very likely the broker's email")
	assert.Contains(t, parts[1].Text, "Subject: Loss runs")
}

func TestAnalyze_PDFOnlyHasNoEmailPart(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{llm.QuoteSchemaName: quoteJSON(t, `{}`)}}
	p := newTestProcessor(fe)

	_, err := p.Analyze(context.Background(), AnalyzeRequest{
		PDFs:  []PDF{{Filename: "a.pdf", Data: []byte("%PDF-1.4 a")}},
		Email: &llm.EmailContext{SenderName: "Jane"},
	})
	require.NoError(t, err)
	require.Len(t, fe.calls[0].Parts, 1)
}

func TestAnalyze_DecodesIntegralFloats(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{
		llm.QuoteSchemaName: []byte(`{"insured_name":"Acme","year_founded":2010.0,"naics":541511.0,"claims":{"count":2.0}}`),
	}}
	p := newTestProcessor(fe)

	res, err := p.Analyze(context.Background(), AnalyzeRequest{EmailBody: "Acme, founded 2010."})
	require.NoError(t, err)
	rec := res.Record
	require.NotNil(t, rec.YearFounded)
	assert.Equal(t, 2010, *rec.YearFounded)
	require.NotNil(t, rec.NAICS)
	assert.Equal(t, 541511, *rec.NAICS)
	require.NotNil(t, rec.Claims.Count)
	assert.Equal(t, 2, *rec.Claims.Count)
	assert.Equal(t, "Acme", *rec.InsuredName)
}

func TestAnalyze_PDFAndEmailParts(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{llm.QuoteSchemaName: quoteJSON(t, `{}`)}}
	p := newTestProcessor(fe)

	_, err := p.Analyze(context.Background(), AnalyzeRequest{
		PDFs:      []PDF{{Filename: "a.pdf", Data: []byte("%PDF-1.4 a")}, {Filename: "b.pdf", Data: []byte("%PDF-1.4 b")}},
		EmailBody: "body",
	})
	require.NoError(t, err)
	parts := fe.calls[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, llm.PartPDF, parts[0].Kind)
	assert.Equal(t, "a.pdf", parts[0].Filename)
	assert.Equal(t, "b.pdf", parts[1].Filename)
	assert.Equal(t, llm.PartText, parts[2].Kind)
}

func TestAnalyze_SummarizesLongBodyAndMergesPartial(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{
		llm.SummarySchemaName: []byte(`{"summary_text":"Acme Robotics, Austin TX, wants 1M aggregate.","partial_record":` +
			string(quoteJSON(t, `{"broker_email":"wrong@summary.com","insured_name":"Not Used","insured_location":{"city":"Austin"},"naics":541511}`)) + `}`),
		llm.QuoteSchemaName: quoteJSON(t, `{"insured_name":"Acme Robotics","agg_limit":1000000}`),
	}}
	p := newTestProcessor(fe)

	res, err := p.Analyze(context.Background(), AnalyzeRequest{
		EmailBody: strings.Repeat("x", 10001),
		Email:     &llm.EmailContext{SenderEmail: "agent@brokerage.com"},
	})
	require.NoError(t, err)
	assert.True(t, res.Summarized)

	rec := res.Record
	assert.Equal(t, "Acme Robotics", *rec.InsuredName, "extracted value wins over the summary")
	assert.Equal(t, "Austin", *rec.InsuredLocation.City)
	assert.Equal(t, 541511, *rec.NAICS)
	assert.Equal(t, "agent@brokerage.com", *rec.BrokerEmail)
	assert.True(t, rec.ParsingNotes.Contains("summarized"))

	require.Len(t, fe.calls, 2)
	assert.Equal(t, llm.SummarySchemaName, fe.calls[0].Name)
	assert.True(t, strings.HasPrefix(fe.calls[1].Parts[0].Text, "EMAIL SUMMARY"))
}

func TestAnalyze_SummaryFailureFallsBackToFullBody(t *testing.T) {
	body := strings.Repeat("y", 10001)
	fe := &fakeExtractor{
		responses: map[string][]byte{llm.QuoteSchemaName: quoteJSON(t, `{}`)},
		errs:      map[string]error{llm.SummarySchemaName: errors.New("summary exploded")},
	}
	p := newTestProcessor(fe)

	res, err := p.Analyze(context.Background(), AnalyzeRequest{EmailBody: body})
	require.NoError(t, err)
	assert.False(t, res.Summarized)
	assert.False(t, res.Record.ParsingNotes.Contains("summarized"))
	assert.Contains(t, fe.calls[1].Parts[0].Text, body)
}

func TestAnalyze_AlreadySummarizedSkipsGate(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{llm.QuoteSchemaName: quoteJSON(t, `{}`)}}
	p := newTestProcessor(fe)

	res, err := p.Analyze(context.Background(), AnalyzeRequest{
		EmailBody:           strings.Repeat("z", 20000),
		AlreadySummarized:   true,
		EmailSummaryPartial: &entity.QuoteRecord{Revenue: entity.Ptr(5e6)},
	})
	require.NoError(t, err)
	assert.True(t, res.Summarized)
	require.Len(t, fe.calls, 1)
	assert.Equal(t, 5e6, *res.Record.Revenue)
}

func TestAnalyze_NormalizesAndDefaults(t *testing.T) {
	fe := &fakeExtractor{responses: map[string][]byte{
		llm.QuoteSchemaName: quoteJSON(t, `{"agg_limit":1999999,"retention":37500,"insured_contact":{"first_name":"Ann"}}`),
	}}
	p := newTestProcessor(fe)

	res, err := p.Analyze(context.Background(), AnalyzeRequest{EmailBody: "b"})
	require.NoError(t, err)
	rec := res.Record
	assert.Equal(t, 2000000.0, *rec.AggLimit)
	assert.True(t, rec.ParsingNotes.Contains("adjusted"))
	assert.Nil(t, rec.Retention)
	assert.Equal(t, "Email", *rec.InsuredContact.PreferredMethod)
	assert.Equal(t, "Ann", *rec.InsuredContact.FirstName)
}

func TestAnalyze_ClassifiesExtractionErrors(t *testing.T) {
	fe := &fakeExtractor{errs: map[string]error{llm.QuoteSchemaName: &llm.StatusError{StatusCode: 429}}}
	p := newTestProcessor(fe)

	_, err := p.Analyze(context.Background(), AnalyzeRequest{EmailBody: "b"})
	var ee *llm.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, llm.KindQuota, ee.Kind)
	assert.Equal(t, "content too large — remove PDFs or shorten email", ee.UserMessage())
}

func TestAnalyze_EmptyResponse(t *testing.T) {
	p := newTestProcessor(&fakeExtractor{})
	_, err := p.Analyze(context.Background(), AnalyzeRequest{EmailBody: "b"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestAnalyze_RejectsBadPDFBeforeCallingService(t *testing.T) {
	fe := &fakeExtractor{}
	p := newTestProcessor(fe)
	_, err := p.Analyze(context.Background(), AnalyzeRequest{PDFs: []PDF{{Filename: "x.pdf", Data: []byte("hello")}}})
	assert.True(t, IsValidation(err))
	assert.Empty(t, fe.calls)
}
