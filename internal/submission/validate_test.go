package submission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

func TestValidate_FullRecordPasses(t *testing.T) {
	require.NoError(t, Validate(fullRecord()))
}

func TestValidate_UnknownFieldsPass(t *testing.T) {
	rec := entity.NewQuoteRecord()
	rec.InsuredName = entity.Ptr("Acme")
	require.NoError(t, Validate(rec))
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*entity.QuoteRecord)
		field string
	}{
		{"missing insured", func(r *entity.QuoteRecord) { r.InsuredName = nil }, "insured_name"},
		{"blank insured", func(r *entity.QuoteRecord) { r.InsuredName = entity.Ptr("  ") }, "insured_name"},
		{"bad broker email", func(r *entity.QuoteRecord) { r.BrokerEmail = entity.Ptr("not an email") }, "broker_email"},
		{"bad date", func(r *entity.QuoteRecord) { r.EffectiveDate = entity.Ptr("04/01/2026") }, "effective_date"},
		{"bad state", func(r *entity.QuoteRecord) { r.InsuredLocation.State = entity.Ptr("Texas") }, "insured_location.state"},
		{"bad zip", func(r *entity.QuoteRecord) { r.InsuredLocation.Zip = entity.Ptr("787") }, "insured_location.zip"},
		{"bad contact email", func(r *entity.QuoteRecord) { r.InsuredContact.Email = entity.Ptr("Ann <ann@acme.example>") }, "insured_contact.email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := fullRecord()
			tc.edit(rec)
			err := Validate(rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrValidation))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestSubmit_InvalidRecordMakesNoCalls(t *testing.T) {
	api := &fakeQuoteAPI{}
	c, _ := newTestClient(t, api)
	rec := sampleRecord()
	rec.EffectiveDate = entity.Ptr("tomorrow")
	_, err := c.Submit(t.Context(), rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Zero(t, api.tokenCalls.Load())
	assert.Zero(t, api.quoteCalls.Load())
}
