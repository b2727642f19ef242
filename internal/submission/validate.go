package submission

import (
	"regexp"

	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

var (
	reState = regexp.MustCompile(`^[A-Z]{2}$`)
	reZip   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// Validate checks the formats the quote API rejects outright.
// Unknown fields pass; only insured_name must be known.
func Validate(rec *entity.QuoteRecord) error {
	if rec == nil {
		return common.NewAppError("VALIDATION", "record is required", common.ErrValidation)
	}
	return common.NewValidator().
		Field("insured_name", rec.InsuredName, common.Required, common.MaxLength(200)).
		Field("broker_email", rec.BrokerEmail, common.Email).
		Field("effective_date", rec.EffectiveDate, common.ISODate).
		Field("insured_location.state", rec.InsuredLocation.State, common.Pattern(reState, "a two-letter state code")).
		Field("insured_location.zip", rec.InsuredLocation.Zip, common.Pattern(reZip, "a 5 or 9 digit ZIP code")).
		Field("insured_contact.email", rec.InsuredContact.Email, common.Email).
		Error()
}
