package pipeline

import (
	"strings"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/metrics"
	"github.com/joseph-ayodele/submission-intake/internal/normalize"
)

// Reconcile applies the post-extraction rules to rec in place, in order: sender override,
// summary merge, aggregate limit and retention normalization, contact method default.
// Every automatic change is recorded in rec.ParsingNotes.
func Reconcile(rec *entity.QuoteRecord, senderEmail string, partial *entity.QuoteRecord) {
	if rec.ParsingNotes == nil {
		rec.ParsingNotes = entity.Notes{}
	}

	senderSet := false
	if sender := strings.TrimSpace(senderEmail); sender != "" {
		if rec.BrokerEmail != nil && *rec.BrokerEmail != "" && !strings.EqualFold(*rec.BrokerEmail, sender) {
			rec.ParsingNotes.Add("Broker email set to the email sender %s, overriding extracted value %s.", sender, *rec.BrokerEmail)
		} else {
			rec.ParsingNotes.Add("Broker email set to the email sender %s.", sender)
		}
		rec.BrokerEmail = entity.Ptr(sender)
		senderSet = true
	}

	if partial != nil {
		filled := mergeMissing(rec, partial, senderSet)
		rec.ParsingNotes.Add("Email was summarized before extraction; %d field(s) filled from the summary's pre-extraction.", filled)
	}

	if rec.AggLimit != nil {
		before := *rec.AggLimit
		if v := normalize.AggregateLimit(before, &rec.ParsingNotes); v > 0 {
			rec.AggLimit = entity.Ptr(v)
		} else {
			rec.AggLimit = nil
		}
		if rec.AggLimit == nil || *rec.AggLimit != before {
			metrics.IncNormalization("agg_limit")
		}
	}

	if rec.Retention != nil {
		before := *rec.Retention
		rec.Retention = normalize.Retention(before)
		if rec.Retention == nil || *rec.Retention != before {
			metrics.IncNormalization("retention")
		}
	}

	if rec.InsuredContact.PreferredMethod == nil || strings.TrimSpace(*rec.InsuredContact.PreferredMethod) == "" {
		rec.InsuredContact.PreferredMethod = entity.Ptr(constants.DefaultContactMethod)
	}
}

// mergeMissing copies every known field of src into dst where dst is unknown.
// Groups merge member by member. It returns the number of fields filled.
func mergeMissing(dst, src *entity.QuoteRecord, skipBroker bool) int {
	n := 0
	if !skipBroker {
		n += fill(&dst.BrokerEmail, src.BrokerEmail)
	}
	n += fill(&dst.InsuredName, src.InsuredName)
	n += fill(&dst.InsuredTaxID, src.InsuredTaxID)
	n += fill(&dst.YearFounded, src.YearFounded)
	n += fill(&dst.EffectiveDate, src.EffectiveDate)
	n += fill(&dst.Revenue, src.Revenue)
	n += fill(&dst.NAICS, src.NAICS)
	n += fill(&dst.QuestionHighRisk, src.QuestionHighRisk)
	n += fill(&dst.AggLimit, src.AggLimit)
	n += fill(&dst.Retention, src.Retention)

	n += fill(&dst.InsuredLocation.Address1, src.InsuredLocation.Address1)
	n += fill(&dst.InsuredLocation.Address2, src.InsuredLocation.Address2)
	n += fill(&dst.InsuredLocation.City, src.InsuredLocation.City)
	n += fill(&dst.InsuredLocation.State, src.InsuredLocation.State)
	n += fill(&dst.InsuredLocation.Zip, src.InsuredLocation.Zip)

	n += fill(&dst.Claims.Count, src.Claims.Count)
	n += fill(&dst.Claims.Amount, src.Claims.Amount)

	n += fill(&dst.Website.HasWebsite, src.Website.HasWebsite)
	n += fill(&dst.Website.DomainName, src.Website.DomainName)

	n += fill(&dst.InsuredContact.FirstName, src.InsuredContact.FirstName)
	n += fill(&dst.InsuredContact.LastName, src.InsuredContact.LastName)
	n += fill(&dst.InsuredContact.Email, src.InsuredContact.Email)
	n += fill(&dst.InsuredContact.Phone, src.InsuredContact.Phone)
	n += fill(&dst.InsuredContact.PreferredMethod, src.InsuredContact.PreferredMethod)
	return n
}

func fill[T any](dst **T, src *T) int {
	if *dst != nil || src == nil {
		return 0
	}
	v := *src
	*dst = &v
	return 1
}
