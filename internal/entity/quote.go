package entity

// QuoteRecord is the structured quote request produced by extraction and edited by a reviewer.
// A nil pointer is the "unknown" value for a field; groups are values so they are always present.
type QuoteRecord struct {
	BrokerEmail      *string  `json:"broker_email"`
	InsuredName      *string  `json:"insured_name"`
	InsuredTaxID     *string  `json:"insured_taxid"`
	YearFounded      *int     `json:"year_founded"`
	EffectiveDate    *string  `json:"effective_date"` // YYYY-MM-DD
	Revenue          *float64 `json:"revenue"`
	NAICS            *int     `json:"naics"`
	QuestionHighRisk *bool    `json:"question_highrisk"`
	AggLimit         *float64 `json:"agg_limit"`
	Retention        *float64 `json:"retention"`
	InsuredLocation  Location `json:"insured_location"`
	Claims           Claims   `json:"claims"`
	Website          Website  `json:"website"`
	InsuredContact   Contact  `json:"insured_contact"`
	ParsingNotes     Notes    `json:"parsing_notes"`
}

type Location struct {
	Address1 *string `json:"address1"`
	Address2 *string `json:"address2"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Zip      *string `json:"zip"`
}

type Claims struct {
	Count  *int     `json:"count"`
	Amount *float64 `json:"amount"`
}

type Website struct {
	HasWebsite *bool   `json:"has_website"`
	DomainName *string `json:"domainName"`
}

type Contact struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	PreferredMethod *string `json:"preferred_method"`
}

// IsEmpty reports whether no member of the contact group is known.
func (c Contact) IsEmpty() bool {
	return c.FirstName == nil && c.LastName == nil && c.Email == nil && c.Phone == nil && c.PreferredMethod == nil
}

// NewQuoteRecord returns a record with every field unknown and an empty (non-nil) notes list.
func NewQuoteRecord() *QuoteRecord {
	return &QuoteRecord{ParsingNotes: Notes{}}
}

// Ptr returns a pointer to v. Handy for building known values.
func Ptr[T any](v T) *T {
	return &v
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (r *QuoteRecord) Clone() *QuoteRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.BrokerEmail = clonePtr(r.BrokerEmail)
	out.InsuredName = clonePtr(r.InsuredName)
	out.InsuredTaxID = clonePtr(r.InsuredTaxID)
	out.YearFounded = clonePtr(r.YearFounded)
	out.EffectiveDate = clonePtr(r.EffectiveDate)
	out.Revenue = clonePtr(r.Revenue)
	out.NAICS = clonePtr(r.NAICS)
	out.QuestionHighRisk = clonePtr(r.QuestionHighRisk)
	out.AggLimit = clonePtr(r.AggLimit)
	out.Retention = clonePtr(r.Retention)
	out.InsuredLocation = Location{
		Address1: clonePtr(r.InsuredLocation.Address1),
		Address2: clonePtr(r.InsuredLocation.Address2),
		City:     clonePtr(r.InsuredLocation.City),
		State:    clonePtr(r.InsuredLocation.State),
		Zip:      clonePtr(r.InsuredLocation.Zip),
	}
	out.Claims = Claims{Count: clonePtr(r.Claims.Count), Amount: clonePtr(r.Claims.Amount)}
	out.Website = Website{HasWebsite: clonePtr(r.Website.HasWebsite), DomainName: clonePtr(r.Website.DomainName)}
	out.InsuredContact = Contact{
		FirstName:       clonePtr(r.InsuredContact.FirstName),
		LastName:        clonePtr(r.InsuredContact.LastName),
		Email:           clonePtr(r.InsuredContact.Email),
		Phone:           clonePtr(r.InsuredContact.Phone),
		PreferredMethod: clonePtr(r.InsuredContact.PreferredMethod),
	}
	out.ParsingNotes = append(Notes{}, r.ParsingNotes...)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
