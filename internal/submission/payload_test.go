package submission

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

func fullRecord() *entity.QuoteRecord {
	return &entity.QuoteRecord{
		BrokerEmail:      entity.Ptr("agent@brokerage.com"),
		InsuredName:      entity.Ptr("Acme Robotics LLC"),
		InsuredTaxID:     entity.Ptr("12-3456789"),
		YearFounded:      entity.Ptr(2011),
		EffectiveDate:    entity.Ptr("2026-04-01"),
		Revenue:          entity.Ptr(12345678.91),
		NAICS:            entity.Ptr(541511),
		QuestionHighRisk: entity.Ptr(false),
		AggLimit:         entity.Ptr(2000000.0),
		Retention:        entity.Ptr(2500.0),
		InsuredLocation: entity.Location{
			Address1: entity.Ptr("1 Main St"), Address2: entity.Ptr("Suite 2"),
			City: entity.Ptr("Austin"), State: entity.Ptr("TX"), Zip: entity.Ptr("78701"),
		},
		Claims:  entity.Claims{Count: entity.Ptr(2), Amount: entity.Ptr(15000.5)},
		Website: entity.Website{HasWebsite: entity.Ptr(true), DomainName: entity.Ptr("https://acme.example")},
		InsuredContact: entity.Contact{
			FirstName: entity.Ptr("Ann"), LastName: entity.Ptr("Lee"), Email: entity.Ptr("ann@acme.example"),
			Phone: entity.Ptr("555-0100"), PreferredMethod: entity.Ptr("Phone"),
		},
		ParsingNotes: entity.Notes{"dropped on submit"},
	}
}

func TestPayload_RoundTripPreservesValues(t *testing.T) {
	rec := fullRecord()
	payload := BuildPayload(rec)

	// through the wire and back
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))

	back, err := RecordFromPayload(wire)
	require.NoError(t, err)

	want := rec.Clone()
	want.ParsingNotes = entity.Notes{}
	assert.Equal(t, want, back)
}

func TestPayload_NullHandling(t *testing.T) {
	payload := BuildPayload(entity.NewQuoteRecord())
	assert.NotContains(t, payload, "parsing_notes")
	assert.Equal(t, "", payload["insured_name"])
	assert.Nil(t, payload["revenue"])
	assert.Nil(t, payload["question_highrisk"])
	assert.Equal(t, "", payload["insured_location"].(map[string]any)["city"])
	assert.Equal(t, "", payload["insured_contact"].(map[string]any)["preferred_method"])
	assert.NotContains(t, payload["website"], "domainName")
}

func TestPayload_DomainName(t *testing.T) {
	tests := []struct {
		name    string
		has     *bool
		domain  *string
		want    string
		present bool
	}{
		{"adds scheme", entity.Ptr(true), entity.Ptr("acme.example"), "https://acme.example", true},
		{"keeps scheme", entity.Ptr(true), entity.Ptr("http://acme.example"), "http://acme.example", true},
		{"no website", entity.Ptr(false), entity.Ptr("acme.example"), "", false},
		{"unknown website", nil, entity.Ptr("acme.example"), "", false},
		{"blank domain", entity.Ptr(true), entity.Ptr("  "), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := entity.NewQuoteRecord()
			rec.Website = entity.Website{HasWebsite: tt.has, DomainName: tt.domain}
			website := BuildPayload(rec)["website"].(map[string]any)
			got, ok := website["domainName"]
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRedisTokenCache_OutageIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	cache := NewRedisTokenCache(rdb, nil)

	_, ok := cache.Get(context.Background(), constants.EnvTest)
	assert.False(t, ok)
	assert.Error(t, cache.Put(context.Background(), constants.EnvTest, Token{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}))
	assert.NoError(t, cache.Put(context.Background(), constants.EnvTest, Token{AccessToken: "a", ExpiresAt: time.Now()}), "expired tokens are not stored")
}
