package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/submission-intake/internal/common"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
	"github.com/joseph-ayodele/submission-intake/internal/pipeline"
)

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func recordFromValue(v *structpb.Value) (*entity.QuoteRecord, error) {
	s := v.GetStructValue()
	if s == nil {
		return nil, invalidField("record", "must be an object")
	}
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, err
	}
	rec := entity.NewQuoteRecord()
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, invalidField("record", err.Error())
	}
	if rec.ParsingNotes == nil {
		rec.ParsingNotes = entity.Notes{}
	}
	return rec, nil
}

func decodeBase64(field, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, invalidField(field, "must be base64")
	}
	return b, nil
}

func pdfsFromValue(v *structpb.Value) ([]pipeline.PDF, error) {
	if v == nil {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, invalidField("pdfs", "must be a list")
	}
	out := make([]pipeline.PDF, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		fields := item.GetStructValue().GetFields()
		name := fields["filename"].GetStringValue()
		if name == "" {
			name = fmt.Sprintf("document-%d.pdf", i+1)
		}
		data, err := decodeBase64(fmt.Sprintf("pdfs[%d].data", i), fields["data"].GetStringValue())
		if err != nil {
			return nil, err
		}
		out = append(out, pipeline.PDF{Filename: name, Data: data})
	}
	return out, nil
}

func invalidField(field, msg string) error {
	return common.NewAppError("INVALID_ARGUMENT", field+" "+msg, common.ErrInvalidInput)
}
