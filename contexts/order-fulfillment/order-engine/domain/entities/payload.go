package entities

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrUnknownPayloadType = errors.New("unknown order payload type")

// Order payloads are a tagged union keyed by order type. Raw JSON from the
// client is decoded into the typed variant and validated at the boundary;
// free-form keys never travel past this package untyped.

type AdsPayload struct {
	Objective        string `json:"objective" validate:"omitempty,min=3"`
	Destination      string `json:"destination" validate:"omitempty,oneof=whatsapp website profile"`
	DailyBudgetCents int64  `json:"daily_budget_cents" validate:"omitempty,gt=0"`
	MediaKind        string `json:"media_kind" validate:"omitempty,oneof=image video"`
	MediaAssetID     string `json:"media_asset_id" validate:"omitempty"`
	CustomerName     string `json:"customer_name" validate:"omitempty,min=2"`
	RegionNote       string `json:"region_note"`
}

type SitePayload struct {
	BusinessName string   `json:"business_name" validate:"omitempty,min=2"`
	Prompt       string   `json:"prompt" validate:"omitempty,min=10"`
	Sections     []string `json:"sections" validate:"omitempty,dive,min=2"`
	ContactPhone string   `json:"contact_phone"`
}

type ContentPayload struct {
	Topic     string   `json:"topic" validate:"omitempty,min=3"`
	Platforms []string `json:"platforms" validate:"omitempty,min=1,dive,oneof=instagram tiktok youtube"`
	PostCount int      `json:"post_count" validate:"omitempty,gt=0,lte=31"`
	Tone      string   `json:"tone"`
}

type VideoEditPayload struct {
	SourceAssetID    string `json:"source_asset_id" validate:"omitempty"`
	StylePrompt      string `json:"style_prompt"`
	Language         string `json:"language" validate:"omitempty,len=2"`
	IncludeSubtitles bool   `json:"include_subtitles"`
}

// Payload is the decoded tagged union; exactly one variant is non-nil.
type Payload struct {
	Ads       *AdsPayload
	Site      *SitePayload
	Content   *ContentPayload
	VideoEdit *VideoEditPayload
}

var payloadValidator = validator.New(validator.WithRequiredStructEnabled())

// ParsePayload decodes and validates raw payload JSON for the given order
// type. Absent fields are fine at this point; presence is only enforced per
// processing attempt by MissingFieldQuestion.
func ParsePayload(orderType OrderType, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	decode := func(target any) error {
		decoder := json.NewDecoder(strings.NewReader(string(raw)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(target); err != nil {
			return err
		}
		return payloadValidator.Struct(target)
	}

	var payload Payload
	var err error
	switch orderType {
	case OrderTypeAds:
		value := AdsPayload{}
		err = decode(&value)
		payload.Ads = &value
	case OrderTypeSite:
		value := SitePayload{}
		err = decode(&value)
		payload.Site = &value
	case OrderTypeContent:
		value := ContentPayload{}
		err = decode(&value)
		payload.Content = &value
	case OrderTypeVideoEdit:
		value := VideoEditPayload{}
		err = decode(&value)
		payload.VideoEdit = &value
	default:
		return Payload{}, ErrUnknownPayloadType
	}
	if err != nil {
		return Payload{}, err
	}
	return payload, nil
}

// MergePayload applies a shallow JSON patch over the stored payload and
// re-validates the result for the order type. Null values in the patch clear
// the key.
func MergePayload(orderType OrderType, base json.RawMessage, patch json.RawMessage) (json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &merged); err != nil {
			return nil, err
		}
	}
	var patchMap map[string]json.RawMessage
	if err := json.Unmarshal(patch, &patchMap); err != nil {
		return nil, err
	}
	for key, value := range patchMap {
		if string(value) == "null" {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	if _, err := ParsePayload(orderType, out); err != nil {
		return nil, err
	}
	return out, nil
}

// fieldQuestion pairs a required payload field with the client-facing
// question the engine asks when the field is absent. Order matters: the
// first missing field wins.
type fieldQuestion struct {
	missing  func(Payload) bool
	question string
}

var requiredFields = map[OrderType][]fieldQuestion{
	OrderTypeAds: {
		{func(p Payload) bool { return strings.TrimSpace(p.Ads.Objective) == "" }, "Qual é o objetivo da campanha?"},
		{func(p Payload) bool { return strings.TrimSpace(p.Ads.Destination) == "" }, "Qual é o destino da campanha (whatsapp, website ou profile)?"},
		{func(p Payload) bool { return p.Ads.DailyBudgetCents <= 0 }, "Qual é o orçamento diário da campanha?"},
		{func(p Payload) bool { return strings.TrimSpace(p.Ads.MediaKind) == "" }, "A campanha vai usar imagem ou vídeo?"},
	},
	OrderTypeSite: {
		{func(p Payload) bool { return strings.TrimSpace(p.Site.BusinessName) == "" }, "Qual é o nome do negócio?"},
		{func(p Payload) bool { return strings.TrimSpace(p.Site.Prompt) == "" }, "Descreva o negócio e o que o site deve destacar."},
	},
	OrderTypeContent: {
		{func(p Payload) bool { return strings.TrimSpace(p.Content.Topic) == "" }, "Sobre qual tema devemos criar o conteúdo?"},
		{func(p Payload) bool { return len(p.Content.Platforms) == 0 }, "Em quais plataformas o conteúdo será publicado?"},
	},
	OrderTypeVideoEdit: {
		{func(p Payload) bool { return strings.TrimSpace(p.VideoEdit.SourceAssetID) == "" }, "Envie o vídeo bruto que devemos editar."},
	},
}

// MissingFieldQuestion returns the question for the first required field the
// payload is missing, evaluated once per processing attempt.
func MissingFieldQuestion(orderType OrderType, payload Payload) (string, bool) {
	for _, check := range requiredFields[orderType] {
		if check.missing(payload) {
			return check.question, true
		}
	}
	return "", false
}
