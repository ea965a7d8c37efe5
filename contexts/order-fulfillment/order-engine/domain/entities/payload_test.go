package entities

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParsePayloadAds(t *testing.T) {
	raw := json.RawMessage(`{
		"objective": "vender mais",
		"destination": "whatsapp",
		"daily_budget_cents": 5000,
		"media_kind": "image",
		"customer_name": "Padaria Central"
	}`)
	payload, err := ParsePayload(OrderTypeAds, raw)
	if err != nil {
		t.Fatalf("parse should succeed: %v", err)
	}
	if payload.Ads == nil || payload.Ads.Destination != "whatsapp" {
		t.Fatalf("expected decoded ads payload, got %+v", payload)
	}
	if _, missing := MissingFieldQuestion(OrderTypeAds, payload); missing {
		t.Fatalf("complete payload should have no missing fields")
	}
}

func TestParsePayloadRejectsUnknownField(t *testing.T) {
	_, err := ParsePayload(OrderTypeAds, json.RawMessage(`{"objetivo":"x"}`))
	if err == nil {
		t.Fatalf("unknown key should be rejected")
	}
}

func TestParsePayloadRejectsInvalidDestination(t *testing.T) {
	_, err := ParsePayload(OrderTypeAds, json.RawMessage(`{"destination":"email"}`))
	if err == nil {
		t.Fatalf("destination outside the enum should be rejected")
	}
}

func TestParsePayloadUnknownType(t *testing.T) {
	_, err := ParsePayload(OrderType("seo"), json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownPayloadType) {
		t.Fatalf("expected ErrUnknownPayloadType, got %v", err)
	}
}

func TestMissingFieldQuestionOrder(t *testing.T) {
	payload, err := ParsePayload(OrderTypeAds, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("empty payload should parse: %v", err)
	}
	question, missing := MissingFieldQuestion(OrderTypeAds, payload)
	if !missing {
		t.Fatalf("empty ads payload should have missing fields")
	}
	if !strings.Contains(question, "objetivo") {
		t.Fatalf("the objective question must come first, got %q", question)
	}

	payload, err = ParsePayload(OrderTypeAds, json.RawMessage(`{"objective":"vender mais"}`))
	if err != nil {
		t.Fatalf("partial payload should parse: %v", err)
	}
	question, missing = MissingFieldQuestion(OrderTypeAds, payload)
	if !missing || !strings.Contains(question, "destino") {
		t.Fatalf("expected the destination question next, got %q (missing=%v)", question, missing)
	}
}

func TestMissingFieldQuestionVideoEdit(t *testing.T) {
	payload, err := ParsePayload(OrderTypeVideoEdit, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("empty payload should parse: %v", err)
	}
	if _, missing := MissingFieldQuestion(OrderTypeVideoEdit, payload); !missing {
		t.Fatalf("video edit without a source asset must ask for it")
	}
}

func TestMergePayloadPatchAndClear(t *testing.T) {
	base := json.RawMessage(`{"objective":"vender mais","media_kind":"image"}`)
	patch := json.RawMessage(`{"destination":"website","media_kind":null}`)

	merged, err := MergePayload(OrderTypeAds, base, patch)
	if err != nil {
		t.Fatalf("merge should succeed: %v", err)
	}
	payload, err := ParsePayload(OrderTypeAds, merged)
	if err != nil {
		t.Fatalf("merged payload should parse: %v", err)
	}
	if payload.Ads.Objective != "vender mais" {
		t.Fatalf("untouched keys must survive, got %q", payload.Ads.Objective)
	}
	if payload.Ads.Destination != "website" {
		t.Fatalf("patched key missing, got %q", payload.Ads.Destination)
	}
	if payload.Ads.MediaKind != "" {
		t.Fatalf("null patch value must clear the key, got %q", payload.Ads.MediaKind)
	}
}

func TestMergePayloadRejectsInvalidResult(t *testing.T) {
	base := json.RawMessage(`{"objective":"vender mais"}`)
	patch := json.RawMessage(`{"destination":"carrier-pigeon"}`)
	if _, err := MergePayload(OrderTypeAds, base, patch); err == nil {
		t.Fatalf("merge must re-validate the result")
	}
}
