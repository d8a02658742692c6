package models

import (
	"encoding/json"
	"testing"
)

func TestFlexNumberCoercion(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`{"fiatAmount": 5000}`, 5000},
		{`{"fiatAmount": "1234.5"}`, 1234.5},
		{`{"fiatAmount": " 42 "}`, 42},
		{`{"fiatAmount": "not-a-number"}`, 0},
		{`{"fiatAmount": true}`, 0},
		{`{"fiatAmount": null}`, 0},
		{`{}`, 0},
	}

	for _, tc := range cases {
		var input CreateOrderInput
		if err := json.Unmarshal([]byte(tc.raw), &input); err != nil {
			t.Fatalf("%s: malformed numerics must never reject the request: %v", tc.raw, err)
		}
		if input.FiatAmount.Float64() != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.raw, input.FiatAmount.Float64(), tc.want)
		}
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	snap := OrderSnapshot{
		OrderID: "o1",
		Buyer:   &Participant{DisplayName: "alice"},
		Attachments: []Attachment{
			{ID: "a1", Name: "receipt"},
		},
	}

	clone := snap.Clone()
	clone.Buyer.DisplayName = "mallory"
	clone.Attachments[0].Name = "tampered"

	if snap.Buyer.DisplayName != "alice" {
		t.Fatal("clone must not alias participant pointers")
	}
	if snap.Attachments[0].Name != "receipt" {
		t.Fatal("clone must not alias the attachment slice")
	}
}

func TestSellerSerializesAsNullUntilSet(t *testing.T) {
	data, err := json.Marshal(OrderSnapshot{OrderID: "o1"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	v, present := decoded["seller"]
	if !present || v != nil {
		t.Fatalf("seller must serialize as explicit null, got %v (present=%v)", v, present)
	}
}
