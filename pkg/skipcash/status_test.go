package skipcash

import (
	"encoding/json"
	"testing"

	"github.com/Fares-ag/blox-backend/pkg/enums"
)

func TestCanonicalStatusTotality(t *testing.T) {
	want := map[int]enums.PaymentStatus{
		0: enums.PaymentStatusPending,
		1: enums.PaymentStatusPending,
		2: enums.PaymentStatusCompleted,
		3: enums.PaymentStatusCancelled,
		4: enums.PaymentStatusFailed,
		5: enums.PaymentStatusFailed,
		6: enums.PaymentStatusCompleted,
		7: enums.PaymentStatusPending,
		8: enums.PaymentStatusFailed,
	}
	for code := 0; code <= 8; code++ {
		if got := CanonicalStatus(code); got != want[code] {
			t.Fatalf("code %d: got %s want %s", code, got, want[code])
		}
	}
}

func TestCanonicalStatusUnknownCode(t *testing.T) {
	for _, code := range []int{-1, 9, 42} {
		if got := CanonicalStatus(code); got != enums.PaymentStatusPending {
			t.Fatalf("code %d: got %s want pending", code, got)
		}
	}
}

func TestStatusIDUnmarshal(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`2`, 2},
		{`"2"`, 2},
		{`0`, 0},
		{`null`, 0},
	}
	for _, tc := range cases {
		var id StatusID
		if err := json.Unmarshal([]byte(tc.raw), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if id.Int() != tc.want {
			t.Fatalf("unmarshal %s: got %d want %d", tc.raw, id.Int(), tc.want)
		}
	}

	var id StatusID
	if err := json.Unmarshal([]byte(`"paid"`), &id); err == nil {
		t.Fatal("expected error for non-numeric status id")
	}
}
