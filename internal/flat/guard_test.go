package flat

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOrGuardIdentityAndAbsorption(t *testing.T) {
	a := Ref{Value: 1}
	cases := []struct {
		name       string
		old, added Guard
		want       Guard
	}{
		{"never is identity", Never{}, a, a},
		{"never on the right", a, Never{}, a},
		{"must absorbs", Must{}, a, Must{}},
		{"must absorbs on the right", a, Must{}, Must{}},
		{"plain pair", a, Ref{Value: 2}, Or{a, Ref{Value: 2}}},
		{"or is extended", Or{a, Ref{Value: 2}}, Ref{Value: 3}, Or{a, Ref{Value: 2}, Ref{Value: 3}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, OrGuard(tc.old, tc.added)); diff != "" {
				t.Fatalf("OrGuard mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrGuardDoesNotAliasExistingList(t *testing.T) {
	base := make(Or, 2, 8)
	base[0], base[1] = Ref{Value: 1}, Ref{Value: 2}
	left := OrGuard(base, Ref{Value: 3}).(Or)
	right := OrGuard(base, Ref{Value: 4}).(Or)
	if left[2] != (Ref{Value: 3}) || right[2] != (Ref{Value: 4}) {
		t.Fatalf("merges share storage: %v / %v", left, right)
	}
	if len(base) != 2 {
		t.Fatalf("base guard was modified: %v", base)
	}
}

func TestAndGuardDoesNotSimplify(t *testing.T) {
	got := AndGuard(Must{}, Ref{Value: 5})
	if diff := cmp.Diff(Guard(And{Must{}, Ref{Value: 5}}), got); diff != "" {
		t.Fatalf("AndGuard mismatch (-want +got):\n%s", diff)
	}
}

func TestGuardString(t *testing.T) {
	g := AndGuard(Must{}, Not{Inner: Or{Ref{Value: 1}, Ref{Value: 2}}})
	if got, want := g.String(), "(must & !(v1 | v2))"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestGuardRefs(t *testing.T) {
	g := And{Ref{Value: 7}, Not{Inner: Or{Ref{Value: 2}, Ref{Value: 7}}}, Must{}}
	if diff := cmp.Diff([]ValueID{2, 7}, GuardRefs(g)); diff != "" {
		t.Fatalf("GuardRefs mismatch (-want +got):\n%s", diff)
	}
	if refs := GuardRefs(Never{}); len(refs) != 0 {
		t.Fatalf("expected no refs for never, got %v", refs)
	}
}
