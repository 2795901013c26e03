package symbolname

import (
	"testing"
)

func TestNormalizeDisplay(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "unmanaged sentinel",
			raw:  "UNMANAGED_CODE_TIME",
			want: "Unmanaged Code",
		},
		{
			name: "unmanaged sentinel with trailing annotation",
			raw:  "UNMANAGED_CODE_TIME (0x7ffd00000000)",
			want: "Unmanaged Code",
		},
		{
			name: "empty symbol",
			raw:  "",
			want: "Unmanaged Code",
		},
		{
			name: "no type or method component",
			raw:  "main",
			want: "Unmanaged Code",
		},
		{
			name: "plain method",
			raw:  "MyApp.Program.Main(System.String[])",
			want: "Program.Main",
		},
		{
			name: "module prefix",
			raw:  "System.Private.CoreLib!System.String.Concat(System.String,System.String)",
			want: "String.Concat",
		},
		{
			name: "generic collection method",
			raw:  "System.Collections.Generic.List`1[System.__Canon].Add(!0)",
			want: "List<__Canon>.Add",
		},
		{
			name: "generic dictionary with two arguments",
			raw:  "System.Collections.Generic.Dictionary`2[System.String,System.Int32].TryGetValue(!0,!1&)",
			want: "Dictionary<String,Int32>.TryGetValue",
		},
		{
			name: "nested type",
			raw:  "System.Collections.Generic.List`1+Enumerator[System.Int32].MoveNext()",
			want: "Enumerator<Int32>.MoveNext",
		},
		{
			name: "constructor",
			raw:  "MyApp.Widget..ctor(System.Int32)",
			want: "Widget.ctor",
		},
		{
			name: "async state machine",
			raw:  "MyApp.Evaluator+<EvaluateAsync>d__3.MoveNext()",
			want: "StateMachine.EvaluateAsync.MoveNext",
		},
		{
			name: "local function state machine",
			raw:  "MyApp.Program+<<Main>g__Work|0_1>d__5.MoveNext()",
			want: "StateMachine.Work.MoveNext",
		},
		{
			name: "lambda in static closure class",
			raw:  "MyApp.PromiseConstructor+<>c.<AttachStatics>b__18_0()",
			want: "PromiseConstructor.AttachStatics lambda",
		},
		{
			name: "lambda in display class",
			raw:  "MyApp.Program+<>c__DisplayClass0_0.<Main>b__0()",
			want: "Program.Main lambda",
		},
		{
			name: "lambda directly on declaring type",
			raw:  "MyApp.Program.<Main>b__0_0()",
			want: "Main lambda",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDisplay(tt.raw)
			if got != tt.want {
				t.Fatalf("NormalizeDisplay(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			// Normalization must be idempotent.
			if again := NormalizeDisplay(got); again != got {
				t.Fatalf("NormalizeDisplay not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeMatchAgreesWithDisplay(t *testing.T) {
	raws := []string{
		"UNMANAGED_CODE_TIME",
		"MyApp.Program.Main()",
		"System.Collections.Generic.List`1[System.__Canon].Add(!0)",
		"MyApp.Evaluator+<EvaluateAsync>d__3.MoveNext()",
	}
	for _, raw := range raws {
		if m, d := NormalizeMatch(raw), NormalizeDisplay(raw); m != d {
			t.Fatalf("match/display disagree for %q: %q != %q", raw, m, d)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"System.String", "String"},
		{"System.Collections.Generic.Dictionary`2[System.String,System.Int32]", "Dictionary<String,Int32>"},
		{"System.Byte[]", "Byte<>"},
		{"System.Int32[,]", "Int32<,>"},
		{"MyApp.Orders.Order", "Order"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.raw); got != tt.want {
			t.Fatalf("NormalizeType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
		if got := NormalizeType(NormalizeType(tt.raw)); got != NormalizeType(tt.raw) {
			t.Fatalf("NormalizeType not idempotent for %q", tt.raw)
		}
	}
}
