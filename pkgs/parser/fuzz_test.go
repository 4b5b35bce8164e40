package parser

import (
	"errors"
	"testing"
)

// FuzzParserDeterminism verifies that parsing the same input twice yields
// the same program or the same error, and that error spans stay in bounds.
func FuzzParserDeterminism(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("main { }"))
	f.Add([]byte(`main { let mut x = 1; while (x < 10) { mut x += 1; }; println!(x); }`))
	f.Add([]byte("fn add(a: num, b: num) -> num { a + b } main { add(1, 2) }"))
	f.Add([]byte("main { let xs: [num] = [1, 2,]; list_push!(xs, 3); }"))

	// Edge cases
	f.Add([]byte("main"))
	f.Add([]byte("main { (1, 2"))
	f.Add([]byte("main { a -b }"))
	f.Add([]byte("\"unterminated string"))
	f.Add([]byte("main {\r\n  println!(\"hi\")\r\n}"))
	f.Add([]byte("main { 🚀 }"))
	f.Add([]byte("\xff\xfe\xfd"))

	f.Fuzz(func(t *testing.T, input []byte) {
		res1, err1 := Parse(input)
		res2, err2 := Parse(input)

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("non-deterministic outcome: %v vs %v", err1, err2)
		}

		if err1 != nil {
			var e1, e2 *Error
			if !errors.As(err1, &e1) || !errors.As(err2, &e2) {
				t.Fatalf("unexpected error type: %T", err1)
			}
			if *e1 != *e2 {
				t.Fatalf("non-deterministic error: %+v vs %+v", e1, e2)
			}
			for _, span := range []struct{ start, end int }{{e1.Span.Start, e1.Span.End}, {e1.Ctx.Start, e1.Ctx.End}} {
				if span.start < 0 || span.end > len(input) || span.start > span.end {
					t.Fatalf("span %d..%d out of bounds for input of length %d", span.start, span.end, len(input))
				}
			}
			return
		}

		if got1, got2 := res1.Program.String(), res2.Program.String(); got1 != got2 {
			t.Fatalf("non-deterministic program:\n%s\nvs\n%s", got1, got2)
		}
		if len(res1.Tokens) != len(res2.Tokens) {
			t.Fatalf("non-deterministic token count: %d vs %d", len(res1.Tokens), len(res2.Tokens))
		}
		for i := range res1.Tokens {
			if res1.Tokens[i] != res2.Tokens[i] {
				t.Fatalf("non-deterministic token at index %d", i)
			}
		}
	})
}
