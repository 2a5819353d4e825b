package verification

import "testing"

func TestGenerateCodeShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
		seen[code] = struct{}{}
	}
	// 200 draws from a million-value space should essentially never repeat
	// every time; a single distinct value would mean a broken generator.
	if len(seen) < 2 {
		t.Fatal("generator produced a constant value")
	}
}
