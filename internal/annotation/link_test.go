package annotation

import (
	"strings"
	"testing"
)

func TestLink_IDsAndSecondaries(t *testing.T) {
	src := "Foo(a, b); // Noncompliant [first, second]\n" +
		"Bar(); // Secondary [first]\n" +
		"Baz(); // Secondary [first, second]\n"

	exps, err := Link(mustParse(t, src, CFamily))
	if err != nil {
		t.Fatalf("Link() failed: %v", err)
	}
	if len(exps) != 2 {
		t.Fatalf("expected 2 expectations, got %d", len(exps))
	}
	if exps[0].ID != "first" || exps[1].ID != "second" {
		t.Errorf("unexpected ids: %q, %q", exps[0].ID, exps[1].ID)
	}
	if len(exps[0].Secondaries) != 2 {
		t.Errorf("expected 2 secondaries for 'first', got %d", len(exps[0].Secondaries))
	}
	if len(exps[1].Secondaries) != 1 || exps[1].Secondaries[0].Line != 3 {
		t.Errorf("expected 'second' to own the line 3 secondary, got %+v", exps[1].Secondaries)
	}
}

func TestLink_SecondaryBeforePrimary(t *testing.T) {
	src := "Bar(); // Secondary [p]\n" +
		"Foo(); // Noncompliant [p]\n"

	exps, err := Link(mustParse(t, src, CFamily))
	if err != nil {
		t.Fatalf("Link() failed: %v", err)
	}
	if len(exps) != 1 || len(exps[0].Secondaries) != 1 {
		t.Fatalf("expected secondary to link to later primary, got %+v", exps)
	}
}

func TestLink_UnlabelledSecondary(t *testing.T) {
	src := "Foo(); // Noncompliant\n" +
		"Bar(); // Secondary\n"

	exps, err := Link(mustParse(t, src, CFamily))
	if err != nil {
		t.Fatalf("Link() failed: %v", err)
	}
	if len(exps) != 1 || len(exps[0].Secondaries) != 1 {
		t.Fatalf("expected unlabelled secondary to attach, got %+v", exps)
	}
}

func TestLink_CountExpands(t *testing.T) {
	exps, err := Link(mustParse(t, "Foo(); // Noncompliant 3\n", CFamily))
	if err != nil {
		t.Fatalf("Link() failed: %v", err)
	}
	if len(exps) != 3 {
		t.Errorf("expected 3 expectations, got %d", len(exps))
	}
}

func TestLink_CompilerCodes(t *testing.T) {
	exps, err := Link(mustParse(t, "x = ; // Error [CS1525, CS1002]\n", CFamily))
	if err != nil {
		t.Fatalf("Link() failed: %v", err)
	}
	if len(exps) != 2 {
		t.Fatalf("expected 2 expectations, got %d", len(exps))
	}
	for i, code := range []string{"CS1525", "CS1002"} {
		if !exps[i].Compiler() {
			t.Errorf("expectation %d should be a compiler expectation", i)
		}
		if exps[i].Code != code {
			t.Errorf("expectation %d code = %q, want %q", i, exps[i].Code, code)
		}
	}
}

func TestLink_FixedProducesNothing(t *testing.T) {
	exps, err := Link(mustParse(t, "var x = 1; // Fixed\n", CFamily))
	if err != nil {
		t.Fatalf("Link() failed: %v", err)
	}
	if len(exps) != 0 {
		t.Errorf("expected no expectations, got %d", len(exps))
	}
}

func TestLink_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			name: "duplicate id",
			src:  "A(); // Noncompliant [x]\nB(); // Noncompliant [x]\n",
			msg:  `duplicate issue id "x"`,
		},
		{
			name: "unknown id",
			src:  "A(); // Noncompliant [x]\nB(); // Secondary [y]\n",
			msg:  `unknown issue id "y"`,
		},
		{
			name: "ambiguous unlabelled",
			src:  "A(); // Noncompliant\nB(); // Noncompliant\nC(); // Secondary\n",
			msg:  "found 2",
		},
		{
			name: "orphan secondary",
			src:  "C(); // Secondary\n",
			msg:  "found 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Link(mustParse(t, tt.src, CFamily))
			if err == nil {
				t.Fatal("expected link error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected error containing %q, got: %v", tt.msg, err)
			}
		})
	}
}
