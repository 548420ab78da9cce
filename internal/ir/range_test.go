package ir

import "testing"

func TestIterationRangeEqualIsEquivalence(t *testing.T) {
	a := IterationRange{Var: "i", Lower: "1", Upper: "n", Step: "1"}
	b := IterationRange{Var: "i", Lower: "1", Upper: "n", Step: "1"}
	c := IterationRange{Var: "i", Lower: "1", Upper: "n", Step: "1"}
	d := IterationRange{Var: "j", Lower: "1", Upper: "n", Step: "1"}

	if !a.Equal(a) {
		t.Fatal("not reflexive")
	}
	if a.Equal(b) != b.Equal(a) {
		t.Fatal("not symmetric")
	}
	if a.Equal(b) && b.Equal(c) && !a.Equal(c) {
		t.Fatal("not transitive")
	}
	if a.Equal(d) {
		t.Fatal("ranges with different induction variables compared equal")
	}
}

func doStatementWithRange(r IterationRange) *Node {
	n := NewNode(KindDoStatement)
	n.SetAttr(AttrVar, r.Var)
	n.AddChild(NewRawExpr(r.Lower))
	n.AddChild(NewRawExpr(r.Upper))
	n.AddChild(NewRawExpr(r.Step))
	n.AddChild(NewNode(KindBody))
	return n
}

func TestIterationRangeOfDefaultsStep(t *testing.T) {
	n := NewNode(KindDoStatement)
	n.SetAttr(AttrVar, "i")
	n.AddChild(NewRawExpr("1"))
	n.AddChild(NewRawExpr("10"))
	n.AddChild(NewNode(KindBody))

	r := IterationRangeOf(n)
	if r.Step != defaultStep {
		t.Fatalf("expected default step %q, got %q", defaultStep, r.Step)
	}
	if r.Lower != "1" || r.Upper != "10" {
		t.Fatalf("unexpected bounds: %+v", r)
	}
}

func TestIterationRangeOfRoundTrip(t *testing.T) {
	want := IterationRange{Var: "j", Lower: "1", Upper: "n", Step: "2"}
	n := doStatementWithRange(want)
	got := IterationRangeOf(n)
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
