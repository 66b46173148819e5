package vector

import (
	"math"
	"testing"
)

func TestInnerProduct(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0.5, 0.5, 0}
	if got := InnerProduct(a, b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("InnerProduct = %v, want 0.5", got)
	}
	if got := InnerProduct(a, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %v", got)
	}
}

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if got := L2Norm(v); math.Abs(got-1) > 1e-6 {
		t.Errorf("norm after Normalize = %v", got)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize([3 4]) = %v", v)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for _, x := range v {
		if x != 0 {
			t.Fatalf("zero vector changed: %v", v)
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.14159, 0}
	blob := Encode(in)
	if len(blob) != len(in)*4 {
		t.Fatalf("blob length = %d", len(blob))
	}
	out, err := Decode(blob, len(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: %v != %v", i, in[i], out[i])
		}
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	if _, err := Decode(make([]byte, 7), 2); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestTopKOrderedDescending(t *testing.T) {
	query := Normalize([]float32{1, 0})
	ids := []string{"a", "b", "c"}
	vecs := [][]float32{
		Normalize([]float32{0, 1}),
		Normalize([]float32{1, 0}),
		Normalize([]float32{1, 1}),
	}
	got, err := TopK(query, ids, vecs, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("order = %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("scores not descending: %v < %v", got[0].Score, got[1].Score)
	}
}

func TestTopKFewerThanK(t *testing.T) {
	got, err := TopK([]float32{1}, []string{"only"}, [][]float32{{1}}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}

func TestTopKDimensionMismatch(t *testing.T) {
	if _, err := TopK([]float32{1, 0}, []string{"a"}, [][]float32{{1}}, 1); err == nil {
		t.Error("expected dimension error")
	}
}
