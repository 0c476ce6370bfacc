package algorithm

import (
	"context"
	"errors"
	"testing"
)

type fakeAdapter struct {
	id string
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) Describe() Description {
	return Description{ID: f.id, Name: f.id}
}

func (f *fakeAdapter) Validate(in Inputs) []FieldError { return nil }

func (f *fakeAdapter) Run(ctx context.Context, in Inputs) (*Result, error) {
	return &Result{Confidence: 1}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&fakeAdapter{id: "xlr-liuren"}); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	adapter, err := registry.Get("xlr-liuren")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if adapter.ID() != "xlr-liuren" {
		t.Errorf("ID = %s, want xlr-liuren", adapter.ID())
	}
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(&fakeAdapter{id: "dup"}); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	if err := registry.Register(&fakeAdapter{id: "dup"}); err == nil {
		t.Error("duplicate registration accepted")
	}
}

func TestRegistryGetUnknownID(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("nope")
	if !errors.Is(err, ErrAdapterNotFound) {
		t.Errorf("err = %v, want ErrAdapterNotFound", err)
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err type = %T, want *NotFoundError", err)
	}
	if notFound.ID != "nope" {
		t.Errorf("NotFoundError.ID = %s, want nope", notFound.ID)
	}
}

func TestRegistryListOrderedByID(t *testing.T) {
	registry := NewRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(&fakeAdapter{id: id}); err != nil {
			t.Fatalf("Register(%s) error: %v", id, err)
		}
	}

	list := registry.List()
	want := []string{"alpha", "mid", "zeta"}
	if len(list) != len(want) {
		t.Fatalf("List length = %d, want %d", len(list), len(want))
	}
	for i, d := range list {
		if d.ID != want[i] {
			t.Errorf("List[%d].ID = %s, want %s", i, d.ID, want[i])
		}
	}
}

func TestResultFallbackUsed(t *testing.T) {
	var nilResult *Result
	if nilResult.FallbackUsed() {
		t.Error("nil result reported fallback")
	}
	if (&Result{}).FallbackUsed() {
		t.Error("empty meta reported fallback")
	}
	r := &Result{Meta: map[string]any{"fallback_used": true}}
	if !r.FallbackUsed() {
		t.Error("fallback_used=true not reported")
	}
}

func TestDescriptionFieldLookup(t *testing.T) {
	desc := Description{
		InputSchema: []FieldSchema{
			{Name: "num1", Type: "int", Required: true, Min: 1, Max: 6},
			{Name: "location", Type: "string"},
		},
	}

	if schema, ok := desc.Field("num1"); !ok || schema.Max != 6 {
		t.Errorf("Field(num1) = %+v ok=%v", schema, ok)
	}
	if _, ok := desc.Field("nope"); ok {
		t.Error("Field(nope) reported present")
	}
	if got := desc.RequiredFields(); len(got) != 1 || got[0] != "num1" {
		t.Errorf("RequiredFields = %v, want [num1]", got)
	}
}
