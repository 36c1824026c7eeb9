package config

import (
	"strings"
	"testing"
)

func TestNewValidatorUsesJSONNames(t *testing.T) {
	type payload struct {
		HomeLocation string `json:"homeLocation" validate:"max=3"`
	}

	err := NewValidator().Struct(payload{HomeLocation: "too long"})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "homeLocation") {
		t.Errorf("expected the JSON field name, got %v", err)
	}
}
