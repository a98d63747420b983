package dashboard

import "testing"

func TestJSONSchemaValidatorRejectsInvalidPayload(t *testing.T) {
	validator := NewJSONSchemaValidator()
	def, _ := NewRegistry().Definition(WidgetOrdersByStatus)
	if err := validator.Validate(def, map[string]any{"status": "shipped"}); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}
	if err := validator.Validate(def, map[string]any{"status": "lost"}); err == nil {
		t.Fatalf("expected validation error for status outside the enum")
	}
	if err := validator.Validate(def, map[string]any{}); err == nil {
		t.Fatalf("expected validation error for missing status")
	}
}

func TestJSONSchemaValidatorCachesCompiledSchemas(t *testing.T) {
	validator := NewJSONSchemaValidator()
	def := WidgetDefinition{
		Code:   "demo.widget.cache",
		Schema: map[string]any{"type": "object"},
	}
	if err := validator.Validate(def, nil); err != nil {
		t.Fatalf("unexpected error validating params: %v", err)
	}
	if len(validator.compiled) != 1 {
		t.Fatalf("expected schema cache to contain 1 entry, got %d", len(validator.compiled))
	}
	if err := validator.Validate(def, map[string]any{}); err != nil {
		t.Fatalf("unexpected error on cached validation: %v", err)
	}
	if len(validator.compiled) != 1 {
		t.Fatalf("expected schema cache to remain 1 entry, got %d", len(validator.compiled))
	}
}

func TestCoerceParamsAppliesSchemaTypes(t *testing.T) {
	def, _ := NewRegistry().Definition(WidgetBestSellers)

	got := CoerceParams(def, map[string]string{"days": " 7 ", "limit": ""})
	if got["days"] != 7 {
		t.Fatalf("expected days=7, got %#v", got["days"])
	}
	if got["limit"] != 5 {
		t.Fatalf("expected default limit 5, got %#v", got["limit"])
	}

	got = CoerceParams(def, map[string]string{"days": "seven"})
	if got["days"] != "seven" {
		t.Fatalf("expected unparsable days kept as text, got %#v", got["days"])
	}
	if err := NewJSONSchemaValidator().Validate(def, got); err == nil {
		t.Fatalf("expected unparsable days to fail validation")
	}
}

func TestDefaultParamsRenderSchemaDefaults(t *testing.T) {
	reg := NewRegistry()
	cases := map[string]map[string]string{
		WidgetLowStock:       {"threshold": "10"},
		WidgetBestSellers:    {"days": "30", "limit": "5"},
		WidgetRevenue:        {"days": "30"},
		WidgetOrdersByStatus: {"status": "pending"},
	}
	for code, want := range cases {
		def, ok := reg.Definition(code)
		if !ok {
			t.Fatalf("missing definition %s", code)
		}
		got := DefaultParams(def)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v, got %v", code, want, got)
		}
		for k, v := range want {
			if got[k] != v {
				t.Fatalf("%s: expected %s=%s, got %s", code, k, v, got[k])
			}
		}
	}
}
