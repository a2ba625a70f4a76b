package config

import "testing"

func testParams() *Params {
	return NewParams(map[string]any{
		"secret": "top-secret",
		"webhook": map[string]any{
			"url":             "https://example.com/hook",
			"max_connections": 40,
			"allowed_updates": []any{},
		},
		"cron": map[string]any{
			"groups": map[string]any{
				"default": []any{"/cleanup"},
			},
		},
		"validate_request": false,
	})
}

func TestParamsDottedLookup(t *testing.T) {
	p := testParams()

	if got := p.String("webhook.url", ""); got != "https://example.com/hook" {
		t.Errorf("String(webhook.url) = %q", got)
	}
	if got := p.Int("webhook.max_connections", 0); got != 40 {
		t.Errorf("Int(webhook.max_connections) = %d, want 40", got)
	}
	if got := p.Bool("validate_request", true); got != false {
		t.Error("Bool(validate_request) = true, want false")
	}
	if got := p.String("missing.path", "fallback"); got != "fallback" {
		t.Errorf("String(missing.path) = %q, want fallback", got)
	}
}

func TestParamsOverridesWin(t *testing.T) {
	p := testParams().With(map[string]string{
		"secret": "per-request",
		"l":      "60",
	})

	if got := p.String("secret", ""); got != "per-request" {
		t.Errorf("override secret = %q, want per-request", got)
	}
	if got := p.Int("l", 0); got != 60 {
		t.Errorf("override l = %d, want 60", got)
	}

	// The original store is unchanged.
	if got := testParams().String("secret", ""); got != "top-secret" {
		t.Errorf("base secret = %q, want top-secret", got)
	}
}

func TestParamsPresence(t *testing.T) {
	p := testParams()

	if _, ok := p.Lookup("l"); ok {
		t.Error("Lookup(l) should be absent")
	}

	withL := p.With(map[string]string{"l": ""})
	if v, ok := withL.LookupString("l"); !ok || v != "" {
		t.Errorf("LookupString(l) = (%q, %v), want present empty string", v, ok)
	}
}

func TestParamsEmptyListIsPresent(t *testing.T) {
	p := testParams()

	list, ok := p.LookupStringSlice("webhook.allowed_updates")
	if !ok {
		t.Fatal("allowed_updates should be present")
	}
	if list == nil || len(list) != 0 {
		t.Errorf("allowed_updates = %v, want empty non-nil list", list)
	}

	if _, ok := p.LookupStringSlice("webhook.certificate"); ok {
		t.Error("certificate should be absent")
	}
}

func TestParamsStringSliceCoercion(t *testing.T) {
	p := testParams()
	got := p.StringSlice("cron.groups.default")
	if len(got) != 1 || got[0] != "/cleanup" {
		t.Errorf("StringSlice(cron.groups.default) = %v, want [/cleanup]", got)
	}
}
