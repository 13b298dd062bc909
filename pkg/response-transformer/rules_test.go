package responsetransformer

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
)

func makeRes(method, path string) *http.Response {
	req, _ := http.NewRequest(method, "http://example.com"+path, nil)
	return &http.Response{StatusCode: 200, Request: req, Header: make(http.Header)}
}

func TestRuleFinder(t *testing.T) {
	logger := zerolog.Nop()
	rules := Rules{
		Rule{Prefix: "/wp-", Override: "no-cache"},
		Rule{Method: "POST", Path: "/search", Override: "max-age=60"},
		Rule{Query: map[string]string{"page": ""}, Override: "paged"},
		Rule{Override: "default"},
	}

	if rule := rules.find(makeRes("GET", "/"), logger); rule == nil || rule.Override != "default" {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeRes("GET", "/wp-admin"), logger); rule == nil || rule.Override != "no-cache" {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeRes("POST", "/wp-admin"), logger); rule != nil {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeRes("post", "/search"), logger); rule == nil || rule.Override != "max-age=60" {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeRes("GET", "/list?page=2"), logger); rule == nil || rule.Override != "paged" {
		t.Fatal("Incorrect rule")
	}
}

func TestApply(t *testing.T) {
	logger := zerolog.Nop()
	res := &http.Response{Header: make(http.Header)}
	ruleDefault := Rule{Default: "default"}
	ruleOverride := Rule{Override: "override", Headers: map[string]string{"X-Rule": "yes"}}

	// try to apply default
	applyRuleToResponse(ruleDefault, res, logger)
	if cc := res.Header.Get("Cache-Control"); cc != "default" {
		t.Fatalf("Cache-Control header wrong, is '%s'", cc)
	}

	// change cc and check default is not set
	res.Header.Set("Cache-Control", "no-cache")
	applyRuleToResponse(ruleDefault, res, logger)
	if cc := res.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("Cache-Control header wrong, is '%s'", cc)
	}

	// check that override works
	applyRuleToResponse(ruleOverride, res, logger)
	if cc := res.Header.Get("Cache-Control"); cc != "override" {
		t.Fatalf("Cache-Control header wrong, is '%s'", cc)
	}
	if res.Header.Get("X-Rule") != "yes" {
		t.Fatal("Rule header not set")
	}
}

func TestApplySkipsFailures(t *testing.T) {
	res := makeRes("GET", "/")
	res.StatusCode = 500
	Rules{Rule{Override: "max-age=10"}}.Apply(res, zerolog.Nop())
	if cc := res.Header.Get("Cache-Control"); cc != "" {
		t.Fatalf("Rule applied to failure: %s", cc)
	}

	res.StatusCode = 200
	Rules{Rule{Override: "max-age=10"}}.Apply(res, zerolog.Nop())
	if cc := res.Header.Get("Cache-Control"); cc != "max-age=10" {
		t.Fatalf("Rule not applied: %s", cc)
	}
}

func TestValidate(t *testing.T) {
	if err := (Rules{Rule{Prefix: "/a", Default: "max-age=1"}}).Validate(); err != nil {
		t.Fatalf("Valid rules rejected: %v", err)
	}
	err := Rules{
		Rule{Path: "/a", Prefix: "/b", Override: "x"},
		Rule{},
	}.Validate()
	if err == nil {
		t.Fatal("Invalid rules accepted")
	}
}
