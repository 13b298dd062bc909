package rfc9111

import (
	"testing"
	"time"
)

func TestMaxAge(t *testing.T) {
	cc := ParseCacheControl([]string{"max-age=60"})
	val, ok := cc.Get("max-age")
	if !ok {
		t.Fatal("Could not get directive")
	}
	if val != "60" {
		t.Fatalf("Value is %s", val)
	}
	if d, ok := cc.MaxAge(); !ok || d != time.Minute {
		t.Fatalf("MaxAge is %s", d)
	}
}

func TestReal(t *testing.T) {
	cc := ParseCacheControl([]string{"public, max-age=0, s-maxage=600"})
	if val, ok := cc.Get("public"); !ok || val != "" {
		t.Fatalf("val: '%s', ok: %v", val, ok)
	}
	if val, ok := cc.Get("max-age"); !ok || val != "0" {
		t.Fatalf("val: '%s', ok: %v", val, ok)
	}
	if val, ok := cc.Get("s-maxage"); !ok || val != "600" {
		t.Fatalf("val: '%s', ok: %v", val, ok)
	}
}

func TestDirectivesAreCaseInsensitiveAndUnquoted(t *testing.T) {
	cc := ParseCacheControl([]string{"No-Store,Max-Age=\"30\""})
	if !cc.HasDirective("no-store") {
		t.Fatal("no-store not found")
	}
	if d, ok := cc.MaxAge(); !ok || d != 30*time.Second {
		t.Fatalf("MaxAge is %s", d)
	}
}
