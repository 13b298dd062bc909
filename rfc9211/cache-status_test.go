package rfc9211

import "testing"

func TestHitString(t *testing.T) {
	cs := CacheStatus{}
	cs.Hit()
	cs.TimeToLive = 30
	if s := cs.String(); s != "EasyRequest; hit; ttl=30" {
		t.Fatalf("Cache-Status is %s", s)
	}
}

func TestForwardString(t *testing.T) {
	cs := CacheStatus{}
	cs.Forward(FwdReasonUriMiss)
	cs.FwdStatus = 200
	cs.Stored = true
	if s := cs.String(); s != "EasyRequest; fwd=uri-miss; fwd-status=200; stored" {
		t.Fatalf("Cache-Status is %s", s)
	}
	if cs.IsHit() {
		t.Fatal("Forwarded response reported as hit")
	}
}
