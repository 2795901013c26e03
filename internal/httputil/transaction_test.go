package httputil

import (
	"net/http"
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestSetHTTPStatusCodeTag(t *testing.T) {
	e := &sentry.Event{}
	hint := &sentry.EventHint{Response: &http.Response{StatusCode: http.StatusBadGateway}}
	if got := SetHTTPStatusCodeTag(e, hint); got.Tags[HTTPStatusCodeTag] != "502" {
		t.Fatalf("tags = %v, want %s=502", got.Tags, HTTPStatusCodeTag)
	}
}

func TestSetHTTPStatusCodeTagNoResponse(t *testing.T) {
	e := &sentry.Event{}
	if got := SetHTTPStatusCodeTag(e, &sentry.EventHint{}); len(got.Tags) != 0 {
		t.Fatalf("event without a response should stay untagged, got %v", got.Tags)
	}
}

func TestSetHTTPStatusCodeTagKeepsExisting(t *testing.T) {
	e := &sentry.Event{Tags: map[string]string{HTTPStatusCodeTag: "418"}}
	hint := &sentry.EventHint{Response: &http.Response{StatusCode: http.StatusOK}}
	if got := SetHTTPStatusCodeTag(e, hint); got.Tags[HTTPStatusCodeTag] != "418" {
		t.Fatalf("existing tag overwritten: %v", got.Tags)
	}
}
