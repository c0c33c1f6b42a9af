package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestFromStatus(t *testing.T) {
	cases := map[int]Kind{
		http.StatusNotFound:            KindNotFound,
		http.StatusBadRequest:          KindValidation,
		http.StatusUnprocessableEntity: KindValidation,
		http.StatusInternalServerError: KindNetwork,
		http.StatusUnauthorized:        KindNetwork,
	}
	for status, want := range cases {
		if got := FromStatus("list", status, "", nil).Kind; got != want {
			t.Errorf("status %d: Expected %s, got %s", status, want, got)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("delete task 4: %w", NotFound("delete", "4"))
	if !IsNotFound(err) {
		t.Errorf("Expected wrapped not-found error to be classified, got %s", KindOf(err))
	}
	if KindOf(context.DeadlineExceeded) != KindNetwork {
		t.Errorf("Expected deadline to be a network failure")
	}
	if KindOf(errors.New("boom")) != KindUnknown {
		t.Errorf("Expected plain error to be unknown")
	}
}

func TestErrorMessage(t *testing.T) {
	err := FromStatus("create", http.StatusBadRequest, "title too short", map[string]string{"title": "too short"})
	if err.Error() != "create: title too short (status 400)" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if UserMessage(err) != "The server rejected the task: title too short" {
		t.Errorf("Unexpected user message: %s", UserMessage(err))
	}
}

func TestNotFoundMessageDoesNotClaimReload(t *testing.T) {
	msg := UserMessage(NotFound("delete", "2"))
	if strings.Contains(msg, "refreshed") {
		t.Errorf("Not-found banner must not claim a reload happened: %s", msg)
	}
	if !strings.Contains(msg, "Reload") {
		t.Errorf("Expected not-found banner to ask for a reload, got %s", msg)
	}
}
