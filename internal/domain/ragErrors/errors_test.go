package ragErrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := New(KindIngestionFailed, "ingest.upsert", "doc-1", errors.New("disk full"))
	wrapped := fmt.Errorf("worker: %w", err)

	if !errors.Is(wrapped, ErrIngestionFailed) {
		t.Fatalf("expected wrapped error to match ErrIngestionFailed")
	}
	if errors.Is(wrapped, ErrStoreUnavailable) {
		t.Fatalf("did not expect a match on a different kind")
	}
	if KindOf(wrapped) != KindIngestionFailed {
		t.Errorf("KindOf got %s", KindOf(wrapped))
	}
}

func TestErrorMessageCarriesContext(t *testing.T) {
	err := New(KindStoreUnavailable, "qdrant.delete", "report_2024", errors.New("connection refused"))
	want := "qdrant.delete: STORE_UNAVAILABLE (document report_2024): connection refused"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestFromExternal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline becomes timeout", fmt.Errorf("rpc: %w", context.DeadlineExceeded), KindTimeout},
		{"plain error gets supplied kind", errors.New("refused"), KindStoreUnavailable},
		{"classified error keeps its kind", New(KindInvalidDocument, "inner", "", nil), KindInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromExternal(KindStoreUnavailable, "op", "doc", tt.err)
			if KindOf(got) != tt.want {
				t.Errorf("got %s, want %s", KindOf(got), tt.want)
			}
		})
	}

	if FromExternal(KindStoreUnavailable, "op", "", nil) != nil {
		t.Error("nil error must stay nil")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(New(KindTimeout, "", "", nil)) {
		t.Error("timeouts should be retryable")
	}
	if Retryable(New(KindInvalidDocument, "", "", nil)) {
		t.Error("invalid documents should not be retryable")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("unclassified errors are internal")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{New(KindInvalidConfiguration, "op", "", nil), http.StatusBadRequest},
		{New(KindInvalidDocument, "op", "d", nil), http.StatusBadRequest},
		{New(KindInvalidQuery, "op", "", nil), http.StatusBadRequest},
		{New(KindEmptyAggregateSet, "op", "", nil), http.StatusUnprocessableEntity},
		{New(KindStoreUnavailable, "op", "", nil), http.StatusServiceUnavailable},
		{New(KindAdapterUnavailable, "op", "", nil), http.StatusServiceUnavailable},
		{New(KindTimeout, "op", "", nil), http.StatusGatewayTimeout},
		{New(KindIngestionFailed, "op", "", nil), http.StatusInternalServerError},
		{New(KindNoResultsFound, "op", "", nil), http.StatusOK},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(errors.New("secret dsn")); got != "Internal Server Error" {
		t.Errorf("internal error leaked: %q", got)
	}
	err := Newf(KindInvalidQuery, "retrieve", "", "query is empty")
	if got := PublicMessage(err); got != err.Error() {
		t.Errorf("PublicMessage = %q, want %q", got, err.Error())
	}
}
