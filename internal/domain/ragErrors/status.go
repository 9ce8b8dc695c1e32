package ragErrors

import "net/http"

// HTTPStatus maps an error to the status code the HTTP layer answers with.
// NoResultsFound is a successful, empty response.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindInvalidConfiguration, KindInvalidDocument, KindInvalidQuery:
		return http.StatusBadRequest
	case KindEmptyAggregateSet:
		return http.StatusUnprocessableEntity
	case KindStoreUnavailable, KindAdapterUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindNoResultsFound:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text shown to API callers. Internal failures are not described.
func PublicMessage(err error) string {
	if KindOf(err) == KindInternal {
		return "Internal Server Error"
	}
	return err.Error()
}
