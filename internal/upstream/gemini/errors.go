package gemini

import (
	"errors"
	"net/http"

	"cushionflow/internal/cushion"

	"google.golang.org/genai"
)

// classifyError maps a provider failure to an invocation error. Transport,
// credential and server-side failures mean the provider is unavailable; any
// other API rejection (quota, bad request, unknown model) is a provider error.
func classifyError(err error) error {
	if apiErr, ok := asAPIError(err); ok {
		switch {
		case apiErr.Code == http.StatusUnauthorized,
			apiErr.Code == http.StatusForbidden,
			apiErr.Code >= http.StatusInternalServerError:
			return cushion.InvocationError(cushion.ReasonProviderUnavailable, err)
		default:
			return cushion.InvocationError(cushion.ReasonProviderError, err)
		}
	}
	return cushion.InvocationError(cushion.ReasonProviderUnavailable, err)
}

func statusFromError(err error) int {
	if apiErr, ok := asAPIError(err); ok && apiErr.Code > 0 {
		return apiErr.Code
	}
	return 0
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}
