package probe

import (
	"strings"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/model"
)

// Classify maps a probe outcome to an existence verdict. It is pure and
// performs no I/O.
//
// Precedence, highest first:
//  1. A transport failure is Unknown regardless of any partial response.
//  2. A matched failure annotation (captcha wall, country ban) is Unknown
//     regardless of strategy.
//  3. The descriptor's detection strategy decides Claimed or Available.
//
// The returned context string is the failure description or annotation
// reason for Unknown verdicts, empty otherwise.
func Classify(d *catalog.SiteDescriptor, out Outcome) (model.QueryStatus, string) {
	if out.Failed() {
		return model.StatusUnknown, out.failureDescription()
	}

	for marker, reason := range d.FailureAnnotations {
		if strings.Contains(out.Body, marker) {
			return model.StatusUnknown, reason
		}
	}

	switch d.Strategy {
	case catalog.StrategyBodyMessage:
		for _, msg := range d.ErrorMessages {
			if strings.Contains(out.Body, msg) {
				return model.StatusAvailable, ""
			}
		}
		return model.StatusClaimed, ""
	case catalog.StrategyStatusCode:
		return statusFromCode(out.StatusCode), ""
	case catalog.StrategyRedirectURL:
		// Redirects were suppressed at dispatch time, so the status is
		// that of the original URL. A 3xx means the service redirected
		// away, implying absence.
		return statusFromCode(out.StatusCode), ""
	}

	// Unreachable: the loader rejects descriptors with unknown strategies.
	return model.StatusUnknown, "unknown detection strategy"
}

// statusFromCode applies the shared claimed window. Exactly the 2xx range
// counts as existing.
func statusFromCode(code int) model.QueryStatus {
	if code >= 200 && code < 300 {
		return model.StatusClaimed
	}
	return model.StatusAvailable
}
