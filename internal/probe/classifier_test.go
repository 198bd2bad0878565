package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/model"
)

// TestClassify covers the precedence rules and all three strategies.
func TestClassify(t *testing.T) {
	t.Parallel()

	statusSite := &catalog.SiteDescriptor{
		Name:     "StatusSite",
		Strategy: catalog.StrategyStatusCode,
	}
	messageSite := &catalog.SiteDescriptor{
		Name:          "MessageSite",
		Strategy:      catalog.StrategyBodyMessage,
		ErrorMessages: []string{"User not found", "page does not exist"},
	}
	redirectSite := &catalog.SiteDescriptor{
		Name:     "RedirectSite",
		Strategy: catalog.StrategyRedirectURL,
	}
	annotatedSite := &catalog.SiteDescriptor{
		Name:          "AnnotatedSite",
		Strategy:      catalog.StrategyBodyMessage,
		ErrorMessages: []string{"User not found"},
		FailureAnnotations: map[string]string{
			"Access denied in your country": "country ban",
			"Please complete the captcha":   "captcha wall",
		},
	}

	tests := []struct {
		name        string
		site        *catalog.SiteDescriptor
		outcome     Outcome
		wantStatus  model.QueryStatus
		wantContext string
	}{
		{
			name:       "status code 200 is claimed",
			site:       statusSite,
			outcome:    Outcome{StatusCode: 200},
			wantStatus: model.StatusClaimed,
		},
		{
			name:       "status code 299 is claimed",
			site:       statusSite,
			outcome:    Outcome{StatusCode: 299},
			wantStatus: model.StatusClaimed,
		},
		{
			name:       "status code 300 is available",
			site:       statusSite,
			outcome:    Outcome{StatusCode: 300},
			wantStatus: model.StatusAvailable,
		},
		{
			name:       "status code 404 is available",
			site:       statusSite,
			outcome:    Outcome{StatusCode: 404},
			wantStatus: model.StatusAvailable,
		},
		{
			name:        "transport failure is unknown",
			site:        statusSite,
			outcome:     Outcome{Err: context.DeadlineExceeded, ErrKind: ErrorKindTimeout},
			wantStatus:  model.StatusUnknown,
			wantContext: "timeout: context deadline exceeded",
		},
		{
			name:       "error message present is available",
			site:       messageSite,
			outcome:    Outcome{StatusCode: 200, Body: "<html>User not found</html>"},
			wantStatus: model.StatusAvailable,
		},
		{
			name:       "second error message also matches",
			site:       messageSite,
			outcome:    Outcome{StatusCode: 200, Body: "this page does not exist here"},
			wantStatus: model.StatusAvailable,
		},
		{
			name:       "error message absent is claimed",
			site:       messageSite,
			outcome:    Outcome{StatusCode: 200, Body: "<html>alice's profile</html>"},
			wantStatus: model.StatusClaimed,
		},
		{
			name:       "redirect status 200 is claimed",
			site:       redirectSite,
			outcome:    Outcome{StatusCode: 200},
			wantStatus: model.StatusClaimed,
		},
		{
			name:       "redirect status 302 is available",
			site:       redirectSite,
			outcome:    Outcome{StatusCode: 302},
			wantStatus: model.StatusAvailable,
		},
		{
			name:        "failure annotation beats error message",
			site:        annotatedSite,
			outcome:     Outcome{StatusCode: 200, Body: "User not found. Please complete the captcha."},
			wantStatus:  model.StatusUnknown,
			wantContext: "captcha wall",
		},
		{
			name:        "failure annotation beats claimed",
			site:        annotatedSite,
			outcome:     Outcome{StatusCode: 200, Body: "profile page Access denied in your country"},
			wantStatus:  model.StatusUnknown,
			wantContext: "country ban",
		},
		{
			name:        "transport failure beats failure annotation",
			site:        annotatedSite,
			outcome:     Outcome{Body: "Please complete the captcha", Err: errors.New("boom"), ErrKind: ErrorKindGeneric},
			wantStatus:  model.StatusUnknown,
			wantContext: "request error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, note := Classify(tt.site, tt.outcome)
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
			if tt.wantContext != "" && note != tt.wantContext {
				t.Errorf("context = %q, want %q", note, tt.wantContext)
			}
		})
	}
}

// TestClassifyDeterministic verifies the classifier is pure: identical
// inputs always yield identical outputs.
func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	site := &catalog.SiteDescriptor{
		Name:          "Site",
		Strategy:      catalog.StrategyBodyMessage,
		ErrorMessages: []string{"not found"},
	}
	out := Outcome{StatusCode: 200, Body: "profile"}

	first, _ := Classify(site, out)
	for range 10 {
		status, _ := Classify(site, out)
		if status != first {
			t.Fatal("classification must be deterministic")
		}
	}
}

// TestKindOfError verifies transport error classification.
func TestKindOfError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ErrorKindGeneric},
		{"deadline exceeded", context.DeadlineExceeded, ErrorKindTimeout},
		{"net timeout", &net.DNSError{IsTimeout: true}, ErrorKindTimeout},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrorKindConnection},
		{"socks dial", errors.New("socks connect tcp 127.0.0.1:9050: unreachable"), ErrorKindProxy},
		{"http proxy", errors.New("proxyconnect tcp: connection refused"), ErrorKindProxy},
		{"generic", errors.New("mystery"), ErrorKindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOfError(tt.err); got != tt.want {
				t.Errorf("KindOfError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

// TestOutcomeFailureDescription verifies the Unknown context message shape.
func TestOutcomeFailureDescription(t *testing.T) {
	t.Parallel()

	out := Outcome{
		Elapsed: time.Second,
		Err:     errors.New("dial tcp: refused"),
		ErrKind: ErrorKindConnection,
	}
	want := "connection error: dial tcp: refused"
	if got := out.failureDescription(); got != want {
		t.Errorf("failureDescription() = %q, want %q", got, want)
	}
	if (Outcome{StatusCode: 200}).failureDescription() != "" {
		t.Error("delivered outcomes must have an empty failure description")
	}
}
