package llm

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name      string
		msg       string
		retryable bool
		check     func(error) bool
	}{
		{"auth", "401 unauthorized", false, func(e error) bool { var x *AuthenticationError; return errors.As(e, &x) }},
		{"rate limit", "429 rate limit exceeded", true, func(e error) bool { var x *RateLimitError; return errors.As(e, &x) }},
		{"context length", "maximum context length exceeded", false, func(e error) bool { var x *ContextLengthError; return errors.As(e, &x) }},
		{"server", "502 bad gateway", true, func(e error) bool { var x *ServerError; return errors.As(e, &x) }},
		{"timeout", "context deadline exceeded", true, func(e error) bool { var x *RequestTimeoutError; return errors.As(e, &x) }},
		{"network", "connection refused", true, func(e error) bool { var x *NetworkError; return errors.As(e, &x) }},
		{"unknown", "something novel happened", true, func(e error) bool { var x *ProviderError; return errors.As(e, &x) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyError("openai", errors.New(tc.msg))
			if !tc.check(err) {
				t.Errorf("wrong type for %q: %T", tc.msg, err)
			}
			if IsRetryable(err) != tc.retryable {
				t.Errorf("IsRetryable(%q) = %v, want %v", tc.msg, IsRetryable(err), tc.retryable)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if classifyError("openai", nil) != nil {
		t.Fatal("nil must classify to nil")
	}
}

func TestSDKErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := classifyError("openai", cause)
	if !errors.Is(err, cause) {
		t.Fatal("classified error must wrap the original")
	}
}

func TestIsRetryableNil(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatal("nil is not retryable")
	}
}
