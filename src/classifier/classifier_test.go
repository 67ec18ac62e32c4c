package classifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"coin-dashboard/src/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind Kind
		msg  string
	}{
		{"rate limited", &helpers.FetchError{Query: "chart", Status: 429}, KindRateLimited, MsgRateLimited},
		{"transport", &helpers.FetchError{Query: "details", Transport: true}, KindNetwork, MsgNetwork},
		{"not found", &helpers.FetchError{Query: "details", Identifier: "nope", Status: 404},
			KindNotFound, `Cryptocurrency "nope" not found. The coin may have been delisted or the ID is incorrect.`},
		{"server", &helpers.FetchError{Query: "markets", Status: 502}, KindServerError, MsgServerError},
		{"details body", &helpers.FetchError{Query: "details", Status: 400, BodyError: "invalid vs_currency"}, KindUnknown, "Details Error: invalid vs_currency"},
		{"chart body", &helpers.FetchError{Query: "chart", Status: 200, BodyError: "malformed response: eof"}, KindUnknown, "Chart Error: malformed response: eof"},
		{"status only", &helpers.FetchError{Query: "chart", Status: 401}, KindUnknown, "API Error (401): Failed to load cryptocurrency data. Please try again."},
		{"plain error", errors.New("boom"), KindUnknown, MsgGeneric},
		{"deadline", fmt.Errorf("list: %w", context.DeadlineExceeded), KindNetwork, MsgNetwork},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.err)
			require.NotNil(t, c)
			assert.Equal(t, tc.kind, c.Kind)
			assert.Equal(t, tc.msg, c.Message)
		})
	}

	assert.Nil(t, Classify(nil))
}

// -----------------------------------------------------------------------------

func TestClassifyWrappedFetchError(t *testing.T) {
	err := fmt.Errorf("load: %w", &helpers.FetchError{Query: "global", Status: 429})
	assert.Equal(t, KindRateLimited, Classify(err).Kind)
}

// -----------------------------------------------------------------------------

func TestMergePrecedence(t *testing.T) {
	rate := Classify(&helpers.FetchError{Query: "details", Status: 429})
	network := Classify(&helpers.FetchError{Query: "chart", Transport: true})
	notFound := Classify(&helpers.FetchError{Query: "details", Identifier: "x", Status: 404})
	server := Classify(&helpers.FetchError{Query: "chart", Status: 500})
	unknown := Classify(&helpers.FetchError{Query: "chart", Status: 418})

	ordered := []*Classification{rate, network, notFound, server, unknown}
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			assert.Same(t, ordered[i], Merge(ordered[i], ordered[j]))
			assert.Same(t, ordered[i], Merge(ordered[j], ordered[i]))
		}
	}

	assert.Same(t, rate, Merge(nil, rate))
	assert.Same(t, rate, Merge(rate, nil))
	assert.Nil(t, Merge(nil, nil))
}

// -----------------------------------------------------------------------------

func TestMergeUnknownPrefersDetails(t *testing.T) {
	details := Classify(&helpers.FetchError{Query: "details", Status: 400, BodyError: "bad"})
	chart := Classify(&helpers.FetchError{Query: "chart", Status: 400, BodyError: "worse"})

	assert.Equal(t, "Details Error: bad", Merge(chart, details).Message)
	assert.Equal(t, "Details Error: bad", Merge(details, chart).Message)
}

// -----------------------------------------------------------------------------

func TestRateLimitOnOneQueryWins(t *testing.T) {
	var details *Classification
	chart := Classify(&helpers.FetchError{Query: "chart", Status: 429})

	merged := Merge(details, chart)
	require.NotNil(t, merged)
	assert.Equal(t, KindRateLimited, merged.Kind)
	assert.Equal(t, 429, merged.HTTPStatus())
}

// -----------------------------------------------------------------------------

func TestView(t *testing.T) {
	v := Classify(&helpers.FetchError{Query: "details", Identifier: "x", Status: 404}).View()
	assert.Equal(t, "not_found", v.Kind)
	assert.Equal(t, BackPath, v.BackPath)
	assert.Equal(t, 404, v.Status)

	v = Classify(&helpers.FetchError{Query: "chart", Status: 500}).View()
	assert.Empty(t, v.BackPath)

	var none *Classification
	assert.Nil(t, none.View())
}
