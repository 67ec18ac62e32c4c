// Package classifier maps fetch failures to user-facing error kinds and messages.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"coin-dashboard/src/helpers"
	"coin-dashboard/src/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is the category of a failure shown to the user.
type Kind string

const (
	KindRateLimited Kind = "rate_limited"
	KindNotFound    Kind = "not_found"
	KindNetwork     Kind = "network"
	KindServerError Kind = "server_error"
	KindUnknown     Kind = "unknown"
)

// User messages
const (
	MsgRateLimited = "Rate limit exceeded. CoinGecko API allows limited requests for free accounts. Please try again in a few minutes."
	MsgNetwork     = "Network error. Please check your internet connection and try again."
	MsgServerError = "CoinGecko server is currently unavailable. Please try again later."
	MsgGeneric     = "Failed to load cryptocurrency data. Please try again."
	msgNotFound    = "Cryptocurrency %q not found. The coin may have been delisted or the ID is incorrect."
	msgNoData      = "The requested market data was not found."
	msgStatus      = "API Error (%d): Failed to load cryptocurrency data. Please try again."
)

// DetailsQuery wins ties between two unknown failures.
const DetailsQuery = "details"

// BackPath is where a not-found view sends the user.
const BackPath = "/api/coins"

// precedence ranks kinds; higher wins a merge
var precedence = map[Kind]int{
	KindRateLimited: 5,
	KindNetwork:     4,
	KindNotFound:    3,
	KindServerError: 2,
	KindUnknown:     1,
}

// -----------------------------------------------------------------------------

// Classification is a failure ready for presentation.
type Classification struct {
	Kind       Kind
	Message    string
	Query      string
	Identifier string
	Status     int
}

// -----------------------------------------------------------------------------

// Classify turns err into a Classification. A nil err yields nil.
func Classify(err error) *Classification {
	if err == nil {
		return nil
	}

	fe, ok := helpers.AsFetchError(err)
	if !ok {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &Classification{Kind: KindNetwork, Message: MsgNetwork}
		}
		return &Classification{Kind: KindUnknown, Message: MsgGeneric}
	}

	c := &Classification{Query: fe.Query, Identifier: fe.Identifier, Status: fe.Status}
	switch {
	case fe.Status == http.StatusTooManyRequests:
		c.Kind, c.Message = KindRateLimited, MsgRateLimited
	case fe.Transport || fe.Status == 0:
		c.Kind, c.Message = KindNetwork, MsgNetwork
	case fe.Status == http.StatusNotFound:
		c.Kind, c.Message = KindNotFound, notFoundMessage(fe.Identifier)
	case fe.Status >= 500 && fe.Status < 600:
		c.Kind, c.Message = KindServerError, MsgServerError
	case fe.BodyError != "" && fe.Query != "":
		c.Kind, c.Message = KindUnknown, fmt.Sprintf("%s Error: %s", cases.Title(language.English).String(fe.Query), fe.BodyError)
	default:
		c.Kind, c.Message = KindUnknown, fmt.Sprintf(msgStatus, fe.Status)
	}
	return c
}

func notFoundMessage(id string) string {
	if id == "" {
		return msgNoData
	}
	return fmt.Sprintf(msgNotFound, id)
}

// -----------------------------------------------------------------------------

// Merge picks the failure to show when two queries of one view fail.
// Nil inputs are ignored.
func Merge(a, b *Classification) *Classification {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}

	pa, pb := precedence[a.Kind], precedence[b.Kind]
	if pa != pb {
		if pa > pb {
			return a
		}
		return b
	}
	if a.Kind == KindUnknown && b.Query == DetailsQuery && a.Query != DetailsQuery {
		return b
	}
	return a
}

// -----------------------------------------------------------------------------

// HTTPStatus mirrors the kind as a response status.
func (c *Classification) HTTPStatus() int {
	switch c.Kind {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	case KindServerError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// -----------------------------------------------------------------------------

// View renders the classification for the presentation layer.
func (c *Classification) View() *models.MErrorView {
	if c == nil {
		return nil
	}
	v := &models.MErrorView{
		Kind:    string(c.Kind),
		Message: c.Message,
		Status:  c.Status,
		Query:   c.Query,
	}
	if c.Kind == KindNotFound {
		v.BackPath = BackPath
	}
	return v
}
