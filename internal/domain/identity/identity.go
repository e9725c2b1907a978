// Package identity maps logical portfolio entities to stable unique ids.
//
// Every id has the form ghostfolio_<kind prefix>[_<part>...]_<entry id>. The
// kind prefixes are chosen so that none is a prefix of another, which keeps
// ids of different kinds from colliding.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const namespace = "ghostfolio"

// Kind names a logical entity type.
type Kind string

const (
	KindServerStatus       Kind = "server_status"
	KindProviderStatus     Kind = "provider_status"
	KindPruneButton        Kind = "prune_button"
	KindTotalValue         Kind = "total_value"
	KindTotalInvestment    Kind = "total_investment"
	KindTotalPerformance   Kind = "total_performance"
	KindAccountValue       Kind = "account_value"
	KindAccountInvestment  Kind = "account_investment"
	KindAccountPerformance Kind = "account_performance"
	KindHoldingValue       Kind = "holding_value"
	KindHoldingLowLimit    Kind = "holding_low_limit"
	KindHoldingHighLimit   Kind = "holding_high_limit"
	KindWatchlistPrice     Kind = "watchlist_price"
	KindWatchlistLowLimit  Kind = "watchlist_low_limit"
	KindWatchlistHighLimit Kind = "watchlist_high_limit"
)

var (
	ErrUnknownKind = errors.New("identity: unknown kind")
	ErrMissingPart = errors.New("identity: missing key part")
)

// Key carries the optional parts a kind may need.
type Key struct {
	AccountID string
	Symbol    string
	Provider  string
}

type part int

const (
	partProvider part = iota
	partAccount
	partSymbol
)

type template struct {
	prefix string
	parts  []part
}

var templates = map[Kind]template{
	KindServerStatus:       {prefix: "server_status"},
	KindProviderStatus:     {prefix: "provider", parts: []part{partProvider}},
	KindPruneButton:        {prefix: "prune_button"},
	KindTotalValue:         {prefix: "total_value"},
	KindTotalInvestment:    {prefix: "total_investment"},
	KindTotalPerformance:   {prefix: "total_performance"},
	KindAccountValue:       {prefix: "account_value", parts: []part{partAccount}},
	KindAccountInvestment:  {prefix: "account_investment", parts: []part{partAccount}},
	KindAccountPerformance: {prefix: "account_performance", parts: []part{partAccount}},
	KindHoldingValue:       {prefix: "holding_value", parts: []part{partAccount, partSymbol}},
	KindHoldingLowLimit:    {prefix: "holding_low_limit", parts: []part{partAccount, partSymbol}},
	KindHoldingHighLimit:   {prefix: "holding_high_limit", parts: []part{partAccount, partSymbol}},
	KindWatchlistPrice:     {prefix: "watchlist_price", parts: []part{partSymbol}},
	KindWatchlistLowLimit:  {prefix: "watchlist_low_limit", parts: []part{partSymbol}},
	KindWatchlistHighLimit: {prefix: "watchlist_high_limit", parts: []part{partSymbol}},
}

// Kinds returns every known kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(templates))
	for k := range templates {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := templates[k]
	return ok
}

// IsLimit reports whether k is an adjustable low/high limit.
func (k Kind) IsLimit() bool {
	switch k {
	case KindHoldingLowLimit, KindHoldingHighLimit, KindWatchlistLowLimit, KindWatchlistHighLimit:
		return true
	}
	return false
}

// UniqueID returns the id of the entity of kind k described by key within
// config entry entryID.
func UniqueID(k Kind, key Key, entryID string) (string, error) {
	tpl, ok := templates[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if entryID == "" {
		return "", fmt.Errorf("%w: entry id", ErrMissingPart)
	}

	segments := make([]string, 0, len(tpl.parts)+3)
	segments = append(segments, namespace, tpl.prefix)
	for _, p := range tpl.parts {
		v, name := key.value(p)
		if v == "" {
			return "", fmt.Errorf("%w: %s for %s", ErrMissingPart, name, k)
		}
		segments = append(segments, v)
	}
	segments = append(segments, entryID)

	return strings.Join(segments, "_"), nil
}

// MustUniqueID is UniqueID for callers that control every input.
func MustUniqueID(k Kind, key Key, entryID string) string {
	id, err := UniqueID(k, key, entryID)
	if err != nil {
		panic(err)
	}
	return id
}

func (key Key) value(p part) (string, string) {
	switch p {
	case partProvider:
		return strings.ToLower(strings.TrimSpace(key.Provider)), "provider"
	case partAccount:
		return key.AccountID, "account id"
	default:
		return Slug(key.Symbol), "symbol"
	}
}

// Slug folds case and whitespace only: s is lowercased and trimmed, and
// each inner whitespace run becomes one underscore. Letters, digits, '.'
// and '-' are kept; any other byte is written as ~ plus two hex digits, so
// symbols that differ in punctuation keep distinct slugs.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte('_')
			space = false
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' {
			b.WriteRune(r)
			continue
		}
		for _, c := range []byte(string(r)) {
			fmt.Fprintf(&b, "~%02x", c)
		}
	}
	return b.String()
}
