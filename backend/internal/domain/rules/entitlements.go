package rules

import (
	"time"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"
)

// Package is a catalog entry. Prices are server authoritative; anything the
// client sends about price or duration is ignored.
type Package struct {
	Kind       enums.EntitlementKind
	Label      string
	PriceCents int64
	Duration   time.Duration
}

var catalog = map[enums.EntitlementKind]Package{
	enums.KindBoostBasic: {
		Kind:       enums.KindBoostBasic,
		Label:      "Basic Boost",
		PriceCents: 100,
		Duration:   10 * time.Minute,
	},
	enums.KindBoostSuper: {
		Kind:       enums.KindBoostSuper,
		Label:      "Super Boost",
		PriceCents: 300,
		Duration:   25 * time.Minute,
	},
	enums.KindBoostHyper: {
		Kind:       enums.KindBoostHyper,
		Label:      "Hyper Boost",
		PriceCents: 600,
		Duration:   60 * time.Minute,
	},
	enums.KindSubscriptionTrial: {
		Kind:       enums.KindSubscriptionTrial,
		Label:      "7-Day Trial",
		PriceCents: 100,
		Duration:   7 * 24 * time.Hour,
	},
	enums.KindSubscriptionMonthly: {
		Kind:       enums.KindSubscriptionMonthly,
		Label:      "Monthly",
		PriceCents: 1500,
		Duration:   30 * 24 * time.Hour,
	},
}

func Lookup(kind enums.EntitlementKind) (Package, bool) {
	pkg, ok := catalog[kind]
	return pkg, ok
}

func Duration(kind enums.EntitlementKind) (time.Duration, bool) {
	pkg, ok := catalog[kind]
	if !ok {
		return 0, false
	}
	return pkg.Duration, true
}

// ExpiresAt returns startedAt + duration(kind).
func ExpiresAt(startedAt time.Time, kind enums.EntitlementKind) (time.Time, bool) {
	d, ok := Duration(kind)
	if !ok {
		return time.Time{}, false
	}
	return startedAt.Add(d), true
}

// Packages returns the catalog for a scope in ascending price order.
func Packages(scope enums.Scope) []Package {
	kinds := enums.BoostKinds
	if scope == enums.ScopeSubscription {
		kinds = enums.SubscriptionKinds
	}

	out := make([]Package, 0, len(kinds))
	for _, kind := range kinds {
		out = append(out, catalog[kind])
	}
	return out
}
