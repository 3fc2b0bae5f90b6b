package enums

import "strings"

type SubjectType string

const (
	SubjectCoin SubjectType = "coin"
	SubjectUser SubjectType = "user"
)

func (s SubjectType) Valid() bool {
	return s == SubjectCoin || s == SubjectUser
}

type Scope string

const (
	ScopeBoost        Scope = "boost"
	ScopeSubscription Scope = "subscription"
)

// EntitlementKind is a purchasable tier. Boost tiers attach to coins,
// subscription plans attach to users.
type EntitlementKind string

const (
	KindBoostBasic EntitlementKind = "basic"
	KindBoostSuper EntitlementKind = "super"
	KindBoostHyper EntitlementKind = "hyper"

	KindSubscriptionTrial   EntitlementKind = "trial"
	KindSubscriptionMonthly EntitlementKind = "monthly"
)

var (
	BoostKinds        = []EntitlementKind{KindBoostBasic, KindBoostSuper, KindBoostHyper}
	SubscriptionKinds = []EntitlementKind{KindSubscriptionTrial, KindSubscriptionMonthly}
)

func ParseEntitlementKind(raw string) (EntitlementKind, bool) {
	kind := EntitlementKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", false
	}
	return kind, true
}

func (k EntitlementKind) Valid() bool {
	return k.IsBoost() || k.IsSubscription()
}

func (k EntitlementKind) IsBoost() bool {
	switch k {
	case KindBoostBasic, KindBoostSuper, KindBoostHyper:
		return true
	}
	return false
}

func (k EntitlementKind) IsSubscription() bool {
	switch k {
	case KindSubscriptionTrial, KindSubscriptionMonthly:
		return true
	}
	return false
}

func (k EntitlementKind) Scope() Scope {
	if k.IsSubscription() {
		return ScopeSubscription
	}
	return ScopeBoost
}

// SubjectType reports which subject a kind may be granted to.
func (k EntitlementKind) SubjectType() SubjectType {
	if k.IsSubscription() {
		return SubjectUser
	}
	return SubjectCoin
}
