package model

import "github.com/Maliot100X/CastLaunchEarn/backend/internal/domain/enums"

// EntitlementFilter narrows an active listing. Zero values mean "any".
type EntitlementFilter struct {
	Scope       enums.Scope
	SubjectType enums.SubjectType
	SubjectID   string
	Limit       int
}

type CoinFilter struct {
	CreatorFID int64
	Limit      int
}
