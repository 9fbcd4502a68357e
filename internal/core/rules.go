package core

import "questcore/pkg/domain"

// NewDefaultRulesEngine returns an engine preloaded with the built-in
// commit-time invariants.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewProgressConsistencyRule())
	engine.Register(NewTeamIntegrityRule())
	return engine
}
