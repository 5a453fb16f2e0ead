package engine

import (
	"context"
	"fmt"
)

// FallbackPromoCode is handed out when the quest is finished without a backend.
const FallbackPromoCode = "WEB_DEMO_2024"

// fallbackNext is the scripted progression used while the backend is unreachable.
var fallbackNext = map[Scene]Scene{
	SceneLoading:     SceneOne,
	SceneOne:         SceneTwo,
	SceneTwo:         SceneThreeA,
	SceneThreeA:      SceneChallenge1,
	SceneChallenge1:  SceneChallenge2,
	SceneChallenge2:  SceneFinalChoice,
	SceneFinalChoice: SceneEpilogue,
}

// cosmeticGrants are the badges the offline path may hand out for flavour.
var cosmeticGrants = []Achievement{"curious_explorer", "path_finder", "matrix_viewer"}

// FallbackNext returns the scripted successor of s; unknown scenes end the quest.
func FallbackNext(s Scene) Scene {
	if next, ok := fallbackNext[s]; ok {
		return next
	}
	return SceneEpilogue
}

// FallbackResolver resolves choices from the static table alone.
type FallbackResolver struct {
	seed     *RunSeed // nil disables cosmetic grants
	chance   float64
	grantSet []Achievement
}

// FallbackOption configures a FallbackResolver.
type FallbackOption func(*FallbackResolver)

// WithCosmeticGrants enables deterministic flavour badges on the offline path.
// The same seed, scene and choice always produce the same grant.
func WithCosmeticGrants(seed RunSeed, chance float64) FallbackOption {
	return func(f *FallbackResolver) {
		f.seed = &seed
		f.chance = chance
	}
}

// NewFallbackResolver builds the offline resolver.
func NewFallbackResolver(opts ...FallbackOption) *FallbackResolver {
	f := &FallbackResolver{grantSet: cosmeticGrants}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Resolve never fails.
func (f *FallbackResolver) Resolve(_ context.Context, req TransitionRequest) (TransitionResult, error) {
	res := TransitionResult{
		Next:         FallbackNext(req.Scene),
		Achievements: []Achievement{},
		Source:       SourceFallback,
	}
	if req.Scene == SceneFinalChoice {
		code := FallbackPromoCode
		res.PromoCode = &code
	}
	if f.seed != nil && f.chance > 0 {
		s := f.seed.Stream(fmt.Sprintf("fallback:%s:%s", req.Scene, req.Choice))
		if s.Float64() < f.chance {
			res.Achievements = append(res.Achievements, f.grantSet[s.Intn(len(f.grantSet))])
		}
	}
	return res, nil
}

// WithFallback returns a resolver that prefers primary and falls back on any error.
// onFailure, when set, observes the error that forced the fallback.
func WithFallback(primary Resolver, fallback Resolver, onFailure func(TransitionRequest, error)) Resolver {
	return &fallbackResolver{p: primary, f: fallback, onFailure: onFailure}
}

type fallbackResolver struct {
	p, f      Resolver
	onFailure func(TransitionRequest, error)
}

func (r *fallbackResolver) Resolve(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	if r.p == nil {
		return r.f.Resolve(ctx, req)
	}
	res, err := r.p.Resolve(ctx, req)
	if err == nil {
		return res, nil
	}
	if r.onFailure != nil {
		r.onFailure(req, err)
	}
	return r.f.Resolve(ctx, req)
}
