package engine

import "context"

// Source records which path produced a transition.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
	SourceLocal    Source = "local"
)

// TransitionRequest is one player decision.
type TransitionRequest struct {
	UserID string
	Scene  Scene
	Choice string
	Label  string // human-readable choice text forwarded to the backend
}

// TransitionResult is the normalized outcome of resolving a choice,
// whichever path produced it.
type TransitionResult struct {
	Next         Scene
	Achievements []Achievement
	PromoCode    *string
	Content      []byte // opaque scene content supplied by the backend, if any
	Source       Source
}

// Resolver turns a choice into a transition result.
type Resolver interface {
	Resolve(ctx context.Context, req TransitionRequest) (TransitionResult, error)
}

// Starter acknowledges the start of a quest with the backend.
type Starter interface {
	Start(ctx context.Context, userID string) error
}

// autoAdvance holds the scenes that move on by themselves once their
// presentation finishes; they never reach the backend.
var autoAdvance = map[Scene]Scene{
	SceneLoading: SceneOne,
	SceneOneLoop: SceneOne,
	SceneThreeA:  SceneChallenge1,
}

// AutoAdvanceTarget reports where an auto-advancing scene goes next.
func AutoAdvanceTarget(s Scene) (Scene, bool) {
	next, ok := autoAdvance[s]
	return next, ok
}

// IsChallenge reports whether s only advances on a success signal.
func IsChallenge(s Scene) bool { return s == SceneChallenge1 || s == SceneChallenge2 }

// IsTerminal reports whether s ends the quest.
func IsTerminal(s Scene) bool { return s == SceneEpilogue }
