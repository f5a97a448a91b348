package inference

import (
	"slices"

	"github.com/mesh-intelligence/frames/internal/memory"
	"github.com/mesh-intelligence/frames/pkg/types"
)

// Criterion weights. A criterion counts toward the possible total only when
// the game declares it.
const (
	WeightPlatform = 0.35
	WeightGenre    = 0.35
	WeightOnline   = 0.15
	WeightSession  = 0.15

	// Partial credit awarded when a criterion is not met exactly.
	PartialPlatform = 0.15
	PartialOnline   = 0.10
	PartialSession  = 0.05

	// Threshold is the compatibility a game must exceed to be recommended.
	Threshold = 0.3
)

// Platforms and genres produced from preferences.
const (
	PlatformPC            = "PC"
	PlatformPlayStation   = "PlayStation"
	PlatformXbox          = "Xbox"
	PlatformUnknown       = "unknown"
	PlatformMultiplatform = "multiplatform"

	GenreAction    = "action"
	GenreRPG       = "RPG"
	GenreStrategy  = "strategy"
	GenreAdventure = "adventure"

	SessionShort = "short"
	SessionLong  = "long"
)

// Slots written on proto-frames.
const (
	SlotRequiredPlatform   = "required_platform"
	SlotRequiredGenre      = "required_genre"
	SlotRequiresOnline     = "requires_online"
	SlotRecommendedSession = "recommended_session_length"
	SlotComplexity         = "complexity"
	SlotCompatibility      = "compatibility"
)

// Profile is what scoring needs to know about the user.
type Profile struct {
	Platform     string
	Genres       []string
	HasOnline    bool
	PrefersShort bool
}

// NewProfile derives a profile from normalized preferences.
func NewProfile(prefs map[string]string) Profile {
	return Profile{
		Platform:     DeterminePlatform(prefs),
		Genres:       DetermineGenres(prefs),
		HasOnline:    memory.IsYes(prefs[memory.PrefOnline]),
		PrefersShort: memory.IsYes(prefs[memory.PrefShort]),
	}
}

// DeterminePlatform picks the user's platform. PC wins over PlayStation,
// which wins over Xbox.
func DeterminePlatform(prefs map[string]string) string {
	switch {
	case memory.IsYes(prefs[memory.PrefPC]):
		return PlatformPC
	case memory.IsYes(prefs[memory.PrefPlayStation]):
		return PlatformPlayStation
	case memory.IsYes(prefs[memory.PrefXbox]):
		return PlatformXbox
	}
	return PlatformUnknown
}

// DetermineGenres lists the genres the user is open to. Strategy covers both
// strategy and simulator fans; adventure also needs online access.
func DetermineGenres(prefs map[string]string) []string {
	genres := []string{}
	if memory.IsYes(prefs[memory.PrefAction]) {
		genres = append(genres, GenreAction)
	}
	if memory.IsYes(prefs[memory.PrefRPG]) {
		genres = append(genres, GenreRPG)
	}
	if memory.IsYes(prefs[memory.PrefStrategy]) || memory.IsYes(prefs[memory.PrefSimulators]) {
		genres = append(genres, GenreStrategy)
	}
	if memory.IsYes(prefs[memory.PrefAdventure]) && memory.IsYes(prefs[memory.PrefOnline]) {
		genres = append(genres, GenreAdventure)
	}
	return genres
}

// PlatformMatches reports a full platform match.
func PlatformMatches(required, user string) bool {
	return required == user || required == PlatformMultiplatform
}

// platformPartial reports the PC-owner-meets-console-game case.
func platformPartial(required, user string) bool {
	return user == PlatformPC && (required == PlatformPlayStation || required == PlatformXbox)
}

// GenreMatches reports whether genre is one the user likes.
func GenreMatches(genre string, genres []string) bool {
	return slices.Contains(genres, genre)
}

// OnlineMatches reports an exact match between the game's online
// requirement and the user's access.
func OnlineMatches(requires, hasOnline bool) bool {
	return requires == hasOnline
}

// OnlineSatisfied reports whether the user can play the game at all: either
// it works offline or the user has access.
func OnlineSatisfied(requires, hasOnline bool) bool {
	return !requires || hasOnline
}

// SessionMatches reports whether a recommended session length fits the
// user's preference. Lengths other than short and long never match.
func SessionMatches(length string, prefersShort bool) bool {
	return (length == SessionShort && prefersShort) || (length == SessionLong && !prefersShort)
}

// Score returns the compatibility of a proto-frame with the profile, the
// achieved weight over the weight of the criteria the game declares. It is
// 0.0 when the game declares none of them.
func Score(proto *types.Frame, p Profile) float64 {
	achieved, possible := 0.0, 0.0

	if required, ok := textSlot(proto, SlotRequiredPlatform); ok {
		possible += WeightPlatform
		switch {
		case PlatformMatches(required, p.Platform):
			achieved += WeightPlatform
		case platformPartial(required, p.Platform):
			achieved += PartialPlatform
		}
	}

	if genre, ok := textSlot(proto, SlotRequiredGenre); ok {
		possible += WeightGenre
		if GenreMatches(genre, p.Genres) {
			achieved += WeightGenre
		}
	}

	if v, ok := proto.GetSlotValue(SlotRequiresOnline); ok {
		if requires, ok := v.AsBool(); ok {
			possible += WeightOnline
			switch {
			case OnlineMatches(requires, p.HasOnline):
				achieved += WeightOnline
			case !requires:
				achieved += PartialOnline
			}
		}
	}

	if length, ok := textSlot(proto, SlotRecommendedSession); ok {
		possible += WeightSession
		if SessionMatches(length, p.PrefersShort) {
			achieved += WeightSession
		} else {
			achieved += PartialSession
		}
	}

	if possible == 0 {
		return 0
	}
	return achieved / possible
}

// textSlot returns a non-empty text slot value.
func textSlot(f *types.Frame, name string) (string, bool) {
	v, ok := f.GetSlotValue(name)
	if !ok {
		return "", false
	}
	s := v.TextOr("")
	return s, s != ""
}
