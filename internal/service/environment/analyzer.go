// Package environment implements the Environment Analyzer: scoring an
// EnvironmentSignal and classifying the environment kind it implies.
package environment

import (
	"math"
	"strings"

	"github.com/originwatch/originwatch/internal/config"
	environmentdomain "github.com/originwatch/originwatch/internal/domain/environment"
	"github.com/originwatch/originwatch/internal/domain/flag"
	"github.com/originwatch/originwatch/internal/domain/verdict"
)

// vmRendererKeywords is the fixed, case-insensitive substring set that
// identifies a software/virtualised GPU renderer string.
var vmRendererKeywords = []string{"vmware", "virtualbox", "microsoft basic", "llvmpipe"}

// canonicalResolutions is the fixed set of common physical-display
// resolutions; anything outside it is a mild signal of an unusual or
// synthetic viewport.
var canonicalResolutions = map[string]bool{
	"1920x1080": true,
	"1366x768":  true,
	"1536x864":  true,
	"1440x900":  true,
	"1280x720":  true,
	"1280x800":  true,
	"1024x768":  true,
	"2560x1440": true,
	"3840x2160": true,
	"1600x900":  true,
}

// commonAspectRatios maps each accepted ratio to itself for clarity at
// the comparison site; matching is done within ±0.01.
var commonAspectRatios = []float64{16.0 / 9.0, 16.0 / 10.0, 4.0 / 3.0, 21.0 / 9.0}

const aspectRatioTolerance = 0.01

// Result is the output of one analysis: the inferred environment kind,
// the clamped score, and the ordered flags that produced it.
type Result struct {
	Kind  verdict.EnvironmentKind
	Score int
	Flags []flag.Flag
}

// Analyzer scores EnvironmentSignal evidence against the thresholds
// held in a Registry. It holds no per-request state and is safe for
// concurrent use.
type Analyzer struct {
	registry *config.Registry
}

// NewAnalyzer builds an Analyzer reading its decision boundaries from
// the given Registry.
func NewAnalyzer(registry *config.Registry) *Analyzer {
	return &Analyzer{registry: registry}
}

// Analyze applies the fixed environment scoring rules to sig.
func (a *Analyzer) Analyze(sig environmentdomain.Signal) Result {
	thresholds := a.registry.Get()
	score := 100
	kind := verdict.EnvironmentLocalDesktop
	flags := make([]flag.Flag, 0, 5)

	if sig.HasResolution() && !matchesCommonAspectRatio(sig.AspectRatio()) {
		flags = append(flags, flag.New(flag.SeverityWarning, "Unusual screen aspect ratio"))
		score -= 20
	}

	if sig.ColorDepth > 0 && sig.ColorDepth < thresholds.Environment.ColorDepthRDPIndicator {
		flags = append(flags, flag.New(flag.SeverityWarning, "Low colour depth"))
		score -= thresholds.Scoring.EnvironmentWarning
	}

	if matchesVMRenderer(sig.WebGLRenderer) {
		flags = append(flags, flag.New(flag.SeverityCritical, "Virtual machine GPU renderer detected"))
		score -= thresholds.Scoring.EnvironmentFail
		kind = verdict.EnvironmentVirtualMachine
	}

	if sig.IsAndroid() && !hasTouch(sig) {
		flags = append(flags, flag.New(flag.SeverityWarning, "Android platform reported without touch support"))
		score -= 30
	}

	if sig.HasResolution() && !canonicalResolutions[sig.Resolution()] {
		flags = append(flags, flag.New(flag.SeverityWarning, "Non-canonical screen resolution"))
		score -= 15
	}

	score = clamp(score, 0, 100)

	if kind != verdict.EnvironmentVirtualMachine {
		switch {
		case score < thresholds.Environment.ScoreLikelyRemote:
			kind = verdict.EnvironmentRemoteDesktop
		case score < thresholds.Environment.ScorePossiblyRemote:
			kind = verdict.EnvironmentPossiblyRemote
		}
	}

	return Result{Kind: kind, Score: score, Flags: flags}
}

func hasTouch(sig environmentdomain.Signal) bool {
	return sig.TouchSupport != nil && *sig.TouchSupport
}

func matchesVMRenderer(renderer string) bool {
	if renderer == "" {
		return false
	}
	lower := strings.ToLower(renderer)
	for _, kw := range vmRendererKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func matchesCommonAspectRatio(ratio float64) bool {
	for _, candidate := range commonAspectRatios {
		if math.Abs(ratio-candidate) <= aspectRatioTolerance {
			return true
		}
	}
	return false
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
