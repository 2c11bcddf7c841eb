// Package guard checks user input before any remote call is made.
package guard

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Policy defines what user input is accepted.
type Policy struct {
	SteamIDDigits int     `json:"steam_id_digits"`
	NicheMin      float64 `json:"niche_min"`
	NicheMax      float64 `json:"niche_max"`
	MaxSelections int     `json:"max_selections"` // 0 means unlimited
}

// DefaultPolicy matches what the recommendation service accepts.
var DefaultPolicy = Policy{
	SteamIDDigits: 17,
	NicheMin:      0.0,
	NicheMax:      1.0,
	MaxSelections: 0,
}

// Violation is a rejected input. It is reported before any state changes.
type Violation struct {
	Rule    string
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

// Guard enforces the policy.
type Guard struct {
	policy   Policy
	validate *validator.Validate
}

var (
	validatorsMu sync.Mutex
	validators   = map[int]*validator.Validate{}
)

func steamIDTag(digits int) string {
	return fmt.Sprintf("steamid%d", digits)
}

// validatorFor returns the shared validator for a digit count. Each one is
// fully registered before it is published, so validation never runs
// alongside RegisterValidation.
func validatorFor(digits int) *validator.Validate {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()

	if v, ok := validators[digits]; ok {
		return v
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	pattern := regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, digits))
	if err := v.RegisterValidation(steamIDTag(digits), func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("guard: register %s: %v", steamIDTag(digits), err))
	}
	validators[digits] = v
	return v
}

func New(p Policy) *Guard {
	return &Guard{policy: p, validate: validatorFor(p.SteamIDDigits)}
}

// CheckSteamID requires exactly the configured number of decimal digits.
func (g *Guard) CheckSteamID(id string) *Violation {
	tag := "required," + steamIDTag(g.policy.SteamIDDigits)
	if err := g.validate.Var(id, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			return &Violation{Rule: "steam_id", Message: "Steam ID is required"}
		}
		return &Violation{
			Rule:    "steam_id",
			Message: fmt.Sprintf("Steam ID must be exactly %d digits", g.policy.SteamIDDigits),
		}
	}
	return nil
}

// CheckNiche verifies the niche factor is a finite number inside the
// policy range.
func (g *Guard) CheckNiche(v float64) *Violation {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < g.policy.NicheMin || v > g.policy.NicheMax {
		return &Violation{
			Rule:    "niche_factor",
			Message: fmt.Sprintf("niche factor must be between %.2f and %.2f", g.policy.NicheMin, g.policy.NicheMax),
		}
	}
	return nil
}

// CheckSelectionCount enforces MaxSelections when it is set.
func (g *Guard) CheckSelectionCount(n int) *Violation {
	if n == 0 {
		return &Violation{Rule: "selection", Message: "select at least one game"}
	}
	if g.policy.MaxSelections > 0 && n > g.policy.MaxSelections {
		return &Violation{
			Rule:    "max_selections",
			Message: fmt.Sprintf("at most %d games can be selected", g.policy.MaxSelections),
		}
	}
	return nil
}

// ClampNiche pulls v into the policy range.
func (g *Guard) ClampNiche(v float64) float64 {
	return min(max(v, g.policy.NicheMin), g.policy.NicheMax)
}
