package venue

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"launch-sniper/internal/domain"
)

// ErrNotLaunchLog marks a program log line that is not a launch
// announcement. Callers skip these without logging.
var ErrNotLaunchLog = errors.New("not a launch log line")

// launchLogRe matches the launch announcement emitted by the venue program.
// Example:
//
//	Program log: Launch mint=7xKX... name="Solar Flare" symbol="FLARE" creator=9yQW... liquidity=42.5 base=0.000028 slope=0.0000013
var launchLogRe = regexp.MustCompile(
	`^Program log: Launch ` +
		`mint=([1-9A-HJ-NP-Za-km-z]{32,44}) ` +
		`name="([^"]*)" ` +
		`symbol="([^"]*)" ` +
		`creator=([1-9A-HJ-NP-Za-km-z]{32,44}) ` +
		`liquidity=([0-9.eE+\-]+) ` +
		`base=([0-9.eE+\-]+) ` +
		`slope=([0-9.eE+\-]+)$`)

// ParseLaunchLog extracts a token candidate from one program log line.
// Returns ErrNotLaunchLog for lines that are not launch announcements, and
// a descriptive error for announcements with invalid addresses or numbers.
func ParseLaunchLog(line string, detectedAt time.Time) (*domain.TokenCandidate, error) {
	m := launchLogRe.FindStringSubmatch(line)
	if m == nil {
		return nil, ErrNotLaunchLog
	}

	mint, name, symbol, creator := m[1], m[2], m[3], m[4]
	if err := ValidateMint(mint); err != nil {
		return nil, fmt.Errorf("mint %s: %w", mint, err)
	}
	if err := ValidateAddress(creator); err != nil {
		return nil, fmt.Errorf("creator %s: %w", creator, err)
	}

	liquidity, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return nil, fmt.Errorf("parse liquidity %q: %w", m[5], err)
	}
	base, err := strconv.ParseFloat(m[6], 64)
	if err != nil {
		return nil, fmt.Errorf("parse base price %q: %w", m[6], err)
	}
	slope, err := strconv.ParseFloat(m[7], 64)
	if err != nil {
		return nil, fmt.Errorf("parse slope %q: %w", m[7], err)
	}

	return &domain.TokenCandidate{
		Mint:             mint,
		Name:             name,
		Symbol:           symbol,
		Creator:          creator,
		InitialLiquidity: liquidity,
		Curve:            domain.CurveParams{BasePrice: base, Slope: slope},
		DetectedAt:       detectedAt,
	}, nil
}

// ValidateAddress checks that addr is a base58-encoded 32-byte value.
func ValidateAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address is %d bytes, want 32", len(raw))
	}
	return nil
}

// ValidateMint additionally requires the address to be a valid ed25519
// curve point. Program-derived addresses are off-curve and cannot be mints.
func ValidateMint(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("mint is %d bytes, want 32", len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("mint is not on the ed25519 curve: %w", err)
	}
	return nil
}
