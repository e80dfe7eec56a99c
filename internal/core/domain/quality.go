package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Quality is the render quality applied uniformly to every target of a session.
type Quality string

const (
	// QualityLow renders quickly at low resolution.
	QualityLow Quality = "low"
	// QualityMedium renders at medium resolution.
	QualityMedium Quality = "medium"
	// QualityHigh renders at full resolution.
	QualityHigh Quality = "high"
)

// ParseQuality accepts the long names as well as the engine's short flags (ql, qm, qh).
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l", "ql":
		return QualityLow, nil
	case "medium", "m", "qm":
		return QualityMedium, nil
	case "high", "h", "qh":
		return QualityHigh, nil
	default:
		return "", zerr.With(ErrInvalidQuality, "quality", s)
	}
}

// Flag returns the engine command line flag for the quality.
func (q Quality) Flag() string {
	switch q {
	case QualityMedium:
		return "-qm"
	case QualityHigh:
		return "-qh"
	default:
		return "-ql"
	}
}

// String implements fmt.Stringer.
func (q Quality) String() string {
	return string(q)
}
