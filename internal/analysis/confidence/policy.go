package confidence

import (
	"fmt"
	"strings"

	"github.com/skalibog/sigcore/pkg/models"
)

// Policy решает, что делать с сигналом при критическом противоречии
type Policy interface {
	Name() string
	Resolve(s *Scorer, in Input, scored models.SignalAnalysis) models.SignalAnalysis
}

// ParsePolicy возвращает политику по имени: veto (по умолчанию) или invert
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "veto":
		return VetoPolicy{}, nil
	case "invert":
		return InvertPolicy{}, nil
	default:
		return nil, fmt.Errorf("неизвестная политика противоречий %q", name)
	}
}

// VetoPolicy оставляет направление, отправка уже запрещена самим критическим противоречием
type VetoPolicy struct{}

func (VetoPolicy) Name() string { return "veto" }

func (VetoPolicy) Resolve(_ *Scorer, _ Input, scored models.SignalAnalysis) models.SignalAnalysis {
	return scored
}

// InvertPolicy при критическом противоречии разворачивает направление и оценивает его заново.
// Если развернутый сигнал тоже критичен, он остается заблокированным.
type InvertPolicy struct{}

func (InvertPolicy) Name() string { return "invert" }

func (InvertPolicy) Resolve(s *Scorer, in Input, scored models.SignalAnalysis) models.SignalAnalysis {
	if !scored.HasCritical() {
		return scored
	}
	flipped := in
	flipped.Direction = in.Direction.Opposite()
	flipped.MTFStatus = in.MTFStatus.Flip()

	inverted := s.Score(flipped)
	inverted.Inverted = true
	inverted.Explanation = explain(inverted)
	return inverted
}
