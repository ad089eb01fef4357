package confidence

import (
	"strings"
	"testing"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "veto", false},
		{"veto", "veto", false},
		{" Invert ", "invert", false},
		{"ignore", "", true},
	}
	for _, tt := range tests {
		p, err := ParsePolicy(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q): ожидалась ошибка", tt.name)
			}
			continue
		}
		if err != nil || p.Name() != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, %v", tt.name, p, err)
		}
	}

	if _, err := NewScorer(config.ScoringConfig{ContradictionPolicy: "ignore"}); err == nil {
		t.Error("NewScorer должен отклонять неизвестную политику")
	}
}

func TestVetoPolicyKeepsDirection(t *testing.T) {
	s := newTestScorer(t, nil)
	a := s.Evaluate(Input{Direction: models.DirectionSell, Indicators: indicators(20)})
	if a.Direction != models.DirectionSell || a.ShouldEmit || a.Inverted {
		t.Errorf("veto: %+v", a)
	}
}

func TestInvertPolicy(t *testing.T) {
	s := newTestScorer(t, func(c *config.ScoringConfig) { c.ContradictionPolicy = "invert" })
	ind := indicators(20)
	ind.Trend = models.TrendDown

	a := s.Evaluate(Input{Direction: models.DirectionSell, Indicators: ind, MTFStatus: models.MTFUnknown})
	if a.Direction != models.DirectionBuy || !a.Inverted {
		t.Fatalf("ожидался развернутый BUY: %+v", a)
	}
	if a.BaseConfidence != 60 || a.Confidence != 60 {
		t.Errorf("уверенность = %v/%v, ожидалось 60", a.BaseConfidence, a.Confidence)
	}
	if !a.ShouldEmit || a.PositionSizePercent != 1.5 || a.HasCritical() {
		t.Errorf("развернутый сигнал: %+v", a)
	}
	if !strings.Contains(a.Explanation, "инвертирован") {
		t.Errorf("Explanation = %q", a.Explanation)
	}

	// Без критического противоречия политика ничего не меняет
	plain := Input{Direction: models.DirectionSell, Indicators: indicators(60)}
	if got := s.Evaluate(plain); got.Inverted || got.Direction != models.DirectionSell {
		t.Errorf("некритичный сигнал не должен разворачиваться: %+v", got)
	}
}

func TestInvertPolicyFlipsMTFStatus(t *testing.T) {
	s := newTestScorer(t, func(c *config.ScoringConfig) { c.ContradictionPolicy = "invert" })
	ind := indicators(20)
	ind.Trend = models.TrendDown

	// Для SELL старшие таймфреймы согласованы, значит для BUY они в конфликте
	a := s.Evaluate(Input{Direction: models.DirectionSell, Indicators: ind, MTFStatus: models.MTFAligned})
	if !HasCategory(a, CategoryMTF) {
		t.Errorf("ожидалось MTF противоречие после разворота: %v", a.ContradictionStrings())
	}
	if a.Confidence != 35 {
		t.Errorf("Confidence = %v, ожидалось 60-25 = 35", a.Confidence)
	}
}
