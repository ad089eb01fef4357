package storage

import (
	"context"
	"reflect"
	"testing"

	"github.com/skalibog/sigcore/internal/config"
	"github.com/skalibog/sigcore/pkg/models"
)

func TestNew(t *testing.T) {
	for _, typ := range []string{"", "none"} {
		s, err := New(context.Background(), config.StorageConfig{Type: typ})
		if err != nil {
			t.Fatalf("New(%q): %v", typ, err)
		}
		if _, ok := s.(NopStorage); !ok {
			t.Errorf("New(%q) = %T, ожидался NopStorage", typ, s)
		}
	}

	if _, err := New(context.Background(), config.StorageConfig{Type: "redis"}); err == nil {
		t.Error("неизвестный тип должен давать ошибку")
	}
}

func TestNopStorage(t *testing.T) {
	var s Storage = NopStorage{}
	if err := s.SaveSignal(context.Background(), models.SignalRecord{Symbol: "BTCUSDT"}); err != nil {
		t.Fatal(err)
	}
	history, err := s.GetSignalHistory(context.Background(), "BTCUSDT", 10)
	if err != nil || len(history) != 0 {
		t.Errorf("история = %v, %v", history, err)
	}
	s.Close()
}

func TestSplitContradictions(t *testing.T) {
	r := models.SignalRecord{Contradictions: []string{"CRITICAL: SELL при RSI 20", "WARNING: против тренда"}}
	if got := splitContradictions(r.JoinedContradictions()); !reflect.DeepEqual(got, r.Contradictions) {
		t.Errorf("splitContradictions = %v", got)
	}
	if got := splitContradictions(""); got != nil {
		t.Errorf("пустая строка должна давать nil, получено %v", got)
	}
}
