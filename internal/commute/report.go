package commute

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/commute-weather/internal/comfort"
)

// DisplayTimeLayout is used for prediction times shown to users.
const DisplayTimeLayout = "2006-01-02 15:04"

// UncomfortableThreshold is the score below which Evaluation calls the weather
// very uncomfortable. FormatReport uses comfort.FairThreshold instead.
const UncomfortableThreshold = 50.0

// Evaluation returns the one-line message shown with an API prediction.
// kind is "morning", "evening" or "now".
func Evaluation(kind string, score float64) string {
	subject := map[string][2]string{
		"morning": {"출근 날씨", "출근길"},
		"evening": {"퇴근 날씨", "퇴근길"},
	}
	noun, road := "날씨", ""
	if s, ok := subject[kind]; ok {
		noun, road = s[0], s[1]
	}

	switch {
	case score >= comfort.ExcellentThreshold:
		return fmt.Sprintf("완벽한 %s입니다!", noun)
	case score >= comfort.GoodThreshold:
		if road != "" {
			return fmt.Sprintf("쾌적한 %s이 예상됩니다.", road)
		}
		return "쾌적한 날씨입니다."
	case score >= UncomfortableThreshold:
		return fmt.Sprintf("불편한 %s입니다. 대비하세요!", noun)
	default:
		return fmt.Sprintf("매우 불편한 %s입니다. 각별히 주의하세요!", noun)
	}
}

// Summary is the closing line of the text report, keyed by the breakdown label.
func Summary(b comfort.Breakdown) string {
	switch b.Label() {
	case "excellent":
		return "완벽한 출퇴근 날씨입니다! ☀️"
	case "good":
		return "쾌적한 출퇴근길이 예상됩니다. 😊"
	case "fair":
		return "보통 수준의 날씨입니다. 🌤️"
	default:
		return "불편한 날씨가 예상됩니다. 준비하세요! 🌧️"
	}
}

// PeriodName is the Korean name of a commute period.
func PeriodName(p Period) string {
	if p == PeriodEvening {
		return "퇴근길"
	}
	return "출근길"
}

// FormatReport renders a prediction as a readable multi-line text report.
func FormatReport(p Prediction) string {
	c := p.Comfort
	var b strings.Builder

	b.WriteString("=== 출퇴근길 쾌적지수 예측 ===\n")
	fmt.Fprintf(&b, "예측 시간: %s\n", p.PredictionTime.Format(DisplayTimeLayout))
	fmt.Fprintf(&b, "대상: %s\n", PeriodName(p.Period))
	fmt.Fprintf(&b, "데이터 기간: %s\n", p.DataPeriod)
	fmt.Fprintf(&b, "관측 데이터 수: %d개\n\n", p.ObservationsCount)
	fmt.Fprintf(&b, "🌟 쾌적지수: %.1f/100 (%s)\n\n", c.Score, c.Label())
	b.WriteString("📊 세부 점수:\n")
	fmt.Fprintf(&b, "- 온도: -%.1f점\n", c.Penalties.Temperature)
	fmt.Fprintf(&b, "- 강수: -%.1f점\n", c.Penalties.Precipitation)
	fmt.Fprintf(&b, "- 바람: -%.1f점\n", c.Penalties.Wind)
	fmt.Fprintf(&b, "- 습도: -%.1f점\n\n", c.Penalties.Humidity)
	fmt.Fprintf(&b, "💡 한줄 평가: %s", Summary(c))

	return b.String()
}

// InPredictionHours reports whether t falls in the hours during which the
// morning (06-09) and evening (14-18 inclusive) endpoints answer with a score.
func InPredictionHours(p Period, t time.Time) bool {
	h := t.Hour()
	if p == PeriodEvening {
		return h >= 14 && h <= 18
	}
	return h >= 6 && h < 9
}
