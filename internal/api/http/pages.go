package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/sw.js
var serviceWorker []byte

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const (
	appName        = "출퇴근길 날씨 친구"
	appShortName   = "날씨친구"
	appDescription = "기상청 데이터 기반 실시간 출퇴근 쾌적지수 예측 서비스"
	themeColor     = "#4A90E2"
)

type indexData struct {
	AppName     string
	ShortName   string
	Description string
	ThemeColor  string
	Greeting    []string
}

func renderIndex(w io.Writer, hour int) error {
	return pageTmpl.ExecuteTemplate(w, "index.html", indexData{
		AppName:     appName,
		ShortName:   appShortName,
		Description: appDescription,
		ThemeColor:  themeColor,
		Greeting:    greeting(hour),
	})
}

// greeting is the welcome text shown before the first request, by local hour.
func greeting(hour int) []string {
	switch {
	case hour >= 5 && hour < 9:
		return []string{"좋은 아침이에요! 😊", "오늘 하루도 화이팅입니다! ☀️"}
	case hour >= 9 && hour < 12:
		return []string{"활기찬 오전이네요! 💪", "오늘도 좋은 하루 되세요! ✨"}
	case hour >= 12 && hour < 14:
		return []string{"점심시간이에요! 🍽️", "맛있는 식사 하시고 힘내세요! 😋"}
	case hour >= 14 && hour < 18:
		return []string{"근무하시느라 힘드시죠? 💼", "조금만 더 힘내세요! 응원합니다! 📈"}
	case hour >= 18 && hour < 22:
		return []string{"오늘도 고생 많으셨어요! 😊", "푹 쉬시고 좋은 저녁 되세요! 🌆"}
	default:
		return []string{"늦은 시간이네요! 🌙", "푹 쉬시고 내일도 좋은 하루 되세요! 💤"}
	}
}

func icon(size, radius, fontSize, textY int) fiber.Map {
	svg := fmt.Sprintf("<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 %[1]d %[1]d'>"+
		"<rect width='%[1]d' height='%[1]d' fill='%%234A90E2' rx='%[2]d'/>"+
		"<text x='%[3]d' y='%[4]d' font-size='%[5]d' text-anchor='middle' fill='white'>☀️</text></svg>",
		size, radius, size/2, textY, fontSize)
	return fiber.Map{
		"src":     "data:image/svg+xml," + svg,
		"sizes":   fmt.Sprintf("%dx%d", size, size),
		"type":    "image/svg+xml",
		"purpose": "any maskable",
	}
}

func manifest() fiber.Map {
	return fiber.Map{
		"name":             appName,
		"short_name":       appShortName,
		"description":      appDescription,
		"start_url":        "/",
		"display":          "standalone",
		"categories":       []string{"weather", "productivity"},
		"background_color": themeColor,
		"theme_color":      themeColor,
		"orientation":      "portrait",
		"scope":            "/",
		"icons": []fiber.Map{
			icon(192, 40, 80, 130),
			icon(512, 100, 200, 350),
		},
	}
}
