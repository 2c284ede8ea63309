package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/commute-weather/internal/commute"
	"github.com/i474232898/commute-weather/internal/store"
	"github.com/i474232898/commute-weather/internal/weather"
	"github.com/i474232898/commute-weather/internal/weather/kma"
)

var validate = validator.New()

// ErrorHandler renders errors as {"detail": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *commute.Service) {
	app.Get("/", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := renderIndex(&buf, service.Now().Hour()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	})

	app.Get("/manifest.json", func(c *fiber.Ctx) error {
		return c.JSON(manifest())
	})

	app.Get("/sw.js", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/javascript")
		return c.Send(serviceWorker)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": service.Now().Format(time.RFC3339),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/predict/:type", func(c *fiber.Ctx) error {
		req := predictParams{Type: c.Params("type")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid prediction type")
		}
		if req.Type == "now" {
			return predictNow(c, service)
		}
		return predictCommute(c, service, req.Type)
	})

	app.Get("/api/test", func(c *fiber.Ctx) error {
		observations, err := service.RecentObservations(c.UserContext())
		if err != nil {
			if isNoData(err) {
				return c.JSON(fiber.Map{"message": "API 연결됨", "details": "데이터가 없습니다."})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "API 연결 실패: "+err.Error())
		}
		latest := observations[len(observations)-1]
		return c.JSON(fiber.Map{
			"message": "API 연결 성공!",
			"details": fmt.Sprintf("%d개 관측 데이터 수신 - 최신: %s (%.1f°C)",
				len(observations), latest.Timestamp.Format(commute.DisplayTimeLayout), latest.TemperatureC),
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/predictions/latest", func(c *fiber.Ctx) error {
		period, err := commute.ParsePeriod(c.Query("period"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		p, err := service.Latest(period)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no prediction for requested period")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch prediction")
		}

		return c.JSON(p)
	})

	v1.Get("/predictions/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		predictions, err := service.History(req.Period, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no predictions for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch prediction history")
		}

		return c.JSON(fiber.Map{
			"period":      req.Period,
			"from":        req.From,
			"to":          req.To,
			"predictions": predictions,
		})
	})
}

type predictParams struct {
	Type string `validate:"required,oneof=now morning evening"`
}

type guidanceResponse struct {
	Title          string `json:"title"`
	Message        string `json:"message"`
	CurrentTime    string `json:"current_time"`
	Recommendation string `json:"recommendation"`
}

type predictionResponse struct {
	Title             string             `json:"title"`
	Score             float64            `json:"score"`
	Label             string             `json:"label"`
	PredictionTime    string             `json:"prediction_time"`
	DataPeriod        string             `json:"data_period"`
	ObservationsCount int                `json:"observations_count"`
	Penalties         map[string]float64 `json:"penalties"`
	Evaluation        string             `json:"evaluation"`
}

type nowResponse struct {
	predictionResponse
	CurrentTemp              float64                   `json:"current_temp"`
	CurrentHumidity          *float64                  `json:"current_humidity"`
	CurrentPrecipitation     float64                   `json:"current_precipitation"`
	CurrentPrecipitationType weather.PrecipitationType `json:"current_precipitation_type"`
}

var commuteTitles = map[string]struct {
	title, message, recommendation string
	period                         commute.Period
}{
	"morning": {"🌅 출근길 예측", "출근길 예측은 오전 6-8시에 가장 정확합니다.", "아침 시간대에 다시 확인해주세요! 😊", commute.PeriodMorning},
	"evening": {"🌆 퇴근길 예측", "퇴근길 예측은 오후 2-6시에 가장 정확합니다.", "오후 시간대에 다시 확인해주세요! 😊", commute.PeriodEvening},
}

const nowTitle = "📱 현재 시점 예측"

func predictCommute(c *fiber.Ctx, service *commute.Service, kind string) error {
	info := commuteTitles[kind]
	now := service.Now()
	if !commute.InPredictionHours(info.period, now) {
		return c.JSON(guidanceResponse{
			Title:          info.title,
			Message:        info.message,
			CurrentTime:    now.Format(commute.DisplayTimeLayout),
			Recommendation: info.recommendation,
		})
	}

	p, err := service.Predict(c.UserContext(), info.period)
	if err != nil {
		return predictionError(err)
	}
	return c.JSON(newPredictionResponse(info.title, kind, &p, now))
}

func predictNow(c *fiber.Ctx, service *commute.Service) error {
	ctx := c.UserContext()

	var prediction *commute.Prediction
	var latest *weather.Observation
	p, predictErr := service.PredictCurrent(ctx)
	switch {
	case predictErr == nil:
		prediction = &p
		latest = p.Latest
	case errors.Is(predictErr, kma.ErrMissingAuthKey):
		return predictionError(predictErr)
	}

	var fetchErr error
	if latest == nil {
		obs, err := service.LatestObservation(ctx)
		if err == nil {
			latest = &obs
		}
		fetchErr = err
	}

	if latest == nil {
		detail := "현재 관측 데이터를 불러오지 못했습니다."
		if reason := firstErr(fetchErr, predictErr); reason != nil {
			detail = fmt.Sprintf("%s (원인: %v)", detail, reason)
		}
		return fiber.NewError(fiber.StatusBadGateway, detail)
	}

	return c.JSON(nowResponse{
		predictionResponse:       newPredictionResponse(nowTitle, "now", prediction, service.Now()),
		CurrentTemp:              latest.TemperatureC,
		CurrentHumidity:          latest.RelativeHumidity,
		CurrentPrecipitation:     latest.PrecipitationMM,
		CurrentPrecipitationType: latest.PrecipitationType,
	})
}

// newPredictionResponse renders p, or an unknown score when p is nil.
func newPredictionResponse(title, kind string, p *commute.Prediction, now time.Time) predictionResponse {
	if p == nil {
		return predictionResponse{
			Title:          title,
			Label:          "unknown",
			PredictionTime: now.Format(commute.DisplayTimeLayout),
			Penalties:      map[string]float64{},
			Evaluation:     commute.Evaluation(kind, 0),
		}
	}
	pen := p.Comfort.Penalties
	return predictionResponse{
		Title:             title,
		Score:             math.Round(p.Comfort.Score*10) / 10,
		Label:             p.Comfort.Label(),
		PredictionTime:    p.PredictionTime.Format(commute.DisplayTimeLayout),
		DataPeriod:        p.DataPeriod,
		ObservationsCount: p.ObservationsCount,
		Penalties: map[string]float64{
			"temperature":   pen.Temperature,
			"precipitation": pen.Precipitation,
			"wind":          pen.Wind,
			"humidity":      pen.Humidity,
		},
		Evaluation: commute.Evaluation(kind, p.Comfort.Score),
	}
}

func predictionError(err error) error {
	if errors.Is(err, kma.ErrMissingAuthKey) {
		return fiber.NewError(fiber.StatusInternalServerError, "KMA_AUTH_KEY not configured")
	}
	return fiber.NewError(fiber.StatusBadGateway, err.Error())
}

func isNoData(err error) bool {
	return errors.Is(err, commute.ErrNoData) || errors.Is(err, kma.ErrNoObservations)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Period commute.Period `validate:"required"`
	From   time.Time      `validate:"required"`
	To     time.Time      `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	period, err := commute.ParsePeriod(c.Query("period"))
	if err != nil {
		return err
	}
	h.Period = period

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
