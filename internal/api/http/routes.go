package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/recommend"
	"github.com/i474232898/weather-food-recommender/internal/store"
	"github.com/i474232898/weather-food-recommender/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the handlers need.
type Deps struct {
	Pipeline *recommend.Pipeline
	History  recommend.Store
	Location weather.Location
}

// RegisterRoutes wires the HTML pages and the JSON API into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	registerPages(app, deps.Pipeline)

	v1 := app.Group("/api/v1")

	v1.Get("/recommendations", func(c *fiber.Ctx) error {
		rec, err := deps.Pipeline.Recommend(c.UserContext())
		if err != nil {
			return toFiberError(err, "failed to produce recommendations")
		}
		return c.JSON(rec)
	})

	v1.Post("/recommendations/custom", func(c *fiber.Ctx) error {
		var req customRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		overrides, err := req.overrides()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := deps.Pipeline.RecommendCustom(c.UserContext(), overrides)
		if err != nil {
			return toFiberError(err, "failed to produce recommendations")
		}
		return c.JSON(rec)
	})

	v1.Get("/recommendations/latest", func(c *fiber.Ctx) error {
		if deps.History == nil {
			return fiber.NewError(fiber.StatusNotFound, "history is disabled")
		}
		rec, err := deps.History.Latest(c.UserContext())
		if err != nil {
			return toFiberError(err, "failed to read history")
		}
		return c.JSON(rec)
	})

	v1.Get("/recommendations/history", func(c *fiber.Ctx) error {
		if deps.History == nil {
			return fiber.NewError(fiber.StatusNotFound, "history is disabled")
		}

		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		recs, err := deps.History.Range(c.UserContext(), req.From, req.To)
		if err != nil {
			return toFiberError(err, "failed to read history")
		}

		return c.JSON(fiber.Map{
			"from":            req.From,
			"to":              req.To,
			"recommendations": recs,
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		snap, err := deps.Pipeline.CurrentWeather(c.UserContext())
		if err != nil {
			return toFiberError(err, "failed to fetch weather data")
		}
		current, err := deps.Pipeline.CurrentMeal()
		if err != nil {
			return toFiberError(err, "failed to classify meal")
		}

		return c.JSON(fiber.Map{
			"location": deps.Location,
			"weather":  snap,
			"meal":     current,
		})
	})
}

// toFiberError maps domain errors onto HTTP statuses.
func toFiberError(err error, msg string) error {
	return fiber.NewError(statusFor(err), msg+": "+err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, weather.ErrWeatherUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, meal.ErrUnknownMeal):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// customRequest is the JSON body of the custom endpoint. Absent fields are backfilled.
type customRequest struct {
	TempAvg       *float64 `json:"temp_avg" validate:"omitempty,gte=-273.15,lte=100"`
	TempMin       *float64 `json:"temp_min" validate:"omitempty,gte=-273.15,lte=100"`
	TempMax       *float64 `json:"temp_max" validate:"omitempty,gte=-273.15,lte=100"`
	Precipitation *float64 `json:"precipitation" validate:"omitempty,gte=0"`
	Meal          string   `json:"meal"`
}

func (r customRequest) overrides() (recommend.Overrides, error) {
	if err := validate.Struct(r); err != nil {
		return recommend.Overrides{}, err
	}

	o := recommend.Overrides{
		TempAvg:       r.TempAvg,
		TempMin:       r.TempMin,
		TempMax:       r.TempMax,
		Precipitation: r.Precipitation,
	}
	if r.Meal != "" {
		m, err := meal.ParseCategory(r.Meal)
		if err != nil {
			return recommend.Overrides{}, err
		}
		o.Meal = &m
	}
	return o, nil
}

// sanitize clears fields that fail validation so they fall back to live
// values, and returns their names.
func (r *customRequest) sanitize() []string {
	var ignored []string

	var verrs validator.ValidationErrors
	if errors.As(validate.Struct(r), &verrs) {
		for _, fe := range verrs {
			switch fe.StructField() {
			case "TempAvg":
				r.TempAvg = nil
				ignored = append(ignored, "temp_avg")
			case "TempMin":
				r.TempMin = nil
				ignored = append(ignored, "temp_min")
			case "TempMax":
				r.TempMax = nil
				ignored = append(ignored, "temp_max")
			case "Precipitation":
				r.Precipitation = nil
				ignored = append(ignored, "precipitation")
			}
		}
	}

	if r.Meal != "" {
		if _, err := meal.ParseCategory(r.Meal); err != nil {
			r.Meal = ""
			ignored = append(ignored, "meal")
		}
	}
	return ignored
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
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
