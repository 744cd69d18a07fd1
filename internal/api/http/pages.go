package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-food-recommender/internal/common"
	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/recommend"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData is what both pages render.
type pageData struct {
	Action string
	Custom bool
	Meals  []meal.Category
	Form   customForm

	Result  *recommend.Recommendation
	Ignored []string
	Error   string
}

// customForm mirrors the custom-weather form. Blank or invalid fields are backfilled.
type customForm struct {
	TempAvg       string `form:"temp_avg"`
	TempMin       string `form:"temp_min"`
	TempMax       string `form:"temp_max"`
	Prec          string `form:"prec"`
	Precipitation string `form:"precipitation"`
	Meal          string `form:"meal"`
}

// request converts the form. Fields that do not parse or validate are left
// unset and reported in ignored.
func (f customForm) request() (req customRequest, ignored []string) {
	parse := func(name, raw string) *float64 {
		v, err := common.OptionalFloat(raw)
		if err != nil {
			ignored = append(ignored, name)
			return nil
		}
		return v
	}
	req.TempAvg = parse("temp_avg", f.TempAvg)
	req.TempMin = parse("temp_min", f.TempMin)
	req.TempMax = parse("temp_max", f.TempMax)
	req.Precipitation = parse("precipitation", common.FirstNonEmpty(f.Prec, f.Precipitation))
	req.Meal = f.Meal

	ignored = append(ignored, req.sanitize()...)
	return req, ignored
}

func registerPages(app *fiber.App, pipeline *recommend.Pipeline) {
	index := func(c *fiber.Ctx) error {
		data := pageData{Action: "/", Meals: meal.Categories}
		if c.Method() == fiber.MethodPost {
			rec, err := pipeline.Recommend(c.UserContext())
			if err != nil {
				log.Printf("ERROR: default recommendation failed: %v", err)
				data.Error = "Could not produce recommendations right now."
				return render(c, statusFor(err), "index.html", data)
			}
			data.Result = &rec
		}
		return render(c, fiber.StatusOK, "index.html", data)
	}

	custom := func(c *fiber.Ctx) error {
		data := pageData{Action: "/custom-weather", Custom: true, Meals: meal.Categories}
		if c.Method() != fiber.MethodPost {
			return render(c, fiber.StatusOK, "custom_weather.html", data)
		}

		if err := c.BodyParser(&data.Form); err != nil {
			data.Error = "Invalid form submission."
			return render(c, fiber.StatusBadRequest, "custom_weather.html", data)
		}
		req, ignored := data.Form.request()
		if len(ignored) > 0 {
			log.Printf("WARN: custom-weather form: ignoring invalid fields %v", ignored)
			data.Ignored = ignored
		}
		overrides, err := req.overrides()
		if err != nil {
			data.Error = "Invalid form submission."
			return render(c, fiber.StatusBadRequest, "custom_weather.html", data)
		}

		rec, err := pipeline.RecommendCustom(c.UserContext(), overrides)
		if err != nil {
			log.Printf("ERROR: custom recommendation failed: %v", err)
			data.Error = "Could not produce recommendations right now."
			return render(c, statusFor(err), "custom_weather.html", data)
		}
		data.Result = &rec
		return render(c, fiber.StatusOK, "custom_weather.html", data)
	}

	app.Get("/", index)
	app.Post("/", index)
	app.Get("/custom-weather", custom)
	app.Post("/custom-weather", custom)
}

func render(c *fiber.Ctx, status int, name string, data pageData) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("ERROR: failed to render %s: %v", name, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
	}
	c.Type("html")
	return c.Status(status).Send(buf.Bytes())
}
