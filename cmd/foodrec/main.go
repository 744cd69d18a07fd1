package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/i474232898/weather-food-recommender/internal/app"
	"github.com/i474232898/weather-food-recommender/internal/common"
	"github.com/i474232898/weather-food-recommender/internal/config"
	"github.com/i474232898/weather-food-recommender/internal/meal"
	"github.com/i474232898/weather-food-recommender/internal/recommend"
)

var (
	mealFlag = flag.String("meal", "", "Meal period (late_night, morning, afternoon, evening, night); default is the current time")
	tempAvg  = flag.String("temp-avg", "", "Average temperature in °C; default is live weather")
	tempMin  = flag.String("temp-min", "", "Minimum temperature in °C; default is live weather")
	tempMax  = flag.String("temp-max", "", "Maximum temperature in °C; default is live weather")
	prec     = flag.String("prec", "", "Precipitation in mm; default is live weather")
	refresh  = flag.Bool("refresh", false, "Refresh the weather cache before recommending")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	timeout  = flag.Duration("timeout", 30*time.Second, "Overall timeout")
)

func main() {
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	a, err := app.Build(cfg)
	if err != nil {
		fatal("failed to initialize recommender: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *refresh {
		if _, err := a.Cache.Refresh(ctx); err != nil {
			fatal("weather refresh failed: %v", err)
		}
	}

	overrides, custom, err := parseOverrides()
	if err != nil {
		fatal("%v", err)
	}

	var rec recommend.Recommendation
	if custom {
		rec, err = a.Pipeline.RecommendCustom(ctx, overrides)
	} else {
		rec, err = a.Pipeline.Recommend(ctx)
	}
	if err != nil {
		fatal("recommendation failed: %v", err)
	}

	printRecommendation(os.Stdout, rec)
}

// parseOverrides reads the weather and meal flags. custom is false when none were given.
func parseOverrides() (recommend.Overrides, bool, error) {
	var (
		o   recommend.Overrides
		err error
	)
	if o.TempAvg, err = common.OptionalFloat(*tempAvg); err != nil {
		return o, false, fmt.Errorf("-temp-avg: %w", err)
	}
	if o.TempMin, err = common.OptionalFloat(*tempMin); err != nil {
		return o, false, fmt.Errorf("-temp-min: %w", err)
	}
	if o.TempMax, err = common.OptionalFloat(*tempMax); err != nil {
		return o, false, fmt.Errorf("-temp-max: %w", err)
	}
	if o.Precipitation, err = common.OptionalFloat(*prec); err != nil {
		return o, false, fmt.Errorf("-prec: %w", err)
	}
	if *mealFlag != "" {
		m, err := meal.ParseCategory(*mealFlag)
		if err != nil {
			return o, false, err
		}
		o.Meal = &m
	}

	custom := o.TempAvg != nil || o.TempMin != nil || o.TempMax != nil || o.Precipitation != nil || o.Meal != nil
	return o, custom, nil
}

func printRecommendation(w io.Writer, rec recommend.Recommendation) {
	header := color.New(color.FgHiWhite, color.Bold)
	dim := color.New(color.FgHiBlack)

	header.Fprintln(w, "TOP 10 RECOMMENDATIONS")
	dim.Fprintf(w, "%s, %.1f°C (min %.1f, max %.1f), %.1fmm precipitation\n",
		rec.Meal.Label(), rec.TempAvg(), rec.Weather.TempMin, rec.Weather.TempMax, rec.Weather.Precipitation)
	if rec.Weather.Stale {
		color.New(color.FgYellow).Fprintln(w, "weather data may be out of date")
	}
	fmt.Fprintln(w)

	if len(rec.Foods) == 0 {
		fmt.Fprintln(w, "No foods suit this weather and meal.")
		return
	}

	// Top three stand out like a podium.
	podium := []*color.Color{
		color.New(color.FgGreen, color.Bold),
		color.New(color.FgGreen),
		color.New(color.FgYellow),
	}
	for i, fs := range rec.Foods {
		c := color.New(color.Reset)
		if i < len(podium) {
			c = podium[i]
		}
		c.Fprintf(w, "%2d. %-28s", i+1, fs.Food)
		dim.Fprintf(w, " %.3f\n", fs.Score)
	}
}

func fatal(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
