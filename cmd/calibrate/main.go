// Package main provides CMA-ES calibration of particle field dynamics:
// lifetime decay, noise and initial motion are tuned until headless runs
// match a target particle lifetime and spread.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/lumen/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seconds := flag.Float64("seconds", 20, "Simulated seconds per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	targetLife := flag.Float64("target-lifetime", 4, "Target mean particle lifetime in seconds")
	targetSpread := flag.Float64("target-spread", 1.5, "Target RMS radius as a multiple of the spawn radius")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Silence per-run viewer logs
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Load base config
	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector()

	// Generate seeds for evaluation
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	frames := int(*seconds * 60)
	targets := Targets{Lifetime: *targetLife, Spread: *targetSpread}
	evaluator := NewFitnessEvaluator(params, frames, evalSeeds, baseCfg, targets)

	// Start from the base config, not the parameter defaults
	dim := params.Dim()
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; seeds already run in parallel
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + dim
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.2,
		Population:   popSize,
	}

	// Open log file
	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "lifetime", "spread", "visible"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	// Track evaluations and timing
	evalCount := 0
	bestFitness := failedFitness
	var bestParams []float64
	startTime := time.Now()

	// Wrap the function to log evaluations
	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		sc := evaluator.Last()
		row := []string{
			strconv.Itoa(evalCount),
			fmt.Sprintf("%.6f", fitness),
			fmt.Sprintf("%.3f", sc.Lifetime),
			fmt.Sprintf("%.3f", sc.Spread),
			fmt.Sprintf("%.3f", sc.Visible),
		}
		for _, v := range clamped {
			row = append(row, fmt.Sprintf("%.6f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		fmt.Printf("Eval %d/%d: fitness=%.4f lifetime=%.2fs spread=%.2f visible=%.2f (best=%.4f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, fitness, sc.Lifetime, sc.Spread, sc.Visible, bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Starting CMA-ES calibration with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, frames per run: %d\n", *seeds, frames)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("calibration ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluation completed")
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	if best, ok := evaluator.Best(); ok {
		fmt.Printf("Best fitness: %.4f (lifetime %.2fs, spread %.2f, visible %.2f)\n",
			best.Fitness, best.Lifetime, best.Spread, best.Visible)
	}
	if n := evaluator.Failures(); n > 0 {
		fmt.Printf("Runs that failed to start: %d\n", n)
	}

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, bestParams[i])
	}

	// Save best config
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
