// healthctl is the maintenance CLI for the symptom-analysis engine: it
// trains the model ensemble, prints the model comparison report, and runs
// ad hoc analyses against the catalogs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "log/slog"

	"github.com/sharedcode/healthai"
	"github.com/sharedcode/healthai/engine"
)

func main() {
	log.SetDefault(log.New(log.NewTextHandler(os.Stderr, nil)))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "train":
		runTrain(os.Args[2:])
	case "analyze":
		runAnalyze(os.Args[2:])
	case "search":
		runSearch(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: healthctl <command> [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  train      Train the model ensemble and print the comparison report")
	fmt.Println("  analyze    Analyze symptom reports (name:severity[:days] args or -json file)")
	fmt.Println("  search     Search the symptom catalog")
}

// dataFlags adds the shared catalog/artifact location flags.
func dataFlags(fs *flag.FlagSet) (dataDir, modelsDir *string) {
	dataDir = fs.String("data", "data", "Directory holding symptoms.json and diseases.json")
	modelsDir = fs.String("models", "ml_models", "Trained model artifact directory")
	return dataDir, modelsDir
}

func newEngine(dataDir, modelsDir string, autoTrain bool) *engine.Engine {
	return engine.New(context.Background(), engine.Config{
		SymptomsPath: dataDir + "/symptoms.json",
		DiseasesPath: dataDir + "/diseases.json",
		ArtifactDir:  modelsDir,
		Seed:         42,
		AutoTrain:    autoTrain,
	})
}

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	dataDir, modelsDir := dataFlags(fs)
	force := fs.Bool("force", false, "Retrain even if trained artifacts exist")
	reportOnly := fs.Bool("report-only", false, "Print the comparison report without training")
	fs.Parse(args)

	eng := newEngine(*dataDir, *modelsDir, false)

	if !*reportOnly {
		var accuracies map[string]float64
		var err error
		if *force {
			accuracies, err = eng.ForceRetrain(context.Background())
		} else {
			accuracies, err = eng.Train(context.Background())
		}
		if err != nil {
			fmt.Printf("Training failed: %v\n", err)
			os.Exit(1)
		}
		if accuracies == nil {
			fmt.Println("Models already trained. Use -force to retrain.")
		} else {
			fmt.Printf("Trained %d models\n", len(accuracies))
		}
	}

	comparison := eng.ModelComparison()
	if len(comparison) == 0 {
		fmt.Println("No trained models to report on.")
		return
	}
	fmt.Println("\nModel comparison:")
	fmt.Printf("  %-16s %10s %10s %8s  %s\n", "model", "test acc", "cv acc", "cv std", "status")
	for name, row := range comparison {
		fmt.Printf("  %-16s %10.4f %10.4f %8.4f  %s\n",
			name, row.TestAccuracy, row.CVAccuracy, row.CVStd, row.Status)
	}
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	dataDir, modelsDir := dataFlags(fs)
	jsonPath := fs.String("json", "", "Read symptom reports from a JSON file instead of args")
	fs.Parse(args)

	var reports []healthai.SymptomReport
	if *jsonPath != "" {
		data, err := os.ReadFile(*jsonPath)
		if err != nil {
			fmt.Printf("Failed to read %s: %v\n", *jsonPath, err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &reports); err != nil {
			fmt.Printf("Failed to parse %s: %v\n", *jsonPath, err)
			os.Exit(1)
		}
	} else {
		for _, arg := range fs.Args() {
			report, err := parseReport(arg)
			if err != nil {
				fmt.Printf("Invalid report %q: %v\n", arg, err)
				os.Exit(1)
			}
			reports = append(reports, report)
		}
	}

	eng := newEngine(*dataDir, *modelsDir, true)
	result := eng.AnalyzeSymptoms(reports)

	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	fmt.Printf("Model used: %s (confidence %.1f%%)\n", result.ModelUsed, result.MLConfidence)
	if result.SpecialistReferral != "" {
		fmt.Printf("Referral:   %s\n", result.SpecialistReferral)
	}
	if len(result.PredictedDiseases) > 0 {
		fmt.Println("\nCandidates:")
		for _, d := range result.PredictedDiseases {
			fmt.Printf("  %-24s %6.1f%%  (%s)\n", d.Name, d.Confidence, d.RiskLevel)
		}
	}
	fmt.Println("\nRecommendations:")
	for _, line := range strings.Split(result.Recommendations, "\n") {
		fmt.Printf("  %s\n", line)
	}
}

// parseReport parses "name:severity" or "name:severity:days".
func parseReport(arg string) (healthai.SymptomReport, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return healthai.SymptomReport{}, fmt.Errorf("expected name:severity[:days]")
	}
	severity, err := strconv.Atoi(parts[1])
	if err != nil {
		return healthai.SymptomReport{}, fmt.Errorf("invalid severity: %w", err)
	}
	if severity < healthai.SeverityMin || severity > healthai.SeverityMax {
		return healthai.SymptomReport{}, fmt.Errorf("severity %d out of range [%d, %d]",
			severity, healthai.SeverityMin, healthai.SeverityMax)
	}
	days := 1
	if len(parts) == 3 {
		days, err = strconv.Atoi(parts[2])
		if err != nil || days < 1 {
			return healthai.SymptomReport{}, fmt.Errorf("invalid duration days")
		}
	}
	return healthai.SymptomReport{SymptomName: parts[0], Severity: severity, DurationDays: days}, nil
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	dataDir, modelsDir := dataFlags(fs)
	limit := fs.Int("limit", 10, "Maximum results")
	fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	eng := newEngine(*dataDir, *modelsDir, false)
	for _, s := range eng.SearchSymptoms(query, *limit) {
		fmt.Printf("  %-24s [%s]  %s\n", s.Name, s.Category, s.Description)
	}
}
