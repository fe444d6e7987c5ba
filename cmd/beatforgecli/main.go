package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/himanishpuri/beatforge/internal/runstore"
	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/beatforge/pipeline"
	"github.com/himanishpuri/beatforge/pkg/beatforge/themes"
	"github.com/himanishpuri/beatforge/pkg/logger"
)

var (
	dbPath  string
	tempDir string
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("BEATFORGE_DB_PATH", runstore.DefaultDBFile), "Path to the SQLite run-history database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("BEATFORGE_TEMP_DIR", "/tmp"), "Directory for temporary render artifacts")
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	log := logger.GetLogger()
	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Infof("Executing command: %s", command)

	switch command {
	case "render":
		handleRender()
	case "themes":
		handleThemes()
	case "history":
		handleHistory()
	case "calibrate":
		handleCalibrate()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 ____             _   _____
| __ )  ___  __ _| |_|  ___|__  _ __ __ _  ___
|  _ \ / _ \/ _' | __| |_ / _ \| '__/ _' |/ _ \
| |_) |  __/ (_| | |_|  _| (_) | | | (_| |  __/
|____/ \___|\__,_|\__|_|  \___/|_|  \__, |\___|
                                     |___/
      Beatbox -> MIDI Arrangement CLI
`
	fmt.Println(banner)
}

func handleRender() {
	log := logger.GetLogger()

	args := os.Args[2:]
	var wavPath string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && wavPath == "" {
			wavPath = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}
	if wavPath == "" {
		fmt.Println("Usage: beatforgecli render <wav_file> [--theme <name>] [--template <name>] ...")
		os.Exit(1)
	}

	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	theme := renderCmd.String("theme", "blade_runner", "Theme catalog entry")
	template := renderCmd.String("template", "SynthwaveStraight", "Arrangement template")
	bpmOverride := renderCmd.Float64("bpm", 0, "Override estimated BPM (0 = auto)")
	timeSignature := renderCmd.String("time-signature", "4/4", "Time signature (4/4 or 3/4)")
	division := renderCmd.String("division", "1/16", "Grid division (1/4, 1/8, 1/16, triplet)")
	feel := renderCmd.String("feel", "straight", "Feel (straight, swing, halftime)")
	swing := renderCmd.Float64("swing", 0, "Swing amount [0,1]")
	barCount := renderCmd.Int("bars", 4, "Bar count (1,2,4,8,16)")
	strength := renderCmd.Float64("strength", 0.8, "Quantize strength [0,1]")
	lookahead := renderCmd.Float64("lookahead", 100, "Lookahead ms [0,200]")
	bEmphasis := renderCmd.Float64("b-emphasis", 0, "B-emphasis bias [0,1]")
	outDir := renderCmd.String("out", ".", "Output directory for .mid/.wav")
	explain := renderCmd.Bool("explain", false, "Write a JSONL stage-by-stage trace alongside the output files")
	renderCmd.Parse(flagArgs)

	params := beatforge.Parameters{
		Theme:            *theme,
		Template:          parseTemplate(*template),
		BPMOverride:       *bpmOverride,
		TimeSignature:     parseTimeSignature(*timeSignature),
		Division:          parseDivision(*division),
		Feel:              parseFeel(*feel),
		SwingAmount:       *swing,
		BarCount:          *barCount,
		QuantizeStrength:  *strength,
		LookaheadMs:       *lookahead,
		BEmphasis:         *bEmphasis,
	}

	fmt.Println("\n🎧 Reading audio file...")
	pcmBytes, err := os.ReadFile(wavPath)
	if err != nil {
		fmt.Printf("❌ Failed to read %s: %v\n", wavPath, err)
		log.Errorf("ReadFile failed: %v", err)
		os.Exit(1)
	}

	runID := uuid.New().String()
	midiPath := fmt.Sprintf("%s/%s.mid", *outDir, runID)
	wavOutPath := fmt.Sprintf("%s/%s.wav", *outDir, runID)
	tracePath := fmt.Sprintf("%s/%s.trace.jsonl", *outDir, runID)

	var runOpts []pipeline.Option
	if *explain {
		runOpts = append(runOpts, pipeline.WithTraceWriter(pipeline.NewTraceWriter(tracePath)))
	}

	fmt.Println("⚙️  Running pipeline (onset -> features -> classify -> tempo -> quantize -> arrange -> midi -> synth)...")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := pipeline.Run(ctx, pcmBytes, params, runOpts...)
	if err != nil {
		fmt.Printf("\n❌ Pipeline failed: %v\n", err)
		log.Errorf("pipeline.Run failed: %v", err)
		os.Exit(1)
	}

	if err := os.WriteFile(midiPath, result.MidiBytes, 0644); err != nil {
		fmt.Printf("❌ Failed to write MIDI: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(wavOutPath, result.WavBytes, 0644); err != nil {
		fmt.Printf("❌ Failed to write WAV: %v\n", err)
		os.Exit(1)
	}

	parametersJSON, err := json.Marshal(params)
	if err != nil {
		log.Warnf("failed to marshal parameters for history: %v", err)
	}
	decisionRecordsJSON, err := json.Marshal(result.DecisionRecords)
	if err != nil {
		log.Warnf("failed to marshal decision records for history: %v", err)
	}

	store, err := runstore.NewDBClient(dbPath)
	if err == nil {
		defer store.Close()
		_ = store.SaveRun(runstore.Run{
			ID:                  runID,
			ParametersJSON:      string(parametersJSON),
			DecisionRecordsJSON: string(decisionRecordsJSON),
			MidiPath:            midiPath,
			WavPath:             wavOutPath,
			BPM:                 result.Arrangement.BPM,
			TempoFallback:       result.TempoFallback,
			EventsDropped:       result.EventsDropped,
			CreatedAt:           time.Now(),
		})
	} else {
		log.Warnf("run store unavailable, history not recorded: %v", err)
	}

	fmt.Println("\n✅ Arrangement complete!")
	fmt.Printf("   Run ID:         %s\n", runID)
	fmt.Printf("   BPM:            %.1f%s\n", result.Arrangement.BPM, fallbackSuffix(result.TempoFallback))
	fmt.Printf("   Bars:           %d\n", result.Arrangement.BarCount)
	fmt.Printf("   Events dropped: %d\n", result.EventsDropped)
	fmt.Printf("   MIDI:           %s (%s)\n", midiPath, humanize.Bytes(uint64(len(result.MidiBytes))))
	fmt.Printf("   WAV:            %s (%s)\n", wavOutPath, humanize.Bytes(uint64(len(result.WavBytes))))
	if *explain {
		fmt.Printf("   Trace:          %s\n", tracePath)
	}
}

func fallbackSuffix(fallback bool) string {
	if fallback {
		return " (fallback applied, low confidence)"
	}
	return ""
}

func handleThemes() {
	caser := cases.Title(language.English)
	names := make([]string, 0, len(themes.Catalog))
	for name := range themes.Catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\n🎨 Theme catalog:")
	for _, name := range names {
		theme := themes.Catalog[name]
		fmt.Printf("  %s — %s, root=%d, bpm %d-%d\n",
			caser.String(strings.ReplaceAll(name, "_", " ")), scaleFamilyName(theme.ScaleFamily), theme.RootNote, theme.BPMRange[0], theme.BPMRange[1])
	}
}

func scaleFamilyName(f beatforge.ScaleFamily) string {
	switch f {
	case beatforge.ScaleMajor:
		return "major"
	case beatforge.ScaleDorian:
		return "dorian"
	case beatforge.ScalePhrygian:
		return "phrygian"
	default:
		return "natural minor"
	}
}

func handleHistory() {
	log := logger.GetLogger()
	store, err := runstore.NewDBClient(dbPath)
	if err != nil {
		fmt.Printf("❌ Failed to open run store: %v\n", err)
		log.Errorf("NewDBClient failed: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.ListRuns(20)
	if err != nil {
		fmt.Printf("❌ Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("\n📭 No runs recorded yet")
		return
	}
	fmt.Printf("\n📚 Last %d run(s):\n\n", len(runs))
	for _, r := range runs {
		fmt.Printf("%s  bpm=%.1f  dropped=%d  %s\n", r.ID, r.BPM, r.EventsDropped, humanize.Time(r.CreatedAt))
	}
}

func handleCalibrate() {
	fmt.Println("\n⚙️  Calibration profiles are opaque JSON blobs of the form:")
	fmt.Println(`   {"thresholds": {"BilabialPlosive": 1.1}, "notes": "..."}`)
	fmt.Println("   Pass one with a future --calibration <file> flag to render.")
}

func parseTemplate(s string) beatforge.Template {
	switch s {
	case "SynthwaveHalftime":
		return beatforge.SynthwaveHalftime
	case "ArpDrive":
		return beatforge.ArpDrive
	default:
		return beatforge.SynthwaveStraight
	}
}

func parseTimeSignature(s string) beatforge.TimeSignature {
	if s == "3/4" {
		return beatforge.ThreeFour
	}
	return beatforge.FourFour
}

func parseDivision(s string) beatforge.Division {
	switch s {
	case "1/8":
		return beatforge.DivisionEighth
	case "1/16":
		return beatforge.DivisionSixteenth
	case "triplet":
		return beatforge.DivisionTriplet
	default:
		return beatforge.DivisionQuarter
	}
}

func parseFeel(s string) beatforge.Feel {
	switch s {
	case "swing":
		return beatforge.FeelSwing
	case "halftime":
		return beatforge.FeelHalftime
	default:
		return beatforge.FeelStraight
	}
}

func printUsage() {
	fmt.Println("beatforgecli - offline beatbox-to-arrangement CLI")
	fmt.Println("\nEnvironment (global settings are read from the environment only):")
	fmt.Println("  BEATFORGE_DB_PATH    Path to SQLite run-history database")
	fmt.Println("  BEATFORGE_TEMP_DIR   Temporary directory (read at startup; no subcommand uses it)")
	fmt.Println("\nUsage:")
	fmt.Println("  beatforgecli render <wav_file> [--theme <name>] [--template <name>] [--bars <n>] [--explain] ...")
	fmt.Println("  beatforgecli themes")
	fmt.Println("  beatforgecli history")
	fmt.Println("  beatforgecli calibrate")
}
